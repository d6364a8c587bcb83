package ports

import (
	"context"

	"shajara/domain/tree"
)

// StructureSource is the remote collaborator for the structure phase: it
// returns the full minimal-field person snapshot.
type StructureSource interface {
	// FetchStructure returns every person record with structure-phase
	// fields only. A failure is a network-style error.
	FetchStructure(ctx context.Context) ([]tree.PersonRecord, error)
}

// DetailSource is the remote collaborator for enrichment and editing.
type DetailSource interface {
	// FetchDetails returns full-detail records for exactly the given ids.
	FetchDetails(ctx context.Context, ids []string) ([]tree.NodeDetail, error)

	// UpdateProfile applies a profile edit if and only if the stored
	// version still equals expectedVersion, then returns the new detail
	// record. A stale version yields a conflict error.
	UpdateProfile(ctx context.Context, id string, expectedVersion int64, update tree.ProfileUpdate) (tree.NodeDetail, error)
}

// StructureCache is the persisted local cache for structure snapshots,
// keyed by a schema-version string. A version bump between releases
// invalidates the entry automatically.
type StructureCache interface {
	// Read returns the cached snapshot for the schema version. ok is
	// false on a miss; a corrupt entry returns a cache-read error.
	Read(ctx context.Context, schemaVersion string) (records []tree.PersonRecord, ok bool, err error)

	// Write replaces the cache with a snapshot tagged by schemaVersion.
	// Entries under any other version are dropped.
	Write(ctx context.Context, schemaVersion string, records []tree.PersonRecord) error

	// Invalidate drops every cached entry.
	Invalidate(ctx context.Context) error
}
