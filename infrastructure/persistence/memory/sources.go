// Package memory provides in-memory implementations of the data ports,
// used by tests and by offline treectl runs.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"shajara/domain/tree"
	pkgerrors "shajara/pkg/errors"
)

// StructureCache is an in-memory structure cache.
type StructureCache struct {
	mu      sync.Mutex
	version string
	records []tree.PersonRecord

	// ReadErr, when set, makes every read fail with a cache-read error.
	ReadErr error
	// WriteErr, when set, makes every write fail.
	WriteErr error
}

// NewStructureCache creates an empty cache.
func NewStructureCache() *StructureCache {
	return &StructureCache{}
}

// Seed primes the cache with a snapshot under the given schema version.
func (c *StructureCache) Seed(version string, records []tree.PersonRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = version
	c.records = append([]tree.PersonRecord(nil), records...)
}

func (c *StructureCache) Read(ctx context.Context, schemaVersion string) ([]tree.PersonRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReadErr != nil {
		return nil, false, pkgerrors.NewCacheReadError("cache unreadable", c.ReadErr)
	}
	if c.version != schemaVersion || c.records == nil {
		return nil, false, nil
	}
	return append([]tree.PersonRecord(nil), c.records...), true, nil
}

func (c *StructureCache) Write(ctx context.Context, schemaVersion string, records []tree.PersonRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WriteErr != nil {
		return c.WriteErr
	}
	c.version = schemaVersion
	c.records = append([]tree.PersonRecord(nil), records...)
	return nil
}

func (c *StructureCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = ""
	c.records = nil
	return nil
}

// Version returns the schema version of the stored entry.
func (c *StructureCache) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// StructureSource serves a fixed snapshot and counts fetches.
type StructureSource struct {
	mu      sync.Mutex
	records []tree.PersonRecord

	// Err, when set, makes every fetch fail.
	Err error
	// Delay, when non-nil, is closed by the test to release fetches.
	Delay chan struct{}

	fetches atomic.Int64
}

// NewStructureSource creates a source serving the given snapshot.
func NewStructureSource(records []tree.PersonRecord) *StructureSource {
	return &StructureSource{records: records}
}

func (s *StructureSource) FetchStructure(ctx context.Context) ([]tree.PersonRecord, error) {
	s.fetches.Add(1)
	if s.Delay != nil {
		select {
		case <-s.Delay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]tree.PersonRecord(nil), s.records...), nil
}

// Fetches returns how many fetches were issued.
func (s *StructureSource) Fetches() int {
	return int(s.fetches.Load())
}

// DetailSource serves detail records by id and records every batch.
type DetailSource struct {
	mu      sync.Mutex
	details map[string]tree.NodeDetail
	batches [][]string

	// Err, when set, makes every fetch fail.
	Err error
	// Delay, when non-nil, is closed by the test to release fetches.
	Delay chan struct{}
}

// NewDetailSource creates a detail source from the given records.
func NewDetailSource(details []tree.NodeDetail) *DetailSource {
	byID := make(map[string]tree.NodeDetail, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}
	return &DetailSource{details: byID}
}

func (s *DetailSource) FetchDetails(ctx context.Context, ids []string) ([]tree.NodeDetail, error) {
	s.mu.Lock()
	s.batches = append(s.batches, append([]string(nil), ids...))
	s.mu.Unlock()

	if s.Delay != nil {
		select {
		case <-s.Delay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]tree.NodeDetail, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *DetailSource) UpdateProfile(ctx context.Context, id string, expectedVersion int64, update tree.ProfileUpdate) (tree.NodeDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.details[id]
	if !ok {
		return tree.NodeDetail{}, pkgerrors.NewNotFoundError("person")
	}
	if d.Version == nil || *d.Version != expectedVersion {
		return tree.NodeDetail{}, pkgerrors.NewConflictError("profile was modified by someone else")
	}

	if update.Bio != "" {
		d.Bio = update.Bio
	}
	if update.PhotoURL != "" {
		d.PhotoURL = update.PhotoURL
	}
	if update.BirthYear != 0 {
		d.BirthYear = update.BirthYear
	}
	if update.DeathYear != 0 {
		d.DeathYear = update.DeathYear
	}
	next := expectedVersion + 1
	d.Version = &next
	s.details[id] = d
	return d, nil
}

// SetErr swaps the failure injected into subsequent fetches.
func (s *DetailSource) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// Batches returns a copy of every id batch requested so far.
func (s *DetailSource) Batches() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.batches))
	for i, b := range s.batches {
		out[i] = append([]string(nil), b...)
	}
	return out
}
