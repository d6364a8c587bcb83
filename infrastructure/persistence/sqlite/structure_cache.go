// Package sqlite persists the structure snapshot between sessions so a
// relaunch can skip the network round-trip entirely.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"shajara/domain/tree"
	pkgerrors "shajara/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS structure_cache (
	schema_version TEXT PRIMARY KEY,
	payload        BLOB NOT NULL,
	saved_at       TIMESTAMP NOT NULL
);`

// StructureCache is a SQLite-backed implementation of the structure cache
// port. One row per schema version; writing a new version drops every
// other row, which is how a schema bump between releases invalidates the
// stale snapshot automatically.
type StructureCache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*StructureCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// WAL lets the api server read while treectl inspects the cache.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &StructureCache{db: db}, nil
}

// Close closes the underlying database.
func (c *StructureCache) Close() error {
	return c.db.Close()
}

// Read returns the cached snapshot for schemaVersion. A row under a
// different version is a miss, not an error; a row that fails to decode is
// a cache-read error the caller is expected to absorb.
func (c *StructureCache) Read(ctx context.Context, schemaVersion string) ([]tree.PersonRecord, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM structure_cache WHERE schema_version = ?`, schemaVersion,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.NewCacheReadError("cache query failed", err)
	}

	var records []tree.PersonRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false, pkgerrors.NewCacheReadError("cache payload corrupt", err)
	}
	return records, true, nil
}

// Write replaces the cache with the snapshot tagged schemaVersion.
func (c *StructureCache) Write(ctx context.Context, schemaVersion string, records []tree.PersonRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding cache payload: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting cache write: %w", err)
	}
	defer tx.Rollback()

	// Stale entries under any other schema version are dead weight.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM structure_cache WHERE schema_version != ?`, schemaVersion); err != nil {
		return fmt.Errorf("dropping stale cache entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO structure_cache (schema_version, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(schema_version) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		schemaVersion, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	return tx.Commit()
}

// Invalidate drops every cached entry.
func (c *StructureCache) Invalidate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM structure_cache`); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	return nil
}

// Status describes the cache entry, if any, for admin tooling.
type Status struct {
	SchemaVersion string    `json:"schema_version"`
	Records       int       `json:"records"`
	SavedAt       time.Time `json:"saved_at"`
}

// Stat reports the current cache entry; ok is false when the cache is empty.
func (c *StructureCache) Stat(ctx context.Context) (Status, bool, error) {
	var (
		st      Status
		payload []byte
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT schema_version, payload, saved_at FROM structure_cache ORDER BY saved_at DESC LIMIT 1`,
	).Scan(&st.SchemaVersion, &payload, &st.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, fmt.Errorf("reading cache status: %w", err)
	}

	var records []tree.PersonRecord
	if err := json.Unmarshal(payload, &records); err == nil {
		st.Records = len(records)
	}
	return st, true, nil
}
