// Package store persists the administrator-managed source configuration in
// an embedded SQLite database. Sync runs append newly discovered sources but
// never touch entries an administrator already owns.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/godlockin/moontv-sync/internal/source"
)

// OriginCustom marks entries appended by sync runs, as opposed to entries
// seeded from a subscription config.
const OriginCustom = "custom"

const schema = `
CREATE TABLE IF NOT EXISTS source_config (
	key      TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	api      TEXT NOT NULL,
	detail   TEXT NOT NULL DEFAULT '',
	origin   TEXT NOT NULL DEFAULT 'custom',
	disabled INTEGER NOT NULL DEFAULT 0
);
`

// SourceEntry is one row of the administrator's source configuration.
type SourceEntry struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	API      string `json:"api"`
	Detail   string `json:"detail,omitempty"`
	From     string `json:"from"`
	Disabled bool   `json:"disabled"`
}

// Store wraps the SQLite database holding the admin source configuration.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening config database: %w", err)
	}
	// modernc.org/sqlite serializes through a single connection; more than
	// one causes SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing config schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListSources returns all configured sources in key order.
func (s *Store) ListSources(ctx context.Context) ([]SourceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, name, api, detail, origin, disabled FROM source_config ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []SourceEntry
	for rows.Next() {
		var e SourceEntry
		var disabled int
		if err := rows.Scan(&e.Key, &e.Name, &e.API, &e.Detail, &e.From, &disabled); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		e.Disabled = disabled != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return out, nil
}

// GetSource returns one entry by key, or false when absent.
func (s *Store) GetSource(ctx context.Context, key string) (SourceEntry, bool, error) {
	var e SourceEntry
	var disabled int
	err := s.db.QueryRowContext(ctx,
		`SELECT key, name, api, detail, origin, disabled FROM source_config WHERE key = ?`, key).
		Scan(&e.Key, &e.Name, &e.API, &e.Detail, &e.From, &disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return SourceEntry{}, false, nil
	}
	if err != nil {
		return SourceEntry{}, false, fmt.Errorf("reading source %q: %w", key, err)
	}
	e.Disabled = disabled != 0
	return e, true, nil
}

// SetSource inserts or replaces one entry. This is the administrator's write
// path; sync runs must go through MergeSources instead.
func (s *Store) SetSource(ctx context.Context, e SourceEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_config (key, name, api, detail, origin, disabled)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   name = excluded.name, api = excluded.api, detail = excluded.detail,
		   origin = excluded.origin, disabled = excluded.disabled`,
		e.Key, e.Name, e.API, e.Detail, e.From, boolToInt(e.Disabled))
	if err != nil {
		return fmt.Errorf("writing source %q: %w", e.Key, err)
	}
	return nil
}

// MergeSources appends discovered sources whose keys are not yet configured
// and returns how many rows were added. Existing entries are left exactly as
// the administrator set them, including their disabled flag.
func (s *Store) MergeSources(ctx context.Context, sources []source.StandardizedSource) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting merge: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, src := range sources {
		if src.ID == "" || src.URL == "" {
			continue
		}
		name := src.Name
		if name == "" {
			name = src.ID
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO source_config (key, name, api, detail, origin, disabled)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(key) DO NOTHING`,
			src.ID, name, src.URL, src.URL, OriginCustom, boolToInt(!src.Active))
		if err != nil {
			return 0, fmt.Errorf("merging source %q: %w", src.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("merging source %q: %w", src.ID, err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing merge: %w", err)
	}
	return added, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
