// Package store is the local persistence layer, a single SQLite database
// under the configured data directory.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id               TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	title            TEXT NOT NULL,
	notes            TEXT NOT NULL DEFAULT '',
	recurrence_kind  TEXT NOT NULL,
	recurrence_date  TEXT NOT NULL DEFAULT '',
	recurrence_days  TEXT NOT NULL DEFAULT '',
	hour             INTEGER NOT NULL,
	minute           INTEGER NOT NULL,
	lead_minutes     INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exercises (
	id       TEXT PRIMARY KEY,
	item_id  TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exercises_item ON exercises(item_id, position);

CREATE TABLE IF NOT EXISTS item_completions (
	item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	date    TEXT NOT NULL,
	PRIMARY KEY (item_id, date)
);

CREATE TABLE IF NOT EXISTS recipes (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	meal_type    TEXT NOT NULL,
	ingredients  TEXT NOT NULL,
	instructions TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vitamin_queries (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS water_days (
	date   TEXT PRIMARY KEY,
	goal   REAL NOT NULL,
	intake REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS profile (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	username   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store wraps the SQLite handle. Civil-date parsing (one-shot recurrence
// dates, water days) uses loc, the configured display timezone.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// Open opens (or creates) the database at dir/fitcal.db and applies the
// schema. Use ":memory:" as dir for tests.
func Open(dir string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}

	// Pragmas ride on the DSN: foreign_keys is per connection in SQLite, so
	// setting it with a one-off Exec would leave the rest of the pool
	// without FK enforcement.
	memory := dir == ":memory:"
	dsn := "file::memory:?_pragma=foreign_keys(1)"
	if !memory {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
		dsn = "file:" + filepath.Join(dir, "fitcal.db") +
			"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if memory {
		// Every pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &Store{db: db, loc: loc}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
