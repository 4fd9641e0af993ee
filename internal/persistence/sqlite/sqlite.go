// Package sqlite implements the persistence repositories on SQLite using the
// pure-Go modernc.org driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed implementation of the persistence repositories.
// It is safe for concurrent use; database/sql handles pooling.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn. Plain ":memory:" does not survive
// database/sql connection pooling; use a file DSN even for throwaway data.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS user_rules (
		user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		name         TEXT NOT NULL DEFAULT '',
		preference   REAL NOT NULL,
		include_json TEXT NOT NULL,
		pattern_json TEXT,
		PRIMARY KEY (user_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS user_affinities (
		user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		other_id TEXT NOT NULL,
		kind     TEXT NOT NULL,
		weight   REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, other_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_skills (
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		skill_id    TEXT NOT NULL,
		proficiency REAL NOT NULL,
		PRIMARY KEY (user_id, skill_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		deadline    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS task_awaiting (
		task_id   TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		awaits_id TEXT NOT NULL,
		PRIMARY KEY (task_id, awaits_id)
	)`,
	`CREATE TABLE IF NOT EXISTS task_skills (
		task_id  TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		skill_id TEXT NOT NULL,
		required REAL NOT NULL,
		PRIMARY KEY (task_id, skill_id)
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL DEFAULT '',
		start            TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		min_staff        INTEGER NOT NULL DEFAULT 0
	)`,
}

// Migrate creates the schema. It is idempotent and safe to run on every
// startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
