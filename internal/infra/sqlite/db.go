// Package sqlite provides SQLite-based persistent storage for partnergate.
// Uses WAL mode for concurrent reads and crash-safe writes.
//
// The only table is the idempotency-record map: client-supplied key to the
// derived checkout-session identifier, so repeated mutating calls with the
// same key resolve to the same identifier even across restarts.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity. The readiness probe fails closed on a
// ping error.
func (d *DB) Ping() error {
	return d.db.Ping()
}

func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS idempotency_records (
			key        TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}

	for i, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// LookupIdempotency returns the session identifier previously recorded for
// key, or ("", nil) if none exists.
func (d *DB) LookupIdempotency(key string) (string, error) {
	var sessionID string
	err := d.db.QueryRow(
		`SELECT session_id FROM idempotency_records WHERE key = ?`, key,
	).Scan(&sessionID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup idempotency record: %w", err)
	}
	return sessionID, nil
}

// RecordIdempotency stores the derived session identifier for key. The
// first write wins: if the key already has a record the existing session
// identifier is kept and returned.
func (d *DB) RecordIdempotency(key, sessionID string) (string, error) {
	_, err := d.db.Exec(
		`INSERT INTO idempotency_records (key, session_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`,
		key, sessionID, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("record idempotency: %w", err)
	}
	return d.LookupIdempotency(key)
}
