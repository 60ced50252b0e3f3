// Package history records finished honk sessions in SQLite so they can be
// reviewed with `autohonk history`. Nothing is read back at startup.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one finished session.
type Entry struct {
	ID           string
	System       string
	Key          string
	StartedAt    time.Time
	Duration     time.Duration
	Reason       string
	BodyCount    int
	NonBodyCount int
}

// Store persists entries.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions (
		id             TEXT PRIMARY KEY,
		system         TEXT NOT NULL,
		key_name       TEXT NOT NULL,
		started_at     INTEGER NOT NULL, -- unix nanoseconds
		duration_ms    INTEGER NOT NULL,
		reason         TEXT NOT NULL,
		body_count     INTEGER NOT NULL DEFAULT 0,
		non_body_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	`)
	return err
}

// Record stores e, replacing any entry with the same ID.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions
		 (id, system, key_name, started_at, duration_ms, reason, body_count, non_body_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.System, e.Key, e.StartedAt.UnixNano(),
		e.Duration.Milliseconds(), e.Reason, e.BodyCount, e.NonBodyCount,
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, system, key_name, started_at, duration_ms, reason, body_count, non_body_count
		 FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			started int64
			ms      int64
		)
		if err := rows.Scan(&e.ID, &e.System, &e.Key, &started, &ms, &e.Reason, &e.BodyCount, &e.NonBodyCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		e.StartedAt = time.Unix(0, started).UTC()
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summary aggregates the history.
type Summary struct {
	Sessions  int
	Expired   int
	Cancelled int
	Bodies    int
}

// Summarize counts sessions by outcome.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN reason = 'expired' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN reason = 'cancelled' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(body_count), 0)
		 FROM sessions`).Scan(&sum.Sessions, &sum.Expired, &sum.Cancelled, &sum.Bodies)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize sessions: %w", err)
	}
	return sum, nil
}
