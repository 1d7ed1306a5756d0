// Package store is the local SQLite database holding tasks, focus sessions
// and settings. It is the authoritative local copy the sync engine reads
// and writes.
//
// All access goes through one connection guarded by a mutex, so callers get
// single-writer semantics without their own locking.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/harrisonrobin/tomato/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	priority TEXT NOT NULL DEFAULT 'medium',
	due_date TEXT,
	tags TEXT NOT NULL DEFAULT '[]',
	estimated_pomodoros INTEGER NOT NULL DEFAULT 1,
	completed_pomodoros INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pomodoro_sessions (
	id TEXT PRIMARY KEY,
	task_id TEXT,
	session_type TEXT NOT NULL,
	state TEXT NOT NULL DEFAULT 'ready',
	duration_minutes INTEGER NOT NULL,
	remaining_seconds INTEGER NOT NULL,
	started_at TEXT,
	paused_at TEXT,
	completed_at TEXT,
	rating INTEGER,
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks (updated_at);
CREATE INDEX IF NOT EXISTS idx_sessions_task_id ON pomodoro_sessions (task_id);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON pomodoro_sessions (created_at);
`

// Store is the SQLite-backed local store.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
	ids func() string
}

// Open opens (creating if needed) the database at path and applies the
// schema. Default settings are written on first open.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.NewStorageError("create data directory", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewStorageError("open database", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
		ids: uuid.NewString,
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.NewStorageError("migrate schema", err)
	}
	return s.seedSettings(ctx)
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
