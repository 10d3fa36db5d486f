package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Store implements every repository the services need on top of SQLite.
// Rows are soft-deleted: a deleted row keeps its data and gets deleted_at.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: SQLite serializes writers anyway and an in-memory
	// database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		name        TEXT NOT NULL,
		color       TEXT NOT NULL DEFAULT '#6C63FF',
		archived    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		UNIQUE(user_id, name)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL,
		project_id        TEXT NOT NULL REFERENCES projects(id),
		parent_task_id    TEXT REFERENCES tasks(id),
		title             TEXT NOT NULL,
		type              TEXT NOT NULL DEFAULT '',
		difficulty        TEXT NOT NULL,
		progress          INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
		status            TEXT NOT NULL DEFAULT 'BACKLOG',
		estimated_minutes INTEGER,
		actual_minutes    INTEGER NOT NULL DEFAULT 0,
		completed_at      TEXT,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL,
		deleted_at        TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user      ON tasks(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_parent    ON tasks(parent_task_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed_at);

	CREATE TABLE IF NOT EXISTS time_entries (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		task_id     TEXT NOT NULL REFERENCES tasks(id),
		started_at  TEXT NOT NULL,
		ended_at    TEXT,
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		deleted_at  TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_entries_task  ON time_entries(task_id);
	CREATE INDEX IF NOT EXISTS idx_entries_start ON time_entries(user_id, started_at);

	CREATE TABLE IF NOT EXISTS breaks (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		type             TEXT NOT NULL,
		started_at       TEXT NOT NULL,
		ended_at         TEXT,
		duration_minutes INTEGER,
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		deleted_at       TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_breaks_start ON breaks(user_id, started_at);

	CREATE TABLE IF NOT EXISTS work_sessions (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		workspace_id    TEXT NOT NULL,
		status          TEXT NOT NULL,
		clocked_in_at   TEXT NOT NULL,
		clocked_out_at  TEXT,
		date            TEXT NOT NULL,
		paused_at       TEXT,
		paused_minutes  INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		deleted_at      TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON work_sessions(user_id, date);

	CREATE TABLE IF NOT EXISTS goals (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		workspace_id  TEXT NOT NULL,
		title         TEXT NOT NULL,
		type          TEXT NOT NULL,
		target_value  INTEGER NOT NULL,
		period        TEXT NOT NULL,
		is_active     INTEGER NOT NULL DEFAULT 1,
		created_at    TEXT NOT NULL,
		deleted_at    TEXT
	);

	CREATE TABLE IF NOT EXISTS points_ledger (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		points      INTEGER NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		task_id     TEXT REFERENCES tasks(id),
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_points_user ON points_ledger(user_id, created_at);

	CREATE TABLE IF NOT EXISTS daily_scores (
		user_id       TEXT NOT NULL,
		date          TEXT NOT NULL,
		total_points  INTEGER NOT NULL,
		task_count    INTEGER NOT NULL,
		recorded_at   TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('trend_window_days',  '7'),
		('default_break_type', 'COFFEE'),
		('default_difficulty', 'MEDIUM');
	`
	_, err := s.db.Exec(ddl)
	return err
}
