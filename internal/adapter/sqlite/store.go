package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"github.com/vertextoedge/diskguard/internal/port"
)

// Store implements port.HistoryRepository using SQLite
type Store struct {
	db *sql.DB
}

// Ensure Store implements port.HistoryRepository
var _ port.HistoryRepository = (*Store)(nil)

// Open opens the history database at dbPath, creating it and its parent
// directory when missing.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; the monitor and the HTTP handlers share it
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, multierr.Combine(fmt.Errorf("failed to set pragma %s: %w", pragma, err), db.Close())
		}
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, multierr.Combine(fmt.Errorf("failed to migrate database: %w", err), db.Close())
	}

	return store, nil
}

// Close checkpoints the WAL and closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return multierr.Append(err, s.db.Close())
}

// Ping checks database connectivity
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS status_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			used_percentage REAL NOT NULL DEFAULT 0,
			known BOOLEAN NOT NULL DEFAULT FALSE,
			recorded_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS reclaim_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			directory TEXT NOT NULL,
			volume_root TEXT NOT NULL,
			threshold_percent INTEGER NOT NULL,
			candidates INTEGER NOT NULL DEFAULT 0,
			deleted_count INTEGER NOT NULL DEFAULT 0,
			failed_count INTEGER NOT NULL DEFAULT 0,
			deleted_paths TEXT NOT NULL DEFAULT '',
			start_percentage REAL NOT NULL DEFAULT 0,
			end_percentage REAL NOT NULL DEFAULT 0,
			satisfied BOOLEAN NOT NULL DEFAULT FALSE,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_status_samples_recorded_at ON status_samples(recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reclaim_events_finished_at ON reclaim_events(finished_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}
	return nil
}
