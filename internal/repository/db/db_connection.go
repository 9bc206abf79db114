package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaSettings = `
CREATE TABLE IF NOT EXISTS msd_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    detection_time_ms INTEGER NOT NULL,
    detection_degrees REAL NOT NULL,
    test_time_ms INTEGER NOT NULL,
    test_degrees REAL NOT NULL,
    tester_name TEXT NOT NULL,
    min_graph_c REAL NOT NULL,
    max_graph_c REAL NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaSessionEvents = `
CREATE TABLE IF NOT EXISTS session_events (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const indexSessionEvents = `
CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events (session_id, occurred_at);
`

const schemaTestResults = `
CREATE TABLE IF NOT EXISTS test_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    label INTEGER NOT NULL,
    mold_side TEXT NOT NULL,
    manual BOOLEAN NOT NULL,
    result TEXT NOT NULL CHECK (result IN ('success', 'fail')),
    reason TEXT NOT NULL,
    init_time TIMESTAMP NOT NULL,
    start_time TIMESTAMP NOT NULL,
    start_temp_c REAL NOT NULL,
    confirmed_at TIMESTAMP NOT NULL,
    auto_confirmed BOOLEAN NOT NULL
);
`

const indexTestResults = `
CREATE INDEX IF NOT EXISTS idx_test_results_session ON test_results (session_id);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaSettings,
		schemaSessionEvents,
		indexSessionEvents,
		schemaTestResults,
		indexTestResults,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
