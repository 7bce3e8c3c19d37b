package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with maintly-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS machines (
    id TEXT PRIMARY KEY,
    product_id TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    last_reading_at DATETIME,
    current_risk_level TEXT NOT NULL DEFAULT '',
    current_risk_score REAL,
    predicted_failure_type TEXT
);

CREATE TABLE IF NOT EXISTS sensor_readings (
    machine_id TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
    ts DATETIME NOT NULL,
    air_temp_k REAL,
    process_temp_k REAL,
    rotational_speed_rpm REAL,
    torque_nm REAL,
    tool_wear_min REAL,
    PRIMARY KEY(machine_id, ts)
);

CREATE INDEX IF NOT EXISTS idx_readings_machine_ts ON sensor_readings(machine_id, ts DESC);

CREATE TABLE IF NOT EXISTS predictions (
    id TEXT PRIMARY KEY,
    machine_id TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
    ts DATETIME NOT NULL,
    risk_score REAL NOT NULL,
    risk_level TEXT NOT NULL CHECK(risk_level IN ('low','medium','high')),
    predicted_failure_type TEXT,
    top_factors TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_predictions_machine_ts ON predictions(machine_id, ts DESC);

CREATE TABLE IF NOT EXISTS anomalies (
    id TEXT PRIMARY KEY,
    machine_id TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
    detected_at DATETIME NOT NULL,
    risk_score REAL NOT NULL,
    risk_level TEXT NOT NULL,
    predicted_failure_type TEXT,
    reason TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_anomalies_machine_detected ON anomalies(machine_id, detected_at DESC);

CREATE TABLE IF NOT EXISTS recommendations (
    id TEXT PRIMARY KEY,
    machine_id TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    action_text TEXT NOT NULL,
    reason TEXT NOT NULL,
    horizon_days REAL,
    confidence REAL,
    failure_type TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT 'agent'
);

CREATE INDEX IF NOT EXISTS idx_recommendations_machine ON recommendations(machine_id, created_at DESC);

CREATE TABLE IF NOT EXISTS tickets (
    id TEXT PRIMARY KEY,
    machine_id TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open','in_progress','done')),
    priority TEXT NOT NULL CHECK(priority IN ('low','medium','high')),
    title TEXT NOT NULL,
    description TEXT,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tickets_machine ON tickets(machine_id);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
`
