package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "decay_values: lifecycle ledger for decaying values",
		SQL: `
CREATE TABLE decay_values (
    id           TEXT PRIMARY KEY,
    mode         TEXT NOT NULL CHECK (mode IN ('device', 'sim')),
    content_len  INTEGER NOT NULL,
    device_path  TEXT,
    created_at   INTEGER NOT NULL,
    closed_at    INTEGER
);

CREATE INDEX idx_values_created_at ON decay_values(created_at DESC);
CREATE INDEX idx_values_mode       ON decay_values(mode);
`,
	},
	{
		Version:     2,
		Description: "decay_reads: per-read corruption observations",
		SQL: `
CREATE TABLE decay_reads (
    id           INTEGER PRIMARY KEY,
    value_id     TEXT NOT NULL,
    elapsed_sec  INTEGER NOT NULL,
    corrupted    INTEGER NOT NULL,
    observed_at  INTEGER NOT NULL,

    FOREIGN KEY (value_id) REFERENCES decay_values(id)
);

CREATE INDEX idx_reads_value_id ON decay_reads(value_id);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
