package sqlite

import (
	"database/sql"
	"fmt"
)

// schema holds one step per schema version; step i upgrades a database at
// user_version i to i+1. Timestamps are RFC 3339 text; money is decimal text.
var schema = [][]string{
	{
		`CREATE TABLE clients (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			phone            TEXT NOT NULL,
			business_type    TEXT NOT NULL,
			city             TEXT NOT NULL,
			location         TEXT NOT NULL DEFAULT '',
			importance_level TEXT NOT NULL,
			created_at       TEXT NOT NULL
		)`,
		`CREATE TABLE weekly_sales (
			id         TEXT    PRIMARY KEY,
			client_id  TEXT    NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
			position   INTEGER NOT NULL,
			week_start TEXT    NOT NULL,
			week_end   TEXT    NOT NULL,
			sold       INTEGER NOT NULL DEFAULT 0,
			notes      TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL
		)`,
		`CREATE INDEX idx_weekly_sales_client ON weekly_sales(client_id, position)`,
		`CREATE TABLE sales (
			id          TEXT PRIMARY KEY,
			value       TEXT NOT NULL,
			client_name TEXT NOT NULL,
			city        TEXT NOT NULL,
			date        TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)`,
	},
}

// schemaVersion reads PRAGMA user_version.
func schemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// upgrade applies the pending schema steps, each in its own transaction
// together with the version bump. A database newer than this binary is an
// error.
func upgrade(db *sql.DB) error {
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if current > len(schema) {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, len(schema))
	}

	for v := current; v < len(schema); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("schema v%d: %w", v+1, err)
		}
		for _, stmt := range schema[v] {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("schema v%d: %w", v+1, err)
			}
		}
		// PRAGMA does not take bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("schema v%d: setting version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("schema v%d: %w", v+1, err)
		}
	}
	return nil
}
