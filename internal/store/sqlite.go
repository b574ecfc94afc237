package store

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string {
	return "sqlite"
}

func (sqliteDialect) Schema() string {
	return `
CREATE TABLE IF NOT EXISTS kv_entries (
    entry_key TEXT PRIMARY KEY,
    entry_value BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);`
}

func (sqliteDialect) Rebind(query string) string {
	return query
}

func (sqliteDialect) UpsertQuery() string {
	return `INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`
}

func (sqliteDialect) Configure(db *sql.DB) error {
	// A single connection serialises writers and keeps ":memory:" databases
	// shared across calls.
	db.SetMaxOpenConns(1)
	_, err := db.Exec("PRAGMA busy_timeout = 5000;")
	return err
}

// NewSQLite opens (or creates) a sqlite database file.
func NewSQLite(dbPath string) (*SQLStore, error) {
	return openWithDialect(sqliteDialect{}, dbPath)
}
