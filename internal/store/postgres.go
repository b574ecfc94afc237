package store

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
)

type postgresDialect struct{}

func (postgresDialect) DriverName() string {
	return "pgx"
}

func (postgresDialect) Schema() string {
	return `
CREATE TABLE IF NOT EXISTS kv_entries (
    entry_key TEXT PRIMARY KEY,
    entry_value BYTEA NOT NULL,
    updated_at BIGINT NOT NULL
);`
}

func (postgresDialect) Rebind(query string) string {
	// PostgreSQL uses $1, $2, etc. instead of ?
	return rewritePlaceholdersToNumbered(query)
}

func (postgresDialect) UpsertQuery() string {
	return `INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (entry_key) DO UPDATE SET entry_value = EXCLUDED.entry_value, updated_at = EXCLUDED.updated_at`
}

func (postgresDialect) Configure(db *sql.DB) error {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return nil
}
