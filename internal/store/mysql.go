package store

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type mysqlDialect struct{}

func (mysqlDialect) DriverName() string {
	return "mysql"
}

func (mysqlDialect) Schema() string {
	return `
CREATE TABLE IF NOT EXISTS kv_entries (
    entry_key VARCHAR(255) NOT NULL PRIMARY KEY,
    entry_value LONGBLOB NOT NULL,
    updated_at BIGINT NOT NULL
)`
}

func (mysqlDialect) Rebind(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (mysqlDialect) UpsertQuery() string {
	return "INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value), updated_at = VALUES(updated_at)"
}

func (mysqlDialect) Configure(db *sql.DB) error {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}
