package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Dialect hides the differences between the supported SQL databases.
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// Schema creates the key/value table if needed
	Schema() string

	// Rebind converts ? placeholders if needed (e.g., ? to $1 for postgres)
	Rebind(query string) string

	// UpsertQuery inserts or replaces one entry: (key, value, updated_at)
	UpsertQuery() string

	// Configure applies database-specific connection settings
	Configure(db *sql.DB) error
}

// DialectFor returns the dialect registered under driver.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3", "":
		return sqliteDialect{}, nil
	case "postgres", "postgresql", "pgx":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
