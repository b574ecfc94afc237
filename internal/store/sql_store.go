package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// SQLStore is a KV backed by a single kv_entries table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to driver (sqlite, postgres or mysql) and ensures the schema
// exists.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	s, err := openWithDialect(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return s, nil
}

func openWithDialect(dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := dialect.Configure(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	if _, err := db.Exec(dialect.Schema()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT entry_value FROM kv_entries WHERE entry_key = ?"), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		s.dialect.Rebind(s.dialect.UpsertQuery()),
		key, value, time.Now().UnixMilli(),
	)
	return err
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		s.dialect.Rebind("DELETE FROM kv_entries WHERE entry_key = ?"), key,
	)
	return err
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if prefix == "" {
		rows, err = s.db.QueryContext(ctx, "SELECT entry_key FROM kv_entries ORDER BY entry_key")
	} else {
		// SUBSTR avoids LIKE escaping rules, which differ per database.
		rows, err = s.db.QueryContext(ctx,
			s.dialect.Rebind("SELECT entry_key FROM kv_entries WHERE SUBSTR(entry_key, 1, ?) = ? ORDER BY entry_key"),
			utf8.RuneCountInString(prefix), prefix,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
