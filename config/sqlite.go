package config

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// NewSQLite opens the on-device store. A single connection keeps writers
// from contending for the file lock.
func NewSQLite(ctx context.Context, cfg *Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(cfg.SQLitePath))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return db, nil
}

// NewDatabase opens the store selected by DB_DRIVER.
func NewDatabase(ctx context.Context, cfg *Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case "postgres":
		return NewPostgres(ctx, cfg)
	case "sqlite":
		return NewSQLite(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
