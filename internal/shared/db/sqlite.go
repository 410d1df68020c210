package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a file-backed (or ":memory:") SQLite database through the pure-Go driver.
// A single connection is kept so in-memory databases are not split across connections.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	return open(ctx, "sqlite", path, time.Second, func(db *sql.DB) {
		db.SetMaxOpenConns(1)
	})
}

func open(ctx context.Context, driver, dsn string, pingTimeout time.Duration, tune func(*sql.DB)) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	tune(db)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}
