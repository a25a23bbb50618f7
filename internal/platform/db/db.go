package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Open opens a database with the named driver ("pgx" or "sqlite") and
// verifies the connection. Drivers are registered by the caller.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: open %s database: %w", driver, err)
	}

	switch driver {
	case "sqlite":
		// One writer at a time; SQLite serializes writes anyway.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open db: verify %s connection: %w", driver, err)
	}

	return db, nil
}
