package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mininotion/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/xo/dburl"
)

var retryDelay = 2 * time.Second

// Connect opens the PostgreSQL database named by rawURL and pings it, retrying
// a few times in case of temporary DNS/network blips.
func Connect(ctx context.Context, rawURL string, retries int) (*sql.DB, error) {
	dbURL, err := dburl.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse database url: %w", err)
	}
	if dbURL.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", dbURL.Driver)
	}

	db, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	for i := 0; i < retries; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Infof("Successfully connected to the database at %s", dbURL.Redacted())
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", retryDelay, err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", retries, err)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS documents_owner_idx ON documents (owner_id, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS document_shares (
		document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		can_edit BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (document_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS document_shares_user_idx ON document_shares (user_id)`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
