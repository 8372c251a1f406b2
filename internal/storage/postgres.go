// Package storage provides PostgreSQL persistence for links and counters.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jonesrussell/hn-links/internal/config"
)

const (
	// defaultMaxOpenConns is the maximum number of open connections.
	defaultMaxOpenConns = 25
	// defaultMaxIdleConns is the maximum number of idle connections.
	defaultMaxIdleConns = 5
	// defaultConnMaxLifetime is the maximum connection lifetime.
	defaultConnMaxLifetime = 5 * time.Minute
	// defaultPingTimeout is the timeout for the startup ping.
	defaultPingTimeout = 5 * time.Second
)

// migrationsPath is the relative path to the migrations directory.
const migrationsPath = "file://migrations"

// NewPostgresConnection creates a new PostgreSQL database connection pool.
func NewPostgresConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return db, nil
}

// Migrate applies all pending schema migrations. It runs once during
// startup, before the server accepts traffic.
func Migrate(cfg config.DatabaseConfig) error {
	m, err := migrate.New(migrationsPath, cfg.URL())
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if upErr := m.Up(); upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	return nil
}
