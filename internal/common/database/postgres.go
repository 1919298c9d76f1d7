// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"matching-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient owns the connection pool for population snapshots and run
// results. The store package takes the raw *sql.DB; this wrapper exists for
// lifecycle and health checks.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the pool. sql.Open does not dial, so callers must Ping
// before treating the connection as usable.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping verifies the connection is live. Also backs the /ready endpoint.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// Exec runs a statement that returns no rows.
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}

// GetDB exposes the pool for the store layer.
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
