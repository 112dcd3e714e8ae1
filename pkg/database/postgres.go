package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of pgxpool.Pool used by repositories. It is satisfied by
// both *pgxpool.Pool and the pgxmock pool, so repositories stay testable
// without a live database.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// DefaultPostgresConfig returns sensible defaults for the connection pool.
func DefaultPostgresConfig(url string) PostgresConfig {
	return PostgresConfig{
		URL:      url,
		MaxConns: 25,
		MinConns: 2,
	}
}

// NewPostgresPool creates a new connection pool and verifies connectivity.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}
