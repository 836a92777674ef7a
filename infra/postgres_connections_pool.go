package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const DEFAULT_MAX_CONNECTIONS = 20

func NewPostgresConnectionPool(ctx context.Context, config PgConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(config.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	maxConns := config.MaxPoolConnections
	if maxConns <= 0 {
		maxConns = DEFAULT_MAX_CONNECTIONS
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return pool, nil
}
