// Package postgres is the PostGIS-backed station and observation store.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Connect opens a pool and waits for the database to answer, retrying with
// exponential backoff while it starts up.
func Connect(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0

	var pool *pgxpool.Pool
	operation := func() error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create connection pool: %w", err))
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			logger.Warn("database not reachable, retrying", "error", err)
			return fmt.Errorf("ping database: %w", err)
		}
		pool = p
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, 8), ctx)); err != nil {
		return nil, err
	}
	return pool, nil
}

// Store reads and writes stations and observations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates missing tables, indexes and observation columns.
// It is safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("ALTER TABLE synop_observation")
	for i, name := range domain.ParameterNames() {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n    ADD COLUMN IF NOT EXISTS %s DOUBLE PRECISION", pgx.Identifier{name}.Sanitize())
	}
	if _, err := s.pool.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("add observation columns: %w", err)
	}
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
