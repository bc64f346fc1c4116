package db

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// NewPool opens a pool and pings it once.
func NewPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)

	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 5

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)

	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)

	if err != nil {
		return nil, err
	}

	err = pool.Ping(ctx)

	if err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Connect keeps calling NewPool until it succeeds or attempts run out.
func Connect(ctx context.Context, dbURL string, attempts int, delay time.Duration, log *slog.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := Retry(ctx, attempts, delay, log, func(ctx context.Context) error {
		p, err := NewPool(ctx, dbURL)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}

// Retry runs fn up to attempts times with a fixed delay between tries.
func Retry(ctx context.Context, attempts int, delay time.Duration, log *slog.Logger, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if i == attempts {
			break
		}

		log.WarnContext(ctx, "database not ready, retrying", "attempt", i, "of", attempts, "delay", delay.String(), "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}

// Migrate creates any missing tables. The schema is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
