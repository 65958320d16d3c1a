// Package infrastructure provides database and connection pool setup.
//
// A single pgxpool.Pool backs internal/store, internal/audit, and (when
// wired) internal/outbox's River client, so a transaction started against
// the pool spans all three.
package infrastructure

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"

	"ringi.sh/ringi/internal/config"
	"ringi.sh/ringi/internal/pkg/logger"
)

// DatabaseClients holds the shared connection pool and the River client
// built on top of it.
type DatabaseClients struct {
	// Pool is the shared connection pool for store, audit, and the outbox.
	Pool *pgxpool.Pool

	// RiverClient is the River job queue client backed by Pool. Only set
	// once InitRiverClient has run; nil when the in-process eventbus is
	// the configured EventBus.
	RiverClient *river.Client[pgx.Tx]
}

// NewDatabaseClients opens the shared pgxpool connection pool.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	dsn := cfg.DSN()

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool created",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)

	return &DatabaseClients{Pool: pool}, nil
}

// AutoMigrate applies migrations/0001_init.sql and, when riverEnabled,
// River's own queue tables. Only use in development; production should run
// migrations out of band.
func (c *DatabaseClients) AutoMigrate(ctx context.Context, migrationPath string, riverEnabled bool) error {
	logger.Info("running schema migration", zap.String("path", migrationPath))
	sqlBytes, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := c.Pool.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	logger.Info("schema migration completed")

	if !riverEnabled {
		return nil
	}

	logger.Info("running River migration...")
	migrator, err := rivermigrate.New(riverpgxv5.New(c.Pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("river migrate up: %w", err)
	}
	if len(res.Versions) > 0 {
		logger.Info("River migration completed", zap.Int("versions_applied", len(res.Versions)))
	} else {
		logger.Info("River migration: already up-to-date")
	}
	return nil
}

// InitRiverClient creates a River client with registered workers. Called
// after NewDatabaseClients only when the outbox EventBus is selected.
func (c *DatabaseClients) InitRiverClient(workers *river.Workers, cfg config.RiverConfig) error {
	riverClient, err := river.NewClient(riverpgxv5.New(c.Pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:                     workers,
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	c.RiverClient = riverClient
	logger.Info("River client initialized", zap.Int("max_workers", cfg.MaxWorkers))
	return nil
}

// Close closes the connection pool gracefully.
func (c *DatabaseClients) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
