// Package repository stores game snapshots in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/magefree/mage-rules-go/internal/config"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by NewDB when no database URL is set.
var ErrNotConfigured = errors.New("database not configured")

// DB wraps the connection pool.
type DB struct {
	*pgxpool.Pool
	logger *zap.Logger
}

// NewDB connects to the database and verifies the connection.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return &DB{Pool: pool, logger: logger}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	game_id   TEXT        NOT NULL,
	turn      INTEGER     NOT NULL,
	version   INTEGER     NOT NULL,
	checksum  TEXT        NOT NULL,
	payload   BYTEA       NOT NULL,
	taken_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, turn)
)`

// EnsureSchema creates the snapshot table if it is missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}
