package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const (
	// ApplicationName tags the bot's sessions in pg_stat_activity
	ApplicationName = "wagerbot"

	// Every store save is one short transaction, so a handful of connections is plenty
	maxPoolConns = 4
	pingTimeout  = 5 * time.Second
)

// DB wraps the pool shared by both Postgres stores
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens the pool and checks that the database answers
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(log.Fields{
		"host":      config.ConnConfig.Host,
		"database":  config.ConnConfig.Database,
		"max_conns": config.MaxConns,
	}).Debug("Database pool ready")

	return &DB{Pool: pool}, nil
}

// poolConfig parses the URL and applies the bot's session settings.
// Settings already present in the URL win.
func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	params := config.ConnConfig.RuntimeParams
	if _, ok := params["timezone"]; !ok {
		params["timezone"] = "UTC"
	}
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = ApplicationName
	}
	if config.MaxConns > maxPoolConns {
		config.MaxConns = maxPoolConns
	}
	return config, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}
