package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool     *pgxpool.Pool
	poolMu   sync.RWMutex
	poolOnce sync.Once
)

// Connect creates the database connection pool (safe for concurrent use).
func Connect(ctx context.Context, connString string, maxConns, minConns int, maxLifetime, maxIdleTime time.Duration) error {
	var initErr error
	poolOnce.Do(func() {
		cfg, err := pgxpool.ParseConfig(connString)
		if err != nil {
			initErr = fmt.Errorf("error parsing database config: %w", err)
			return
		}

		cfg.MaxConns = int32(maxConns)
		cfg.MinConns = int32(minConns)
		cfg.MaxConnLifetime = maxLifetime
		cfg.MaxConnIdleTime = maxIdleTime
		cfg.HealthCheckPeriod = 1 * time.Minute

		newPool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			initErr = fmt.Errorf("error creating connection pool: %w", err)
			return
		}

		if err := newPool.Ping(ctx); err != nil {
			newPool.Close()
			initErr = fmt.Errorf("error connecting to database: %w", err)
			return
		}

		poolMu.Lock()
		pool = newPool
		poolMu.Unlock()
	})

	if initErr != nil {
		poolOnce = sync.Once{} // reset on failure
		return initErr
	}
	return nil
}

// Close closes the database connection pool.
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
	poolOnce = sync.Once{} // reset to allow reconnection
}

// Pool returns the connection pool.
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// Status pings the database.
func Status(ctx context.Context) error {
	poolMu.RLock()
	p := pool
	poolMu.RUnlock()

	if p == nil {
		return fmt.Errorf("database not initialized")
	}
	return p.Ping(ctx)
}
