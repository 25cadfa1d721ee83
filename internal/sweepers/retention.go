// Package sweepers contains the periodic maintenance loops of the service.
package sweepers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/skuwatch/metrics-service/internal/database"
)

// RetentionSweeper periodically prunes snapshots older than the retention
// window. Trend queries cap out at 365 days, so anything past the window is
// dead weight in the hot table.
type RetentionSweeper struct {
	pool      *pgxpool.Pool
	logger    *zerolog.Logger
	interval  time.Duration
	retention time.Duration
	stopChan  chan struct{}
}

// NewRetentionSweeper creates a sweeper that runs every interval and keeps
// snapshots within the retention duration.
func NewRetentionSweeper(pool *pgxpool.Pool, logger *zerolog.Logger, interval, retention time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		pool:      pool,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the periodic retention sweep
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("retention", s.retention).
		Msg("Starting snapshot retention sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Retention sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Retention sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.PruneExpiredSnapshots(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to prune expired snapshots")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *RetentionSweeper) Stop() {
	close(s.stopChan)
}

// PruneExpiredSnapshots deletes snapshots older than the retention window.
func (s *RetentionSweeper) PruneExpiredSnapshots(ctx context.Context) error {
	s.logger.Debug().Msg("Running snapshot retention sweep")

	cutoff := time.Now().UTC().Add(-s.retention)
	removed, err := database.DeleteSnapshotsBefore(ctx, s.pool, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		s.logger.Info().
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("Pruned expired snapshots")
	}

	return nil
}
