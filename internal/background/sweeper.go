package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/hputnam/tutordesk/internal/guard"
	"github.com/hputnam/tutordesk/internal/repositories"
)

// Sweeper periodically evicts idle failure counters and removes login
// attempt rows past their retention deadline. Locks are not touched here;
// lock expiry is reconciled inline on the next login or status check.
type Sweeper struct {
	counters    *guard.MemoryCounterStore
	attemptRepo *repositories.LoginAttemptRepository
	logger      *slog.Logger
	interval    time.Duration
	maxIdle     time.Duration
	stopCh      chan struct{}
}

// NewSweeper creates a new sweeper. maxIdle is how long a failure counter may
// sit untouched before it is dropped.
func NewSweeper(
	counters *guard.MemoryCounterStore,
	attemptRepo *repositories.LoginAttemptRepository,
	logger *slog.Logger,
	interval time.Duration,
	maxIdle time.Duration,
) *Sweeper {
	return &Sweeper{
		counters:    counters,
		attemptRepo: attemptRepo,
		logger:      logger,
		interval:    interval,
		maxIdle:     maxIdle,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic sweep task
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on startup
	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopCh:
			s.logger.Info("sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("sweeper context cancelled")
			return
		}
	}
}

func (s *Sweeper) runSweep(ctx context.Context) {
	evicted := s.counters.Sweep(s.maxIdle)
	if evicted > 0 {
		s.logger.Info("idle failure counters evicted",
			slog.Int("evicted", evicted),
			slog.Int("remaining", s.counters.Len()))
	}

	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := s.attemptRepo.DeleteExpiredAttempts(sweepCtx)
	if err != nil {
		s.logger.Error("failed to delete expired login attempts", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		s.logger.Info("expired login attempts removed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	close(s.stopCh)
}
