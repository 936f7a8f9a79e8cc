package reconcile

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultInterval = time.Minute
	DefaultGrace    = 15 * time.Minute
	batchSize       = 500
)

type OrphanStore interface {
	ListOrphaned(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	MarkFailed(ctx context.Context, ids []string) (int64, error)
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// Sweeper marks pending orders that never got a payment row as failed once
// they are older than the grace period.
type Sweeper struct {
	store    OrphanStore
	interval time.Duration
	grace    time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewSweeper(store OrphanStore, interval, grace time.Duration, logger *slog.Logger, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	s := &Sweeper{
		store:    store,
		interval: interval,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("reconciliation sweep started", "interval", s.interval, "grace", s.grace)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.logger.Info("reconciliation sweep stopped")
			return
		}
	}
}

// Sweep runs one pass and returns how many orders were marked failed.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.grace)

	ids, err := s.store.ListOrphaned(ctx, cutoff, batchSize)
	if err != nil {
		s.logger.Error("failed to list orphaned orders", "error", err)
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	marked, err := s.store.MarkFailed(ctx, ids)
	if err != nil {
		s.logger.Error("failed to mark orphaned orders", "error", err, "count", len(ids))
		return 0
	}

	// A payment may land between the list and the update; those rows are skipped.
	s.logger.Info("orphaned orders marked failed", "found", len(ids), "marked", marked, "cutoff", cutoff)
	return marked
}
