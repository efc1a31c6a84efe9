package valet

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/harborview/valetops-backend/internal/clock"
)

// Scheduler is the single timer service for the coordinator's background
// work: the promotion scan and the day-boundary sweep both hang off one
// ticker. Each job guards against overlapping its own previous run; a tick
// that arrives while the job is still going is skipped, not queued.
type Scheduler struct {
	coord    *Coordinator
	interval time.Duration
	logger   *slog.Logger
	clock    clock.Clock

	promoting atomic.Bool
	sweeping  atomic.Bool

	// lastSweepDay is the YYYY-MM-DD of the last completed sweep; a tick on
	// a different day triggers the next one, so a sweep missed at midnight
	// (process down, laptop asleep) still runs on the next tick.
	lastSweepDay string
}

func NewScheduler(coord *Coordinator, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		coord:    coord,
		interval: interval,
		logger:   logger,
		clock:    coord.clock,
		// sweep only after the first observed day boundary
		lastSweepDay: coord.clock.Now().Format("2006-01-02"),
	}
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduler pass. Exposed so tests can drive the scheduler
// with a fake clock instead of waiting on the ticker.
func (s *Scheduler) Tick(ctx context.Context) {
	s.runPromotions(ctx)
	s.runSweepIfNewDay(ctx)
}

func (s *Scheduler) runPromotions(ctx context.Context) {
	if !s.promoting.CompareAndSwap(false, true) {
		return
	}
	defer s.promoting.Store(false)

	if _, err := s.coord.PromoteDue(ctx); err != nil {
		s.logger.ErrorContext(ctx, "promotion scan failed", "error", err)
	}
}

func (s *Scheduler) runSweepIfNewDay(ctx context.Context) {
	day := s.clock.Now().Format("2006-01-02")
	if day == s.lastSweepDay {
		return
	}
	if !s.sweeping.CompareAndSwap(false, true) {
		return
	}
	defer s.sweeping.Store(false)

	if err := s.coord.SweepDayBoundary(ctx); err != nil {
		s.logger.ErrorContext(ctx, "day-boundary sweep failed", "error", err)
		return
	}
	s.lastSweepDay = day
}
