// Package scheduler runs refresh cycles on a fixed interval with support
// for out-of-band triggers.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/fuelwatch/fuelwatch/internal/models"
)

// Refresher is the coordinator surface the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) (*models.Summary, error)
}

// Scheduler runs an immediate refresh on start and then one per interval.
// Trigger requests collapse into at most one pending extra run.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	clock     clockwork.Clock
	logger    zerolog.Logger
	trigger   chan struct{}

	mu        sync.Mutex
	running   bool
	nextRunAt time.Time
	lastRunAt time.Time
}

// New creates a Scheduler.
func New(refresher Refresher, interval time.Duration, clock clockwork.Clock, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		clock:     clock,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		trigger:   make(chan struct{}, 1),
	}
}

// Start blocks until the context is cancelled, running refresh cycles. The
// first cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.setRunning(true)
	defer s.setRunning(false)

	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")
	s.run(ctx)

	for {
		timer := s.clock.NewTimer(s.interval)
		s.setNextRun(s.clock.Now().Add(s.interval))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-timer.Chan():
			s.run(ctx)
		case <-s.trigger:
			timer.Stop()
			s.logger.Info().Msg("running triggered refresh")
			s.run(ctx)
		}
	}
}

// Trigger requests an immediate refresh. It never blocks; a trigger that
// arrives while one is already pending is dropped.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// NextRefreshAt returns the scheduled time of the next interval run, or nil
// when the scheduler is not running.
func (s *Scheduler) NextRefreshAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.nextRunAt.IsZero() {
		return nil
	}
	t := s.nextRunAt
	return &t
}

// LastRefreshAt returns the start time of the most recent run, or nil before
// the first run.
func (s *Scheduler) LastRefreshAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRunAt.IsZero() {
		return nil
	}
	t := s.lastRunAt
	return &t
}

// IsRunning reports whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	s.mu.Lock()
	s.lastRunAt = s.clock.Now()
	s.mu.Unlock()

	if _, err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Error().Err(err).Msg("refresh failed")
	}
}

func (s *Scheduler) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
	if !running {
		s.nextRunAt = time.Time{}
	}
}

func (s *Scheduler) setNextRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunAt = t
}
