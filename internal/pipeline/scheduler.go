package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/beach-status-etl/internal/observability"
)

// Runner executes one pipeline pass.
type Runner interface {
	RunOnce(ctx context.Context) (RunResult, error)
}

// Scheduler runs the pipeline immediately and then on a fixed interval,
// retrying failed runs with exponential backoff capped at the interval.
type Scheduler struct {
	runner       Runner
	interval     time.Duration
	retryInitial time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewScheduler creates a Scheduler. A nil clock uses real time.
func NewScheduler(runner Runner, interval, retryInitial time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if retryInitial <= 0 || retryInitial > interval {
		retryInitial = interval
	}
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		retryInitial: retryInitial,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "retry_initial", s.retryInitial)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	backoff := s.retryInitial
	for {
		wait := s.interval
		if _, err := s.runner.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("scheduler stopping", "reason", ctx.Err())
				return nil
			}
			wait = backoff
			backoff = retry.NextBackoff(backoff, s.interval)
			s.logger.Warn("run failed, retrying", "error", err, "retry_in", wait)
		} else {
			backoff = s.retryInitial
		}

		if !sleepWithClock(ctx, s.clock, wait) {
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// sleepWithClock is retry.SleepWithContext on an injectable clock.
func sleepWithClock(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
