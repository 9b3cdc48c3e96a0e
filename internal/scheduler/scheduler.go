// Package scheduler runs periodic jobs on a cron trigger.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRunTimeout bounds a single job execution.
const DefaultRunTimeout = time.Minute

// Job is a unit of periodic work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner and executes registered jobs with a
// per-run timeout. A job that is still running when its next trigger
// fires is skipped, not stacked.
type Scheduler struct {
	cron       *cron.Cron
	runTimeout time.Duration
	logger     *slog.Logger
}

// New creates a Scheduler. A non-positive runTimeout falls back to
// DefaultRunTimeout.
func New(runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:       cron.New(),
		runTimeout: runTimeout,
		logger:     logger.With(slog.String("component", "scheduler")),
	}
}

// Register adds a job under the given cron spec. Specs use the standard
// 5-field format or descriptors such as "@every 5m"; note that cron
// rounds "@every" delays below one second up to a second.
func (s *Scheduler) Register(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("failed to register job %q with spec %q: %w", name, spec, err)
	}

	s.logger.Info("job registered",
		slog.String("job", name),
		slog.String("spec", spec))
	return nil
}

// wrap builds the trigger function for a job: one run at a time (a run
// still in progress when the next trigger fires is skipped, not stacked),
// each run bounded by the scheduler's timeout.
func (s *Scheduler) wrap(name string, job Job) func() {
	var running atomic.Bool

	return func() {
		if !running.CompareAndSwap(false, true) {
			s.logger.Warn("previous run still in progress, skipping",
				slog.String("job", name))
			return
		}
		defer running.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		started := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed",
				slog.String("job", name),
				slog.Duration("elapsed", time.Since(started)),
				slog.String("error", err.Error()))
			return
		}
		s.logger.Debug("scheduled job finished",
			slog.String("job", name),
			slog.Duration("elapsed", time.Since(started)))
	}
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the trigger and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
