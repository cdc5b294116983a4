// Package scheduler triggers the feed generation task on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/feedhq/feedmanager/internal/task"
)

// Scheduler invokes the task runner once per tick. At most one run is in
// flight; a tick arriving while the previous run is still active is skipped.
type Scheduler struct {
	interval time.Duration
	runner   *task.Runner
	log      *slog.Logger
	active   atomic.Bool
}

// New creates a scheduler.
func New(interval time.Duration, runner *task.Runner, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		runner:   runner,
		log:      log,
	}
}

// Start runs the scheduler loop until the context is cancelled. The first run
// fires immediately so a fresh deployment serves feeds without waiting a full
// interval.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	go s.trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go s.trigger(ctx)
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	if !s.active.CompareAndSwap(false, true) {
		s.log.Warn("Skipping scheduled run, previous run still active")
		return
	}
	defer s.active.Store(false)

	env := s.runner.Run(ctx)
	s.log.Info("Scheduled run finished", "status_code", env.StatusCode)
}
