// Package reaper closes execution records abandoned by crashed or
// disconnected agents.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agentdash/agentdash/pkg/services"
)

const defaultSchedule = "@every 5m"

// Reaper periodically marks executions stuck in running state as failed.
type Reaper struct {
	executions *services.Execution
	logger     *slog.Logger
	maxAge     time.Duration
	schedule   string
	cron       *cron.Cron
}

// New creates a reaper failing executions running longer than maxAge. An
// empty schedule uses the default five minute interval.
func New(executions *services.Execution, logger *slog.Logger, maxAge time.Duration, schedule string) *Reaper {
	if schedule == "" {
		schedule = defaultSchedule
	}

	return &Reaper{
		executions: executions,
		logger:     logger.With("module", "reaper"),
		maxAge:     maxAge,
		schedule:   schedule,
	}
}

// Start schedules the reaper. It returns immediately; sweeps run on the
// cron schedule until Stop is called.
func (r *Reaper) Start(ctx context.Context) error {
	r.cron = cron.New()

	_, err := r.cron.AddFunc(r.schedule, func() {
		r.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	r.logger.InfoContext(ctx, "Execution reaper started",
		"schedule", r.schedule, "max_age", r.maxAge)

	return nil
}

// Sweep runs a single pass, closing executions older than the cutoff.
func (r *Reaper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.maxAge)

	closed, err := r.executions.FailStale(ctx, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "Reaper sweep failed", "error", err)

		return
	}

	if closed > 0 {
		r.logger.InfoContext(ctx, "Closed stale executions", "count", closed)
	}
}

// Stop halts scheduled sweeps, waiting for a running sweep to finish.
func (r *Reaper) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}
