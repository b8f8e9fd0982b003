/**
 * @description
 * Cron scheduler setup for the reminder tick.
 */
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the reminder orchestrator on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	orch     *Orchestrator
	logger   *slog.Logger
	schedule string
}

// NewScheduler creates a scheduler for the given cron expression.
func NewScheduler(orch *Orchestrator, logger *slog.Logger, schedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		orch:     orch,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the reminder job and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.runReminderTick); err != nil {
		s.logger.Error("failed to schedule reminder job", "error", err, "schedule", s.schedule)
		return
	}
	s.logger.Info("scheduled reminder job", "schedule", s.schedule)
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler and returns a context that is
// done once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runReminderTick() {
	_, err := s.orch.RunTick(context.Background())
	if errors.Is(err, ErrTickInProgress) {
		s.logger.Warn("previous reminder tick still running, skipping this tick")
		return
	}
	if err != nil {
		s.logger.Error("reminder tick returned error", "error", err)
	}
}
