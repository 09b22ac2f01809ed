package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/sweep"
	"github.com/robfig/cron/v3"
)

// Sweeper is the part of the sweep service the scheduler drives.
type Sweeper interface {
	RunOverdue(ctx context.Context) (sweep.Summary, error)
	RunReminders(ctx context.Context) (sweep.Summary, error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper

	overdueSpec  string
	reminderSpec string
}

func New(sweeper Sweeper, overdueSpec, reminderSpec string, location *time.Location) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	c := cron.New(cron.WithLocation(location), cron.WithLogger(cron.DiscardLogger))

	return &Scheduler{
		cron:         c,
		sweeper:      sweeper,
		overdueSpec:  overdueSpec,
		reminderSpec: reminderSpec,
	}
}

// Start registers the daily sweeps and starts the cron loop. Invalid
// expressions are reported before anything runs.
func (s *Scheduler) Start() error {
	slog.Info("Starting cron scheduler", "overdue", s.overdueSpec, "reminders", s.reminderSpec)

	if _, err := s.cron.AddFunc(s.overdueSpec, s.runOverdue); err != nil {
		return fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(s.reminderSpec, s.runReminders); err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	slog.Info("Stopping cron scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) runOverdue() {
	s.run("overdue", s.sweeper.RunOverdue)
}

func (s *Scheduler) runReminders() {
	s.run("reminders", s.sweeper.RunReminders)
}

func (s *Scheduler) run(job string, fn func(context.Context) (sweep.Summary, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary, err := fn(ctx)
	if err != nil {
		slog.Error("Scheduled sweep failed", "job", job, "error", err)
		return
	}
	slog.Info("Scheduled sweep completed", "job", job, "message", summary.Message, "errors", summary.Errors)
}

// RunNow triggers both sweeps immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.runOverdue()
	s.runReminders()
}
