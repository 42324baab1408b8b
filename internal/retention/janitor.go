package retention

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Janitor runs the retention sweep on a cron schedule so stale files are
// pruned even when no generation requests arrive.
type Janitor struct {
	schedule string
	targets  []Target
	cron     *cron.Cron
}

func NewJanitor(schedule string, targets ...Target) *Janitor {
	return &Janitor{
		schedule: schedule,
		targets:  targets,
		cron:     cron.New(),
	}
}

// Start registers the sweep and starts the scheduler. An empty schedule
// leaves the janitor disabled.
func (j *Janitor) Start() error {
	if j.schedule == "" {
		slog.Info("retention janitor disabled")
		return nil
	}

	if _, err := j.cron.AddFunc(j.schedule, j.RunOnce); err != nil {
		return fmt.Errorf("failed to add retention job: %w", err)
	}

	j.cron.Start()
	slog.Info("retention janitor started", "schedule", j.schedule, "targets", len(j.targets))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron == nil || j.schedule == "" {
		return
	}
	<-j.cron.Stop().Done()
	slog.Info("retention janitor stopped")
}

// RunOnce sweeps every target immediately.
func (j *Janitor) RunOnce() {
	SweepTargets(j.targets...)
}
