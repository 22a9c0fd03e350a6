// Package tasks registers the periodic maintenance tasks.
package tasks

import (
	"context"

	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/scheduler"
)

const AlertReconcileTaskID = "alerts-reconcile"

// Reconciler brings persisted alert jobs and shows back in line.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// RegisterAlertReconcileTask registers the alert reconcile task with the scheduler.
// It schedules shows that were stored without an alert job, for example by the
// CLI, and arms jobs persisted by another process.
func RegisterAlertReconcileTask(sched *scheduler.Scheduler, reconciler Reconciler, cfg config.SchedulerConfig) error {
	cron := cfg.ReconcileCron
	if cron == "" {
		cron = "0 * * * *"
	}
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          AlertReconcileTaskID,
		Name:        "Alert Reconcile",
		Description: "Creates missing weekly alert jobs and arms persisted ones",
		Cron:        cron,
		RunOnStart:  true,
		Func:        reconciler.Reconcile,
	})
}
