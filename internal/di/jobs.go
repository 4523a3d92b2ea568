package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/scheduler"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
)

// Maintenance schedules (cron with seconds)
const (
	SessionCleanupSchedule    = "0 0 * * * *"  // hourly
	ClientDataCleanupSchedule = "0 30 3 * * *" // daily at 03:30
)

// RegisterJobs creates the scheduler and its maintenance jobs. The scheduler
// is not started.
func RegisterJobs(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log, scheduler.DefaultJobTimeout)

	if err := sched.AddJob(SessionCleanupSchedule, session.NewCleanupJob(container.SessionStore, log)); err != nil {
		return fmt.Errorf("failed to register session cleanup job: %w", err)
	}
	if err := sched.AddJob(ClientDataCleanupSchedule, clientdata.NewCleanupJob(container.ClientDataRepo, log)); err != nil {
		return fmt.Errorf("failed to register client data cleanup job: %w", err)
	}

	container.Scheduler = sched
	return nil
}
