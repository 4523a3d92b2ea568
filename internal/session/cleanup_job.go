package session

import (
	"context"

	"github.com/rs/zerolog"
)

// CleanupJob purges sessions whose sliding expiry has passed.
type CleanupJob struct {
	store *Store
	log   zerolog.Logger
}

// NewCleanupJob creates the hourly session purge.
func NewCleanupJob(store *Store, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{store: store, log: log.With().Str("job", "session_cleanup").Logger()}
}

// Name implements scheduler.Job.
func (j *CleanupJob) Name() string { return "session_cleanup" }

// Run implements scheduler.Job.
func (j *CleanupJob) Run(ctx context.Context) error {
	deleted, err := j.store.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Expired sessions removed")
	}
	return nil
}
