package clientdata

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
)

// Expirer deletes expired rows and reports deletions per table.
type Expirer interface {
	DeleteAllExpired(ctx context.Context) (map[string]int64, error)
}

// CleanupJob evicts stale collaborator responses from client_data.db.
type CleanupJob struct {
	cache Expirer
	log   zerolog.Logger
}

// NewCleanupJob creates the daily cache eviction.
func NewCleanupJob(cache Expirer, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{cache: cache, log: log.With().Str("job", "client_data_cleanup").Logger()}
}

// Name implements scheduler.Job.
func (j *CleanupJob) Name() string { return "client_data_cleanup" }

// Run implements scheduler.Job. A partial result is still logged when one
// table fails.
func (j *CleanupJob) Run(ctx context.Context) error {
	deleted, err := j.cache.DeleteAllExpired(ctx)

	tables := make([]string, 0, len(deleted))
	for table := range deleted {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	var total int64
	ev := j.log.Info()
	for _, table := range tables {
		if n := deleted[table]; n > 0 {
			ev = ev.Int64(table, n)
			total += n
		}
	}
	if total > 0 {
		ev.Int64("total", total).Msg("Expired cache entries evicted")
	} else {
		ev.Discard()
	}

	return err
}
