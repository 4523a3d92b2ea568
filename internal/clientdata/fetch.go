package clientdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Cached returns the fresh row under table/key when there is one. Otherwise
// it calls fetch and stores the result; if fetch fails, an expired row is
// served in its place. A nil repo disables caching.
func Cached[T any](
	ctx context.Context,
	repo *Repository,
	log zerolog.Logger,
	table, key string,
	ttl time.Duration,
	fetch func(ctx context.Context) (T, error),
) (T, error) {
	var (
		zero  T
		entry *Entry
	)

	if repo != nil {
		var err error
		if entry, err = repo.Lookup(ctx, table, key); err != nil {
			log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Cache read failed")
		}
		if entry != nil && entry.FreshAt(repo.now()) {
			var cached T
			if err := json.Unmarshal(entry.Data, &cached); err == nil {
				return cached, nil
			}
			log.Warn().Str("table", table).Str("key", key).Msg("Discarding unreadable cache entry")
			entry = nil
		}
	}

	value, fetchErr := fetch(ctx)
	if fetchErr == nil {
		if repo != nil {
			if err := repo.Put(ctx, table, key, value, ttl); err != nil {
				log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache response")
			}
		}
		return value, nil
	}

	if entry != nil {
		var stale T
		if err := json.Unmarshal(entry.Data, &stale); err == nil {
			log.Warn().Err(fetchErr).Str("table", table).Str("key", key).
				Time("expired_at", entry.ExpiresAt).Msg("Serving stale cached data")
			return stale, nil
		}
	}

	return zero, fetchErr
}
