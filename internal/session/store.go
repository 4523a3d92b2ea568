// Package session keeps per-visitor navigation state in SQLite.
//
// Each session row holds a msgpack-encoded map of named values. Modules own
// their keys (the profile module stores the preference record, the portfolio
// module stores the last recommendation) so this package never imports them.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/database"
)

// Session keys owned by the navigator modules.
const (
	KeyProfile        = "profile"
	KeyRecommendation = "recommendation"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrKeyNotFound is returned when the session has no value under a key.
	ErrKeyNotFound = errors.New("session key not found")
)

type payload map[string]msgpack.RawMessage

// Store persists sessions with a sliding expiry.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
	log zerolog.Logger
}

// NewStore creates a session store over the sessions database.
func NewStore(db *sql.DB, ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		ttl: ttl,
		now: time.Now,
		log: log.With().Str("component", "session_store").Logger(),
	}
}

// TTL returns the sliding session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts an empty session and returns its id.
func (s *Store) Create(ctx context.Context) (string, error) {
	id := uuid.New().String()
	body, err := msgpack.Marshal(payload{})
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, payload, created_at, updated_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		id, body, now.Unix(), now.Unix(), now.Add(s.ttl).Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Debug().Str("session_id", id).Msg("Session created")
	return id, nil
}

// Touch extends a live session's expiry. It returns false for unknown or
// expired sessions.
func (s *Store) Touch(ctx context.Context, id string) (bool, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE id = ? AND expires_at > ?`,
		now.Add(s.ttl).Unix(), id, now.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}
	return n > 0, nil
}

// Get decodes the value stored under key into dst.
func (s *Store) Get(ctx context.Context, id, key string, dst interface{}) error {
	p, err := s.load(ctx, s.db, id)
	if err != nil {
		return err
	}

	raw, ok := p[key]
	if !ok {
		return ErrKeyNotFound
	}
	if err := msgpack.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode session value %s: %w", key, err)
	}
	return nil
}

// Put stores value under key, creating the session row if it is missing.
func (s *Store) Put(ctx context.Context, id, key string, value interface{}) error {
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session value %s: %w", key, err)
	}

	return s.update(ctx, id, func(p payload) {
		p[key] = raw
	})
}

// Remove deletes the values under keys. Missing keys are not errors.
func (s *Store) Remove(ctx context.Context, id string, keys ...string) error {
	return s.update(ctx, id, func(p payload) {
		for _, k := range keys {
			delete(p, k)
		}
	})
}

// Destroy deletes the session.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry has passed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// CountActive returns the number of unexpired sessions.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE expires_at > ?`, s.now().Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) load(ctx context.Context, q queryer, id string) (payload, error) {
	var body []byte
	err := q.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE id = ? AND expires_at > ?`, id, s.now().Unix(),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	p := payload{}
	if err := msgpack.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return p, nil
}

func (s *Store) update(ctx context.Context, id string, mutate func(payload)) error {
	var notFound bool
	err := database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		p, err := s.load(ctx, tx, id)
		if errors.Is(err, ErrSessionNotFound) {
			notFound = true
			p = payload{}
		} else if err != nil {
			return err
		}

		mutate(p)

		body, err := msgpack.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}

		now := s.now()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (id, payload, created_at, updated_at, expires_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at, expires_at = excluded.expires_at`,
			id, body, now.Unix(), now.Unix(), now.Add(s.ttl).Unix(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if notFound {
		s.log.Debug().Str("session_id", id).Msg("Session recreated on write")
	}
	return nil
}
