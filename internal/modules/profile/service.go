package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
)

// ErrNoProfile is returned when the session has no preference record yet.
var ErrNoProfile = errors.New("no profile submitted")

// SessionStore is the subset of the session store used by the service.
type SessionStore interface {
	Get(ctx context.Context, id, key string, dst interface{}) error
	Put(ctx context.Context, id, key string, value interface{}) error
	Remove(ctx context.Context, id string, keys ...string) error
}

// Service manages the preference record of a session.
type Service struct {
	store SessionStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewService creates a profile service.
func NewService(store SessionStore, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		log:   log.With().Str("service", "profile").Logger(),
	}
}

// Submit validates pref and stores it for the session. Any cached
// recommendation is discarded since it was computed for the old preferences.
func (s *Service) Submit(ctx context.Context, sessionID string, pref Preference) (*Preference, error) {
	if err := Validate(&pref); err != nil {
		s.log.Debug().Err(err).Str("session_id", sessionID).Msg("Rejected profile submission")
		return nil, err
	}
	pref.UpdatedAt = s.now().UTC()

	if err := s.store.Put(ctx, sessionID, session.KeyProfile, pref); err != nil {
		return nil, fmt.Errorf("failed to store profile: %w", err)
	}
	if err := s.store.Remove(ctx, sessionID, session.KeyRecommendation); err != nil {
		return nil, fmt.Errorf("failed to reset recommendation: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("risk_tolerance", string(pref.RiskTolerance)).
		Strs("excluded_sectors", pref.ExcludedSectors).
		Strs("preferred_sectors", pref.PreferredSectors).
		Msg("Profile saved")

	return &pref, nil
}

// Get returns the session's preference record or ErrNoProfile.
func (s *Service) Get(ctx context.Context, sessionID string) (*Preference, error) {
	var pref Preference
	err := s.store.Get(ctx, sessionID, session.KeyProfile, &pref)
	if errors.Is(err, session.ErrKeyNotFound) || errors.Is(err, session.ErrSessionNotFound) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &pref, nil
}

// Clear removes the preference record and anything derived from it.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Remove(ctx, sessionID, session.KeyProfile, session.KeyRecommendation); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	s.log.Info().Str("session_id", sessionID).Msg("Profile cleared")
	return nil
}
