package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/universe"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
)

// ProfileGetter returns the preference record of a session.
type ProfileGetter interface {
	Get(ctx context.Context, sessionID string) (*profile.Preference, error)
}

// UniverseLoader supplies universe members for a query.
type UniverseLoader interface {
	Load(ctx context.Context, q universe.Query) (*universe.Result, error)
}

// SessionStore is the subset of the session store used to cache the
// recommendation.
type SessionStore interface {
	Get(ctx context.Context, id, key string, dst interface{}) error
	Put(ctx context.Context, id, key string, value interface{}) error
}

// View is everything the portfolio page shows.
type View struct {
	Preference     *profile.Preference `json:"preference"`
	Portfolio      *FilteredPortfolio  `json:"portfolio,omitempty"`
	Recommendation *Recommendation     `json:"recommendation,omitempty"`
	UniverseSource string              `json:"universe_source"`
	// Degraded is set when the universe came from the fallback source.
	Degraded bool `json:"degraded"`
	// RecommendationError explains a missing recommendation.
	RecommendationError string `json:"recommendation_error,omitempty"`
	// AnalyticsUnavailable is set when the frontier service failed.
	AnalyticsUnavailable bool `json:"analytics_unavailable"`
}

// Service builds portfolios for sessions.
type Service struct {
	profiles    ProfileGetter
	universe    UniverseLoader
	recommender *Recommender
	store       SessionStore
	log         zerolog.Logger
}

// NewService creates a portfolio service. recommender may be nil, in which
// case no recommendation is computed.
func NewService(profiles ProfileGetter, loader UniverseLoader, recommender *Recommender, store SessionStore, log zerolog.Logger) *Service {
	return &Service{
		profiles:    profiles,
		universe:    loader,
		recommender: recommender,
		store:       store,
		log:         log.With().Str("service", "portfolio").Logger(),
	}
}

// Build computes the filtered portfolio of the session's preference record
// and its recommendation. Returns profile.ErrNoProfile before a profile has
// been submitted and an *EmptyResultError, alongside a partial view, when
// nothing matches.
func (s *Service) Build(ctx context.Context, sessionID string) (*View, error) {
	pref, err := s.profiles.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := &View{Preference: pref}

	filtered, err := s.filter(ctx, pref, view)
	if err != nil {
		return view, err
	}
	view.Portfolio = filtered

	if s.recommender == nil {
		return view, nil
	}

	rec, err := s.recommendation(ctx, sessionID, pref, filtered)
	switch {
	case err == nil:
		view.Recommendation = rec
	case errors.Is(err, ErrAnalyticsUnavailable):
		s.log.Warn().Err(err).Msg("Frontier service unavailable")
		view.AnalyticsUnavailable = true
		view.RecommendationError = ErrAnalyticsUnavailable.Error()
	case errors.Is(err, ErrNoSuitablePortfolio):
		view.RecommendationError = err.Error()
	default:
		return view, err
	}
	return view, nil
}

func (s *Service) filter(ctx context.Context, pref *profile.Preference, view *View) (*FilteredPortfolio, error) {
	sectors := pref.ScreenSectors()
	if len(sectors) == 0 {
		return nil, &EmptyResultError{}
	}

	loaded, err := s.universe.Load(ctx, universe.Query{
		Sectors:          sectors,
		ControversyBelow: pref.Survey.ControversyLimit(),
	})
	if err != nil {
		return nil, err
	}
	view.UniverseSource = loaded.Source
	view.Degraded = loaded.Degraded

	return Filter(pref, loaded.Securities)
}

func (s *Service) recommendation(ctx context.Context, sessionID string, pref *profile.Preference, filtered *FilteredPortfolio) (*Recommendation, error) {
	var cached Recommendation
	err := s.store.Get(ctx, sessionID, session.KeyRecommendation, &cached)
	if err == nil && cached.ProfileUpdatedAt.Equal(pref.UpdatedAt) {
		return &cached, nil
	}
	if err != nil && !errors.Is(err, session.ErrKeyNotFound) && !errors.Is(err, session.ErrSessionNotFound) {
		s.log.Warn().Err(err).Msg("Failed to read cached recommendation")
	}

	rec, err := s.recommender.Recommend(ctx, filtered.Securities, pref.RiskTolerance)
	if err != nil {
		return nil, err
	}
	rec.ProfileUpdatedAt = pref.UpdatedAt

	if err := s.store.Put(ctx, sessionID, session.KeyRecommendation, rec); err != nil {
		return nil, fmt.Errorf("failed to store recommendation: %w", err)
	}
	return rec, nil
}

// Tickers returns the tickers the session's portfolio is made of: the
// recommendation when one exists, otherwise the top of the ranked list.
func (s *Service) Tickers(ctx context.Context, sessionID string, limit int) ([]string, error) {
	view, err := s.Build(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if view.Recommendation != nil {
		return view.Recommendation.Tickers, nil
	}
	return view.Portfolio.Tickers(limit), nil
}
