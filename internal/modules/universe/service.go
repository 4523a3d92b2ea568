package universe

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// ErrUniverseUnavailable is returned when neither source produced securities.
var ErrUniverseUnavailable = errors.New("investment universe unavailable")

// Result is a loaded universe and where it came from.
type Result struct {
	Securities []domain.Security `json:"securities"`
	Source     string            `json:"source"`
	// Degraded is set when the primary source failed and the fallback was used.
	Degraded bool `json:"degraded"`
}

// Service loads the universe from its primary source, falling back to the
// seed list, and keeps the search index current.
type Service struct {
	primary  Source
	fallback Source
	index    *SearchIndex
	log      zerolog.Logger
}

// NewService creates a universe service. fallback may be nil.
func NewService(primary, fallback Source, index *SearchIndex, log zerolog.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		index:    index,
		log:      log.With().Str("service", "universe").Logger(),
	}
}

// Load returns the universe for q.
func (s *Service) Load(ctx context.Context, q Query) (*Result, error) {
	securities, err := s.primary.Load(ctx, q)
	if err == nil && len(securities) > 0 {
		s.indexAll(securities)
		return &Result{Securities: securities, Source: s.primary.Name()}, nil
	}

	if s.fallback == nil || s.fallback == s.primary {
		if err == nil {
			return &Result{Source: s.primary.Name()}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUniverseUnavailable, err)
	}

	if err != nil {
		s.log.Warn().Err(err).Str("primary", s.primary.Name()).Msg("Primary universe source failed, using fallback")
	} else {
		s.log.Warn().Str("primary", s.primary.Name()).Msg("Primary universe source returned nothing, using fallback")
	}

	securities, fbErr := s.fallback.Load(ctx, q)
	if fbErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUniverseUnavailable, errors.Join(err, fbErr))
	}
	return &Result{Securities: securities, Source: s.fallback.Name(), Degraded: true}, nil
}

// Search looks securities up by ticker, name or sector.
func (s *Service) Search(q string, limit int) ([]domain.Security, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(q, limit)
}

func (s *Service) indexAll(securities []domain.Security) {
	if s.index == nil {
		return
	}
	if err := s.index.Add(securities...); err != nil {
		s.log.Warn().Err(err).Msg("Failed to index universe")
	}
}
