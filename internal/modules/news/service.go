// Package news collects the latest article about each portfolio holding.
package news

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// MaxArticles caps the number of articles returned by Fetch.
const MaxArticles = 10

// ErrNewsUnavailable is returned when every provider failed for every ticker.
var ErrNewsUnavailable = errors.New("news unavailable")

// Provider returns recent articles about a ticker, newest first.
type Provider interface {
	Name() string
	Articles(ctx context.Context, ticker string) ([]domain.Article, error)
}

// Service fans ticker lookups out to its providers.
type Service struct {
	providers []Provider
	log       zerolog.Logger
}

// NewService creates a news service querying providers in order.
func NewService(log zerolog.Logger, providers ...Provider) *Service {
	return &Service{
		providers: providers,
		log:       log.With().Str("service", "news").Logger(),
	}
}

// Fetch returns the latest article for each ticker, in ticker order.
// Tickers without news are skipped and at most MaxArticles are returned.
// Provider failures are logged; ErrNewsUnavailable is returned only when
// no provider answered for any ticker.
func (s *Service) Fetch(ctx context.Context, tickers []string) ([]domain.Article, error) {
	articles := make([]domain.Article, 0, MaxArticles)
	answered := false
	var lastErr error

	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(t))
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		latest, ok, err := s.latest(ctx, ticker)
		if err != nil {
			lastErr = err
		} else {
			answered = true
		}
		if ok {
			articles = append(articles, latest)
			if len(articles) == MaxArticles {
				break
			}
		}
	}

	if !answered && lastErr != nil {
		s.log.Warn().Err(lastErr).Int("tickers", len(seen)).Msg("No news provider answered")
		return nil, ErrNewsUnavailable
	}
	return articles, nil
}

// latest asks every provider and keeps the newest article. err is non-nil
// only when all providers failed.
func (s *Service) latest(ctx context.Context, ticker string) (domain.Article, bool, error) {
	var (
		best   domain.Article
		found  bool
		failed int
		err    error
	)
	for _, p := range s.providers {
		items, perr := p.Articles(ctx, ticker)
		if perr != nil {
			s.log.Debug().Err(perr).Str("provider", p.Name()).Str("ticker", ticker).Msg("News provider failed")
			failed++
			err = perr
			continue
		}
		for _, a := range items {
			if !found || a.PublishedAt.After(best.PublishedAt) {
				best = a
				found = true
			}
		}
	}
	if failed > 0 && failed == len(s.providers) {
		return domain.Article{}, false, err
	}
	if found && best.Ticker == "" {
		best.Ticker = ticker
	}
	return best, found, nil
}

// Columns splits articles into two columns of at most size items each.
func Columns(articles []domain.Article, size int) [2][]domain.Article {
	var cols [2][]domain.Article
	for i, a := range articles {
		switch {
		case i < size:
			cols[0] = append(cols[0], a)
		case i < 2*size:
			cols[1] = append(cols[1], a)
		}
	}
	return cols
}
