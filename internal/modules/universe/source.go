// Package universe supplies the investment universe: securities with ESG
// sub-scores, drawn from the Yahoo screener or from the embedded seed list.
package universe

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clients/yahoo"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

// Query narrows what a source returns. Sources may return a superset; the
// portfolio filter applies every constraint again.
type Query struct {
	Sectors          []string // Empty means every sector
	ControversyBelow float64  // +Inf means unlimited
}

// Source loads universe members.
type Source interface {
	Name() string
	Load(ctx context.Context, q Query) ([]domain.Security, error)
}

// SeedSource serves the embedded seed list.
type SeedSource struct {
	securities []domain.Security
}

// NewSeedSource parses the embedded seed universe.
func NewSeedSource() (*SeedSource, error) {
	return ParseSeed(seedYAML)
}

// ParseSeed parses a YAML seed document.
func ParseSeed(data []byte) (*SeedSource, error) {
	var doc struct {
		Securities []domain.Security `yaml:"securities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed universe: %w", err)
	}

	seen := make(map[string]bool, len(doc.Securities))
	for i, s := range doc.Securities {
		if s.Ticker == "" {
			return nil, fmt.Errorf("seed security %d has no ticker", i)
		}
		canonical, ok := domain.CanonicalSector(s.Sector)
		if !ok {
			return nil, fmt.Errorf("seed security %s has unknown sector %q", s.Ticker, s.Sector)
		}
		if seen[s.Ticker] {
			return nil, fmt.Errorf("seed security %s is listed twice", s.Ticker)
		}
		seen[s.Ticker] = true
		doc.Securities[i].Sector = canonical
	}

	return &SeedSource{securities: doc.Securities}, nil
}

// Name identifies the source in logs and API responses.
func (s *SeedSource) Name() string { return "seed" }

// Load returns a copy of the seed list. The query is left to the filter.
func (s *SeedSource) Load(_ context.Context, _ Query) ([]domain.Security, error) {
	out := make([]domain.Security, len(s.securities))
	copy(out, s.securities)
	return out, nil
}

// YahooClient is the subset of the Yahoo client used to build the universe.
type YahooClient interface {
	Screen(ctx context.Context, q yahoo.ScreenerQuery) ([]yahoo.ScreenerQuote, error)
	ESG(ctx context.Context, ticker string) (*yahoo.ESGRisk, error)
}

// enrichConcurrency bounds parallel ESG lookups per screener page.
const enrichConcurrency = 8

// YahooSource screens equities by region, sector and controversy, then
// enriches every hit with its ESG ratings and sector.
type YahooSource struct {
	client  YahooClient
	regions []string
	log     zerolog.Logger
}

// NewYahooSource creates a screener-backed source.
func NewYahooSource(client YahooClient, regions []string, log zerolog.Logger) *YahooSource {
	return &YahooSource{
		client:  client,
		regions: regions,
		log:     log.With().Str("source", "yahoo").Logger(),
	}
}

// Name identifies the source in logs and API responses.
func (s *YahooSource) Name() string { return "yahoo" }

// Load runs the screener and looks up ESG ratings for each result.
// Tickers whose ratings cannot be loaded are skipped.
func (s *YahooSource) Load(ctx context.Context, q Query) ([]domain.Security, error) {
	quotes, err := s.client.Screen(ctx, yahoo.ScreenerQuery{
		Regions:          s.regions,
		Sectors:          q.Sectors,
		ControversyBelow: q.ControversyBelow,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*domain.Security, len(quotes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	for i, quote := range quotes {
		i, quote := i, quote
		g.Go(func() error {
			risk, err := s.client.ESG(gctx, quote.Ticker)
			if err != nil {
				s.log.Debug().Err(err).Str("ticker", quote.Ticker).Msg("Skipping ticker without ESG data")
				return nil
			}
			sec := risk.Security()
			if sec.Name == "" || sec.Name == sec.Ticker {
				sec.Name = quote.Name
			}
			if canonical, ok := domain.CanonicalSector(sec.Sector); ok {
				sec.Sector = canonical
			}
			results[i] = &sec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Security, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}

	s.log.Info().
		Int("screened", len(quotes)).
		Int("enriched", len(out)).
		Str("sectors", strings.Join(q.Sectors, ",")).
		Msg("Universe loaded from screener")

	return out, nil
}

// Unlimited is the controversy bound that admits every company.
var Unlimited = math.Inf(1)
