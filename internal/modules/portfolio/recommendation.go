package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clients/newton"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile"
)

// DefaultWindowSize is the number of consecutive ranked securities offered
// to the frontier optimiser at once.
const DefaultWindowSize = 10

var (
	// ErrNoSuitablePortfolio is returned when no window yields a frontier
	// portfolio with positive return within the risk limit.
	ErrNoSuitablePortfolio = errors.New("no suitable portfolio found")
	// ErrAnalyticsUnavailable wraps failures of the frontier service.
	ErrAnalyticsUnavailable = errors.New("portfolio analytics unavailable")
)

// RiskLimit returns the highest acceptable portfolio risk for a tolerance.
func RiskLimit(r profile.RiskTolerance) float64 {
	switch r {
	case profile.RiskLow:
		return 0.10
	case profile.RiskHigh:
		return 0.20
	}
	return 0.15
}

// Recommendation is the chosen efficient-frontier portfolio.
type Recommendation struct {
	Tickers     []string         `json:"tickers" msgpack:"tickers"`
	Proportions []float64        `json:"proportions" msgpack:"proportions"`
	Return      float64          `json:"return" msgpack:"return"`
	Risk        float64          `json:"risk" msgpack:"risk"`
	Members     []ScoredSecurity `json:"members" msgpack:"members"`
	// ProfileUpdatedAt ties the recommendation to the preference record it
	// was computed for.
	ProfileUpdatedAt time.Time `json:"profile_updated_at" msgpack:"profile_updated_at"`
}

// Slice is one labelled share of a distribution.
type Slice struct {
	Label string  `json:"label"`
	Share float64 `json:"share"`
}

// Distribution returns each member's share, using absolute proportions
// normalised to sum to one.
func (r *Recommendation) Distribution() []Slice {
	total := decimal.Zero
	for _, p := range r.Proportions {
		total = total.Add(decimal.NewFromFloat(math.Abs(p)))
	}

	out := make([]Slice, 0, len(r.Proportions))
	for i, p := range r.Proportions {
		label := r.Tickers[i]
		if i < len(r.Members) && r.Members[i].Security.Name != "" {
			label = r.Members[i].Security.Name
		}
		share := decimal.Zero
		if !total.IsZero() {
			share = decimal.NewFromFloat(math.Abs(p)).DivRound(total, 4)
		}
		out = append(out, Slice{Label: label, Share: share.InexactFloat64()})
	}
	return out
}

// SectorDistribution returns the share of members per sector, largest first.
func (r *Recommendation) SectorDistribution() []Slice {
	if len(r.Members) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, m := range r.Members {
		counts[m.Security.Sector]++
	}

	n := decimal.NewFromInt(int64(len(r.Members)))
	out := make([]Slice, 0, len(counts))
	for sector, c := range counts {
		out = append(out, Slice{
			Label: sector,
			Share: decimal.NewFromInt(int64(c)).DivRound(n, 4).InexactFloat64(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share > out[j].Share
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// FrontierClient computes efficient-frontier portfolios.
type FrontierClient interface {
	Frontier(ctx context.Context, tickers []string) ([]newton.Portfolio, error)
}

// Recommender picks a frontier portfolio from a ranked list.
type Recommender struct {
	client FrontierClient
	size   int
	log    zerolog.Logger
}

// NewRecommender creates a recommender using windows of size securities.
func NewRecommender(client FrontierClient, size int, log zerolog.Logger) *Recommender {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Recommender{
		client: client,
		size:   size,
		log:    log.With().Str("component", "recommender").Logger(),
	}
}

// Recommend slides a window over ranked, best first, and returns the highest
// return frontier portfolio of the first window that has one with positive
// return and risk within the tolerance limit. The window shrinks to the
// list length when fewer securities are available.
func (r *Recommender) Recommend(ctx context.Context, ranked []ScoredSecurity, risk profile.RiskTolerance) (*Recommendation, error) {
	if len(ranked) == 0 {
		return nil, ErrNoSuitablePortfolio
	}
	size := r.size
	if size > len(ranked) {
		size = len(ranked)
	}
	limit := RiskLimit(risk)

	for i := 0; i+size <= len(ranked); i++ {
		window := ranked[i : i+size]
		tickers := make([]string, size)
		for j, s := range window {
			tickers[j] = s.Security.Ticker
		}

		portfolios, err := r.client.Frontier(ctx, tickers)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAnalyticsUnavailable, err)
		}

		best, ok := bestWithin(portfolios, limit)
		if !ok || best.Return <= 0 {
			r.log.Debug().Int("window", i).Strs("tickers", tickers).Msg("No acceptable frontier portfolio in window")
			continue
		}

		members := make([]ScoredSecurity, size)
		copy(members, window)
		r.log.Info().
			Strs("tickers", tickers).
			Float64("return", best.Return).
			Float64("risk", best.Risk).
			Msg("Recommendation found")

		return &Recommendation{
			Tickers:     tickers,
			Proportions: best.Weights,
			Return:      best.Return,
			Risk:        best.Risk,
			Members:     members,
		}, nil
	}

	return nil, ErrNoSuitablePortfolio
}

func bestWithin(portfolios []newton.Portfolio, riskLimit float64) (newton.Portfolio, bool) {
	var best newton.Portfolio
	found := false
	for _, p := range portfolios {
		if p.Risk > riskLimit {
			continue
		}
		if !found || p.Return > best.Return {
			best = p
			found = true
		}
	}
	return best, found
}
