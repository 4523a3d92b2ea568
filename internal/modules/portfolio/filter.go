// Package portfolio turns a preference record and an investment universe
// into a ranked, filtered portfolio and an efficient-frontier recommendation.
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile"
)

// ErrEmptyResult is matched by EmptyResultError.
var ErrEmptyResult = errors.New("no securities match the preferences")

// EmptyResultError reports that no security survived filtering, with the
// reason each candidate was dropped.
type EmptyResultError struct {
	UniverseSize int
	Counts       DropCounts
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s (universe %d, excluded sector %d, outside preferred %d, controversy %d)",
		ErrEmptyResult, e.UniverseSize, e.Counts.ExcludedSector, e.Counts.OutsidePreferred, e.Counts.Controversy)
}

// Is makes errors.Is(err, ErrEmptyResult) match.
func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

// DropCounts records why candidates were removed.
type DropCounts struct {
	Duplicate        int `json:"duplicate" msgpack:"duplicate"`
	ExcludedSector   int `json:"excluded_sector" msgpack:"excluded_sector"`
	OutsidePreferred int `json:"outside_preferred" msgpack:"outside_preferred"`
	Controversy      int `json:"controversy" msgpack:"controversy"`
}

// ScoredSecurity is a universe member with its preference-weighted score.
type ScoredSecurity struct {
	Security domain.Security `json:"security" msgpack:"security"`
	Score    float64         `json:"score" msgpack:"score"`
}

// FilteredPortfolio is the ranked subset of the universe that satisfies
// every constraint of a preference record.
type FilteredPortfolio struct {
	Securities   []ScoredSecurity `json:"securities"`
	UniverseSize int              `json:"universe_size"`
	Dropped      DropCounts       `json:"dropped"`
	// ControversyLimit is exclusive; +Inf when unlimited.
	ControversyLimit float64 `json:"-"`
}

// Tickers returns the ranked tickers, at most limit when limit > 0.
func (p *FilteredPortfolio) Tickers(limit int) []string {
	n := len(p.Securities)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = p.Securities[i].Security.Ticker
	}
	return out
}

// Filter drops securities that violate pref, scores the survivors as the
// weight-normalised sum of their E, S and G scores, and ranks them by score
// descending with ties broken by ticker. Only the first occurrence of a
// ticker is considered.
func Filter(pref *profile.Preference, universe []domain.Security) (*FilteredPortfolio, error) {
	if pref == nil {
		return nil, fmt.Errorf("%w: missing preference", profile.ErrInvalidPreference)
	}
	weights := pref.Weights.Slice()
	total := floats.Sum(weights)
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 || floats.Min(weights) < 0 {
		return nil, &profile.ValidationError{Field: "weights", Message: "weights must be non-negative and sum to a positive total"}
	}

	limit := pref.Survey.ControversyLimit()
	result := &FilteredPortfolio{
		UniverseSize:     len(universe),
		ControversyLimit: limit,
	}

	seen := make(map[string]bool, len(universe))
	for _, sec := range universe {
		key := strings.ToUpper(strings.TrimSpace(sec.Ticker))
		if seen[key] {
			result.Dropped.Duplicate++
			continue
		}
		seen[key] = true

		switch {
		case pref.IsExcluded(sec.Sector):
			result.Dropped.ExcludedSector++
			continue
		case !pref.IsPreferred(sec.Sector):
			result.Dropped.OutsidePreferred++
			continue
		case !(sec.HighestControversy < limit):
			result.Dropped.Controversy++
			continue
		}

		result.Securities = append(result.Securities, ScoredSecurity{
			Security: sec,
			Score:    floats.Dot(weights, sec.Scores()) / total,
		})
	}

	if len(result.Securities) == 0 {
		return nil, &EmptyResultError{UniverseSize: len(universe), Counts: result.Dropped}
	}

	sort.SliceStable(result.Securities, func(i, j int) bool {
		a, b := result.Securities[i], result.Securities[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Security.Ticker < b.Security.Ticker
	})

	return result, nil
}
