// Package domain holds the record types shared between the navigator modules.
package domain

import (
	"sort"
	"strings"
)

// MaxESGScore is the top of the sub-score scale. Yahoo publishes ESG risk
// on a 0..40 scale; scores are stored as MaxESGScore minus risk so higher is better.
const MaxESGScore = 40.0

// Security is one member of the investment universe.
type Security struct {
	Ticker             string  `json:"ticker" yaml:"ticker"`
	Name               string  `json:"name" yaml:"name"`
	Sector             string  `json:"sector" yaml:"sector"`
	Environmental      float64 `json:"environmental" yaml:"environmental"`
	Social             float64 `json:"social" yaml:"social"`
	Governance         float64 `json:"governance" yaml:"governance"`
	HighestControversy float64 `json:"highest_controversy" yaml:"highest_controversy"`
}

// Scores returns the E, S and G sub-scores in that order.
func (s Security) Scores() []float64 {
	return []float64{s.Environmental, s.Social, s.Governance}
}

// Sectors offered on the profile page, in display order.
var Sectors = []string{
	"Basic Materials",
	"Industrials",
	"Communication Services",
	"Healthcare",
	"Real Estate",
	"Technology",
	"Energy",
	"Utilities",
	"Financial Services",
	"Consumer Defensive",
	"Consumer Cyclical",
}

// CanonicalSector returns the listed spelling of a sector name matched
// case-insensitively, and false if the name is not a known sector.
func CanonicalSector(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	for _, s := range Sectors {
		if strings.EqualFold(s, trimmed) {
			return s, true
		}
	}
	return "", false
}

// SectorKey normalises a sector name for set membership tests.
func SectorKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SortedTickers returns the tickers of the given securities, sorted.
func SortedTickers(securities []Security) []string {
	tickers := make([]string, 0, len(securities))
	for _, s := range securities {
		tickers = append(tickers, s.Ticker)
	}
	sort.Strings(tickers)
	return tickers
}
