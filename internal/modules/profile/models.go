// Package profile captures a visitor's ESG preferences into a Preference
// record kept in session state.
package profile

import (
	"math"
	"strings"
	"time"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// RiskTolerance is the investor's accepted portfolio risk band.
type RiskTolerance string

// Risk tolerance levels
const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// ParseRiskTolerance accepts the enum values case-insensitively, plus
// "moderate" as an alias of medium.
func ParseRiskTolerance(s string) (RiskTolerance, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, true
	case "medium", "moderate":
		return RiskMedium, true
	case "high":
		return RiskHigh, true
	}
	return "", false
}

// Label is the display name used on the profile page.
func (r RiskTolerance) Label() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Moderate"
	case RiskHigh:
		return "High"
	}
	return ""
}

// Weights are the relative importance of the E, S and G sub-scores.
type Weights struct {
	Environmental float64 `json:"environmental" msgpack:"environmental"`
	Social        float64 `json:"social" msgpack:"social"`
	Governance    float64 `json:"governance" msgpack:"governance"`
}

// Slice returns the weights in E, S, G order.
func (w Weights) Slice() []float64 {
	return []float64{w.Environmental, w.Social, w.Governance}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Environmental + w.Social + w.Governance
}

// Survey holds Likert answers from 1 (strongly disagree) to 5 (strongly
// agree). Zero means the question was not answered.
type Survey struct {
	ESGAwareness         int `json:"esg_awareness" msgpack:"esg_awareness"`
	ImpactInvestment     int `json:"impact_investment" msgpack:"impact_investment"`
	EnvironmentalWeight  int `json:"environmental_weight" msgpack:"environmental_weight"`
	SocialWeight         int `json:"social_weight" msgpack:"social_weight"`
	GovernanceWeight     int `json:"governance_weight" msgpack:"governance_weight"`
	ControversyThreshold int `json:"controversy_threshold" msgpack:"controversy_threshold"`
	GreenIndustry        int `json:"green_industry" msgpack:"green_industry"`
	ESGScoreThreshold    int `json:"esg_score_threshold" msgpack:"esg_score_threshold"`
}

// ControversyLimit returns the exclusive upper bound on a company's highest
// controversy level accepted for this survey. Answers of 1 or 2, or no
// answer, accept any level.
func (s Survey) ControversyLimit() float64 {
	switch s.ControversyThreshold {
	case 3:
		return 3
	case 4:
		return 2
	case 5:
		return 1
	}
	return math.Inf(1)
}

// Preference is the record produced by the profile page.
type Preference struct {
	Name             string        `json:"name" msgpack:"name"`
	RiskTolerance    RiskTolerance `json:"risk_tolerance" msgpack:"risk_tolerance"`
	Weights          Weights       `json:"weights" msgpack:"weights"`
	ExcludedSectors  []string      `json:"excluded_sectors" msgpack:"excluded_sectors"`
	PreferredSectors []string      `json:"preferred_sectors" msgpack:"preferred_sectors"`
	Survey           Survey        `json:"survey" msgpack:"survey"`
	UpdatedAt        time.Time     `json:"updated_at" msgpack:"updated_at"`
}

// IsExcluded reports whether sector is in the excluded set (case-insensitive).
func (p Preference) IsExcluded(sector string) bool {
	return containsSector(p.ExcludedSectors, sector)
}

// IsPreferred reports whether sector passes the preferred-sector restriction.
// An empty preferred set admits every sector.
func (p Preference) IsPreferred(sector string) bool {
	if len(p.PreferredSectors) == 0 {
		return true
	}
	return containsSector(p.PreferredSectors, sector)
}

// ScreenSectors returns the sectors the universe should be drawn from:
// the preferred sectors (or all sectors) minus the excluded ones.
func (p Preference) ScreenSectors() []string {
	candidates := p.PreferredSectors
	if len(candidates) == 0 {
		candidates = domain.Sectors
	}
	out := make([]string, 0, len(candidates))
	for _, s := range candidates {
		if !p.IsExcluded(s) {
			out = append(out, s)
		}
	}
	return out
}

func containsSector(set []string, sector string) bool {
	key := domain.SectorKey(sector)
	for _, s := range set {
		if domain.SectorKey(s) == key {
			return true
		}
	}
	return false
}
