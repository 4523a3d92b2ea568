package profile

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// MaxNameLength bounds the optional display name.
const MaxNameLength = 100

// ErrInvalidPreference is matched by every *ValidationError.
var ErrInvalidPreference = errors.New("invalid preference")

// ValidationError names the first invalid field of a submission.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidPreference) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPreference
}

// Validate checks a preference and normalises its sector names to their
// canonical spelling. It returns a *ValidationError for the first invalid field.
func Validate(p *Preference) error {
	if utf8.RuneCountInString(p.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	}

	risk, ok := ParseRiskTolerance(string(p.RiskTolerance))
	if !ok {
		return &ValidationError{Field: "risk_tolerance", Message: "must be one of low, medium, high"}
	}
	p.RiskTolerance = risk

	weights := []struct {
		field string
		value float64
	}{
		{"weights.environmental", p.Weights.Environmental},
		{"weights.social", p.Weights.Social},
		{"weights.governance", p.Weights.Governance},
	}
	for _, w := range weights {
		if math.IsNaN(w.value) || math.IsInf(w.value, 0) {
			return &ValidationError{Field: w.field, Message: "must be a finite number"}
		}
		if w.value < 0 {
			return &ValidationError{Field: w.field, Message: "must not be negative"}
		}
	}
	if p.Weights.Sum() <= 0 {
		return &ValidationError{Field: "weights", Message: "weights must sum to a positive total"}
	}

	for _, q := range Questions {
		if v := p.Survey.Answer(q.Field); v < 0 || v > len(LikertOptions) {
			return &ValidationError{Field: q.Field, Message: fmt.Sprintf("answer must be between 1 and %d", len(LikertOptions))}
		}
	}

	excluded, err := canonicalSectors("excluded_sectors", p.ExcludedSectors)
	if err != nil {
		return err
	}
	preferred, err := canonicalSectors("preferred_sectors", p.PreferredSectors)
	if err != nil {
		return err
	}
	p.ExcludedSectors = excluded
	p.PreferredSectors = preferred

	return nil
}

func canonicalSectors(field string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		canonical, ok := domain.CanonicalSector(n)
		if !ok {
			return nil, &ValidationError{Field: field, Message: fmt.Sprintf("unknown sector %q", n)}
		}
		if !seen[canonical] {
			seen[canonical] = true
			out = append(out, canonical)
		}
	}
	return out, nil
}
