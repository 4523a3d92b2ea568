package profile

import (
	"net/url"
	"strconv"
	"strings"
)

// LikertOptions are the survey answer labels, mapped to 1..5 in order.
var LikertOptions = []string{
	"Strongly disagree",
	"Disagree",
	"Neutral",
	"Agree",
	"Strongly agree",
}

// Question is one survey statement on the profile page.
type Question struct {
	Field string
	Text  string
}

// Survey form fields
const (
	FieldESGAwareness         = "esg_awareness"
	FieldImpactInvestment     = "impact_investment"
	FieldEnvironmentalWeight  = "environmental_weight"
	FieldSocialWeight         = "social_weight"
	FieldGovernanceWeight     = "governance_weight"
	FieldControversyThreshold = "controversy_threshold"
	FieldGreenIndustry        = "green_industry"
	FieldESGScoreThreshold    = "esg_score_threshold"
)

// Questions in display order.
var Questions = []Question{
	{FieldESGAwareness, "I prioritize environmental sustainability when making investment decisions"},
	{FieldImpactInvestment, "I am comfortable with investing in companies that may have a smaller carbon footprint, even if it could mean potentially lower returns"},
	{FieldEnvironmentalWeight, "I prefer to invest in companies that are actively working toward reducing their environmental impact (e.g., zero-waste goals, carbon neutrality)."},
	{FieldSocialWeight, "I believe companies should be held accountable for their social impact, including labor practices and community engagement."},
	{FieldGovernanceWeight, "I prefer to invest in companies that have a transparent board structure and clear governance policies"},
	{FieldControversyThreshold, "I would prefer to avoid investments in companies involved in controversial sectors (e.g., fossil fuels, tobacco, weapons)"},
	{FieldGreenIndustry, "I am interested in investments in industries that promote sustainability, such as renewable energy, clean technology, and sustainable agriculture"},
	{FieldESGScoreThreshold, "I am comfortable investing in companies with strong sustainability scores, even if they operate in traditionally 'non-green' industries (e.g., sustainable mining or oil)"},
}

// LikertValue maps a label (case-insensitive) or a digit 1..5 to its value.
func LikertValue(answer string) (int, bool) {
	answer = strings.TrimSpace(answer)
	for i, label := range LikertOptions {
		if strings.EqualFold(label, answer) {
			return i + 1, true
		}
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(LikertOptions) {
		return n, true
	}
	return 0, false
}

// Answer returns the survey answer for a form field.
func (s Survey) Answer(field string) int {
	switch field {
	case FieldESGAwareness:
		return s.ESGAwareness
	case FieldImpactInvestment:
		return s.ImpactInvestment
	case FieldEnvironmentalWeight:
		return s.EnvironmentalWeight
	case FieldSocialWeight:
		return s.SocialWeight
	case FieldGovernanceWeight:
		return s.GovernanceWeight
	case FieldControversyThreshold:
		return s.ControversyThreshold
	case FieldGreenIndustry:
		return s.GreenIndustry
	case FieldESGScoreThreshold:
		return s.ESGScoreThreshold
	}
	return 0
}

func (s *Survey) set(field string, v int) {
	switch field {
	case FieldESGAwareness:
		s.ESGAwareness = v
	case FieldImpactInvestment:
		s.ImpactInvestment = v
	case FieldEnvironmentalWeight:
		s.EnvironmentalWeight = v
	case FieldSocialWeight:
		s.SocialWeight = v
	case FieldGovernanceWeight:
		s.GovernanceWeight = v
	case FieldControversyThreshold:
		s.ControversyThreshold = v
	case FieldGreenIndustry:
		s.GreenIndustry = v
	case FieldESGScoreThreshold:
		s.ESGScoreThreshold = v
	}
}

// SurveyWeights derives E/S/G weights from the three weight questions.
func (s Survey) SurveyWeights() Weights {
	return Weights{
		Environmental: float64(s.EnvironmentalWeight),
		Social:        float64(s.SocialWeight),
		Governance:    float64(s.GovernanceWeight),
	}
}

// FromSurvey builds a Preference from the profile page form. Every survey
// question must be answered; the E/S/G weights are taken from the three
// weight questions. The result still needs Validate.
func FromSurvey(form url.Values) (*Preference, error) {
	pref := &Preference{
		Name:             strings.TrimSpace(form.Get("name")),
		PreferredSectors: form["preferred_sectors"],
		ExcludedSectors:  form["excluded_sectors"],
	}

	risk, ok := ParseRiskTolerance(form.Get("risk_tolerance"))
	if !ok {
		return nil, &ValidationError{Field: "risk_tolerance", Message: "select a risk tolerance level"}
	}
	pref.RiskTolerance = risk

	for _, q := range Questions {
		raw := form.Get(q.Field)
		if raw == "" {
			return nil, &ValidationError{Field: q.Field, Message: "please answer this question"}
		}
		v, ok := LikertValue(raw)
		if !ok {
			return nil, &ValidationError{Field: q.Field, Message: "answer must be one of: " + strings.Join(LikertOptions, ", ")}
		}
		pref.Survey.set(q.Field, v)
	}

	pref.Weights = pref.Survey.SurveyWeights()
	return pref, nil
}
