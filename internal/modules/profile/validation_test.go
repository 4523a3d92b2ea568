package profile

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPreference() Preference {
	return Preference{
		RiskTolerance: RiskMedium,
		Weights:       Weights{Environmental: 1, Social: 1, Governance: 1},
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrInvalidPreference)
	return verr.Field
}

func TestValidate_Valid(t *testing.T) {
	p := validPreference()
	assert.NoError(t, Validate(&p))
}

func TestValidate_WeightsMustSumPositive(t *testing.T) {
	for _, w := range []Weights{
		{},
		{Environmental: 0, Social: 0, Governance: 0},
	} {
		p := validPreference()
		p.Weights = w
		assert.Equal(t, "weights", fieldOf(t, Validate(&p)))
	}
}

func TestValidate_NegativeWeightRejected(t *testing.T) {
	p := validPreference()
	p.Weights = Weights{Environmental: 3, Social: -1, Governance: 1}
	assert.Equal(t, "weights.social", fieldOf(t, Validate(&p)))

	// Negative total is rejected too
	p.Weights = Weights{Environmental: -1, Social: -1, Governance: -1}
	assert.Equal(t, "weights.environmental", fieldOf(t, Validate(&p)))
}

func TestValidate_NonFiniteWeightRejected(t *testing.T) {
	p := validPreference()
	p.Weights.Governance = math.NaN()
	assert.Equal(t, "weights.governance", fieldOf(t, Validate(&p)))

	p = validPreference()
	p.Weights.Environmental = math.Inf(1)
	assert.Equal(t, "weights.environmental", fieldOf(t, Validate(&p)))
}

func TestValidate_RiskTolerance(t *testing.T) {
	p := validPreference()
	p.RiskTolerance = "moderate"
	require.NoError(t, Validate(&p))
	assert.Equal(t, RiskMedium, p.RiskTolerance)

	p.RiskTolerance = ""
	assert.Equal(t, "risk_tolerance", fieldOf(t, Validate(&p)))
}

func TestValidate_Name(t *testing.T) {
	p := validPreference()
	p.Name = strings.Repeat("é", MaxNameLength)
	assert.NoError(t, Validate(&p))

	p.Name = strings.Repeat("a", MaxNameLength+1)
	assert.Equal(t, "name", fieldOf(t, Validate(&p)))
}

func TestValidate_SurveyRange(t *testing.T) {
	p := validPreference()
	p.Survey.GreenIndustry = 6
	assert.Equal(t, FieldGreenIndustry, fieldOf(t, Validate(&p)))
}

func TestValidate_SectorsCanonicalised(t *testing.T) {
	p := validPreference()
	p.ExcludedSectors = []string{"energy", "ENERGY", "Utilities"}
	p.PreferredSectors = []string{"technology"}
	require.NoError(t, Validate(&p))
	assert.Equal(t, []string{"Energy", "Utilities"}, p.ExcludedSectors)
	assert.Equal(t, []string{"Technology"}, p.PreferredSectors)

	p.ExcludedSectors = []string{"Tobacco"}
	assert.Equal(t, "excluded_sectors", fieldOf(t, Validate(&p)))
}
