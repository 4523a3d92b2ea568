package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// DefaultControversy is assumed when Yahoo publishes no controversy level.
const DefaultControversy = 10

// ErrNoESGData is returned for tickers without published ESG ratings.
var ErrNoESGData = errors.New("no ESG data")

// ESGRisk holds the raw ESG risk ratings for a ticker. Nil means not published.
type ESGRisk struct {
	Ticker             string   `json:"ticker"`
	Name               string   `json:"name"`
	Sector             string   `json:"sector"`
	EnvironmentRisk    *float64 `json:"environment_risk,omitempty"`
	SocialRisk         *float64 `json:"social_risk,omitempty"`
	GovernanceRisk     *float64 `json:"governance_risk,omitempty"`
	TotalRisk          *float64 `json:"total_risk,omitempty"`
	HighestControversy *float64 `json:"highest_controversy,omitempty"`
}

// Security converts risk ratings into a universe member. Risk is turned into
// a higher-is-better score as 40 - risk; a missing rating counts as maximum
// risk and a missing controversy level as DefaultControversy.
func (r ESGRisk) Security() domain.Security {
	controversy := float64(DefaultControversy)
	if r.HighestControversy != nil {
		controversy = *r.HighestControversy
	}
	return domain.Security{
		Ticker:             r.Ticker,
		Name:               r.Name,
		Sector:             r.Sector,
		Environmental:      riskToScore(r.EnvironmentRisk),
		Social:             riskToScore(r.SocialRisk),
		Governance:         riskToScore(r.GovernanceRisk),
		HighestControversy: controversy,
	}
}

func riskToScore(risk *float64) float64 {
	if risk == nil {
		return 0
	}
	score := decimal.NewFromFloat(domain.MaxESGScore).Sub(decimal.NewFromFloat(*risk)).Round(2)
	return score.InexactFloat64()
}

// ESG returns ESG risk ratings plus name and sector for a ticker.
// If the API fails, returns stale cached data if available.
func (c *Client) ESG(ctx context.Context, ticker string) (*ESGRisk, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	risk, err := clientdata.Cached(ctx, c.cacheRepo, c.log, clientdata.TableYahooESG, ticker, clientdata.TTLYahooESG,
		func(ctx context.Context) (ESGRisk, error) {
			return c.fetchESG(ctx, ticker)
		})
	if err != nil {
		return nil, err
	}
	return &risk, nil
}

func (c *Client) fetchESG(ctx context.Context, ticker string) (ESGRisk, error) {
	doc, err := c.getJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(ticker), map[string]string{
		"modules": "esgScores,assetProfile,price",
	})
	if err != nil {
		return ESGRisk{}, fmt.Errorf("failed to fetch ESG scores for %s: %w", ticker, err)
	}

	const root = "$.quoteSummary.result[0]"
	if len(list(doc, "$.quoteSummary.result")) == 0 {
		return ESGRisk{}, fmt.Errorf("%s: %w", ticker, ErrNoESGData)
	}

	risk := ESGRisk{
		Ticker: ticker,
		Name:   text(doc, root+".price.shortName"),
		Sector: text(doc, root+".assetProfile.sector"),
	}
	if risk.Name == "" {
		risk.Name = ticker
	}

	risk.EnvironmentRisk = optional(number(doc, root+".esgScores.environmentScore"))
	risk.SocialRisk = optional(number(doc, root+".esgScores.socialScore"))
	risk.GovernanceRisk = optional(number(doc, root+".esgScores.governanceScore"))
	risk.TotalRisk = optional(number(doc, root+".esgScores.totalEsg"))
	risk.HighestControversy = optional(number(doc, root+".esgScores.highestControversy"))

	if risk.EnvironmentRisk == nil && risk.SocialRisk == nil && risk.GovernanceRisk == nil {
		return ESGRisk{}, fmt.Errorf("%s: %w", ticker, ErrNoESGData)
	}

	return risk, nil
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
