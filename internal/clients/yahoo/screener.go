package yahoo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
)

// ScreenerSize is the number of quotes requested per screener call.
const ScreenerSize = 200

// ScreenerQuery narrows the equity screener.
type ScreenerQuery struct {
	Regions []string
	Sectors []string // Empty means every sector
	// ControversyBelow keeps only companies whose highest controversy is
	// strictly lower. +Inf or 0 disables the condition.
	ControversyBelow float64
}

// ScreenerQuote is one screener hit.
type ScreenerQuote struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

func (q ScreenerQuery) key() string {
	regions := append([]string(nil), q.Regions...)
	sectors := append([]string(nil), q.Sectors...)
	sort.Strings(regions)
	sort.Strings(sectors)
	limit := "any"
	if q.hasControversyLimit() {
		limit = strconv.FormatFloat(q.ControversyBelow, 'f', -1, 64)
	}
	return strings.Join(regions, ",") + "|" + strings.Join(sectors, ",") + "|" + limit
}

func (q ScreenerQuery) hasControversyLimit() bool {
	return q.ControversyBelow > 0 && !math.IsInf(q.ControversyBelow, 1)
}

type operand struct {
	Operator string        `json:"operator"`
	Operands []interface{} `json:"operands"`
}

func eq(field, value string) operand {
	return operand{Operator: "eq", Operands: []interface{}{field, value}}
}

func anyOf(ops []operand) operand {
	items := make([]interface{}, len(ops))
	for i, op := range ops {
		items[i] = op
	}
	return operand{Operator: "or", Operands: items}
}

// body builds the screener request: companies in the regions and sectors,
// under the controversy limit, with every ESG score published.
func (q ScreenerQuery) body() map[string]interface{} {
	var and []interface{}

	if q.hasControversyLimit() {
		and = append(and, operand{Operator: "lt", Operands: []interface{}{"highest_controversy", q.ControversyBelow}})
	}

	regions := make([]operand, 0, len(q.Regions))
	for _, r := range q.Regions {
		regions = append(regions, eq("region", r))
	}
	if len(regions) > 0 {
		and = append(and, anyOf(regions))
	}

	sectors := make([]operand, 0, len(q.Sectors))
	for _, s := range q.Sectors {
		sectors = append(sectors, eq("sector", s))
	}
	if len(sectors) > 0 {
		and = append(and, anyOf(sectors))
	}

	for _, field := range []string{"esg_score", "environmental_score", "social_score", "governance_score"} {
		and = append(and, operand{Operator: "gt", Operands: []interface{}{field, 0}})
	}

	return map[string]interface{}{
		"offset":     0,
		"size":       ScreenerSize,
		"sortField":  "esg_score",
		"sortType":   "desc",
		"quoteType":  "equity",
		"query":      operand{Operator: "and", Operands: and},
		"userId":     "",
		"userIdType": "guid",
	}
}

// Screen runs the equity screener.
// If the API fails, returns stale cached data if available.
func (c *Client) Screen(ctx context.Context, query ScreenerQuery) ([]ScreenerQuote, error) {
	return clientdata.Cached(ctx, c.cacheRepo, c.log, clientdata.TableYahooScreener, query.key(), clientdata.TTLScreener,
		func(ctx context.Context) ([]ScreenerQuote, error) {
			doc, err := c.postJSON(ctx, "/v1/finance/screener", map[string]string{
				"lang":      "en-US",
				"region":    "US",
				"formatted": "false",
			}, query.body())
			if err != nil {
				return nil, fmt.Errorf("screener request failed: %w", err)
			}

			quotes := list(doc, "$.finance.result[0].quotes")
			out := make([]ScreenerQuote, 0, len(quotes))
			for _, q := range quotes {
				symbol := text(q, "$.symbol")
				if symbol == "" {
					continue
				}
				name := text(q, "$.shortName")
				if name == "" {
					name = text(q, "$.longName")
				}
				out = append(out, ScreenerQuote{Ticker: symbol, Name: name})
			}

			c.log.Info().Int("quotes", len(out)).Str("query", query.key()).Msg("Screener returned quotes")
			return out, nil
		})
}
