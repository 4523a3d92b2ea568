package testing

import "github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"

// NewSecurityFixtures returns a small universe spanning several sectors.
// Scores are already on the higher-is-better scale.
func NewSecurityFixtures() []domain.Security {
	return []domain.Security{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology", Environmental: 38.4, Social: 32.1, Governance: 30.2, HighestControversy: 3},
		{Ticker: "MSFT", Name: "Microsoft Corporation", Sector: "Technology", Environmental: 38.6, Social: 28.5, Governance: 34.0, HighestControversy: 3},
		{Ticker: "XOM", Name: "Exxon Mobil Corporation", Sector: "Energy", Environmental: 9.5, Social: 30.3, Governance: 31.8, HighestControversy: 3},
		{Ticker: "NEE", Name: "NextEra Energy, Inc.", Sector: "Utilities", Environmental: 31.2, Social: 33.4, Governance: 35.6, HighestControversy: 2},
		{Ticker: "JNJ", Name: "Johnson & Johnson", Sector: "Healthcare", Environmental: 38.9, Social: 22.7, Governance: 33.1, HighestControversy: 4},
		{Ticker: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Financial Services", Environmental: 39.1, Social: 27.6, Governance: 29.4, HighestControversy: 3},
		{Ticker: "PG", Name: "The Procter & Gamble Company", Sector: "Consumer Defensive", Environmental: 34.8, Social: 31.9, Governance: 35.2, HighestControversy: 2},
		{Ticker: "PLD", Name: "Prologis, Inc.", Sector: "Real Estate", Environmental: 37.7, Social: 36.9, Governance: 36.1, HighestControversy: 1},
	}
}

// NewAppleExxonFixtures returns the two-security universe used by the
// sector exclusion scenario.
func NewAppleExxonFixtures() []domain.Security {
	return []domain.Security{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology", Environmental: 30, Social: 28, Governance: 32, HighestControversy: 2},
		{Ticker: "XOM", Name: "Exxon Mobil Corporation", Sector: "Energy", Environmental: 12, Social: 25, Governance: 30, HighestControversy: 2},
	}
}
