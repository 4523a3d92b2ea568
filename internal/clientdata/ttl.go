package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// ESG ratings are republished monthly at most
	TTLYahooESG     = 7 * 24 * time.Hour // 7 days
	TTLYahooProfile = 30 * 24 * time.Hour
	TTLScreener     = 24 * time.Hour

	// Daily closes only change once per session
	TTLPriceHistory = 12 * time.Hour

	// Frontier is computed from monthly observations
	TTLNewtonFrontier = 24 * time.Hour

	TTLNews = 15 * time.Minute
)
