package domain

import "time"

// Article is a news item about one ticker.
type Article struct {
	Ticker         string    `json:"ticker"`
	Title          string    `json:"title"`
	Publisher      string    `json:"publisher"`
	Type           string    `json:"type"`
	Link           string    `json:"link"`
	PublishedAt    time.Time `json:"published_at"`
	ThumbnailURL   string    `json:"thumbnail_url,omitempty"`
	RelatedTickers []string  `json:"related_tickers,omitempty"`
	Source         string    `json:"source"`
}
