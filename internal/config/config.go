// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Universe sources
const (
	UniverseSourceSeed  = "seed"
	UniverseSourceYahoo = "yahoo"
)

// Config holds application configuration
type Config struct {
	DataDir    string // Directory holding sessions.db and client_data.db (always absolute)
	Port       int
	LogLevel   string
	DevMode    bool
	SessionTTL time.Duration
	// SecureCookies marks the session cookie Secure; enable behind TLS
	SecureCookies bool

	// Investment universe
	UniverseSource string   // "seed" or "yahoo"
	YahooBaseURL   string   // Yahoo JSON API root
	YahooCountries []string // Screener regions
	HistoryYears   int      // Years of daily closes handed to the forecast model

	// Portfolio recommendation (Newton Analytics efficient frontier)
	NewtonAPIURL  string
	PortfolioSize int

	// News
	NewsScraperEnabled bool

	// Forecast model collaborators. Both are optional.
	ForecastServiceURL string
	GeminiAPIKey       string
	GeminiModel        string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("NAVIGATOR_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("GO_PORT", 8501),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SecureCookies:      getEnvAsBool("SECURE_COOKIES", false),
		UniverseSource:     strings.ToLower(getEnv("UNIVERSE_SOURCE", UniverseSourceSeed)),
		YahooBaseURL:       strings.TrimRight(getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"), "/"),
		YahooCountries:     getEnvAsList("YAHOO_COUNTRIES", []string{"us", "gr", "ch", "au", "fr"}),
		HistoryYears:       getEnvAsInt("HISTORY_YEARS", 8),
		NewtonAPIURL:       getEnv("NEWTON_API_URL", "https://api.newtonanalytics.com/modern-portfolio/"),
		PortfolioSize:      getEnvAsInt("PORTFOLIO_SIZE", 10),
		NewsScraperEnabled: getEnvAsBool("NEWS_SCRAPER_ENABLED", false),
		ForecastServiceURL: getEnv("FORECAST_SERVICE_URL", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would make the server unusable.
// Missing collaborator credentials are not errors, see Warnings.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}
	if c.PortfolioSize <= 0 {
		return fmt.Errorf("portfolio size must be positive, got %d", c.PortfolioSize)
	}
	if c.HistoryYears <= 0 {
		return fmt.Errorf("history years must be positive, got %d", c.HistoryYears)
	}
	switch c.UniverseSource {
	case UniverseSourceSeed, UniverseSourceYahoo:
	default:
		return fmt.Errorf("unknown universe source %q (want %q or %q)", c.UniverseSource, UniverseSourceSeed, UniverseSourceYahoo)
	}
	return nil
}

// Warnings lists collaborator settings that are absent. The pages backed by
// those collaborators run degraded instead of failing startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.ForecastServiceURL == "" && c.GeminiAPIKey == "" {
		warnings = append(warnings, "no forecast model configured (FORECAST_SERVICE_URL or GEMINI_API_KEY): AI page will report the model as unavailable")
	}
	if c.NewtonAPIURL == "" {
		warnings = append(warnings, "NEWTON_API_URL is empty: portfolio recommendations are disabled")
	}
	if c.YahooBaseURL == "" {
		warnings = append(warnings, "YAHOO_BASE_URL is empty: news and live ESG data are unavailable")
	}
	return warnings
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, strings.ToLower(trimmed))
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
