package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NAVIGATOR_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "")
	t.Setenv("UNIVERSE_SOURCE", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("FORECAST_SERVICE_URL", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8501, cfg.Port)
	assert.Equal(t, UniverseSourceSeed, cfg.UniverseSource)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.PortfolioSize)
	assert.Equal(t, []string{"us", "gr", "ch", "au", "fr"}, cfg.YahooCountries)
	assert.True(t, len(cfg.DataDir) > 0 && cfg.DataDir[0] == '/', "data dir must be absolute")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("NAVIGATOR_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9100")
	t.Setenv("UNIVERSE_SOURCE", "YAHOO")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("YAHOO_COUNTRIES", " US, de ,")
	t.Setenv("NEWS_SCRAPER_ENABLED", "true")
	t.Setenv("SECURE_COOKIES", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, UniverseSourceYahoo, cfg.UniverseSource)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"us", "de"}, cfg.YahooCountries)
	assert.True(t, cfg.NewsScraperEnabled)
	assert.True(t, cfg.SecureCookies)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("NAVIGATOR_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "not-a-number")
	t.Setenv("SESSION_TTL", "forever")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8501, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestLoad_RejectsUnknownUniverseSource(t *testing.T) {
	t.Setenv("NAVIGATOR_DATA_DIR", t.TempDir())
	t.Setenv("UNIVERSE_SOURCE", "bloomberg")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bloomberg")
}

func TestValidate(t *testing.T) {
	valid := Config{Port: 8501, SessionTTL: time.Hour, PortfolioSize: 10, HistoryYears: 5, UniverseSource: UniverseSourceSeed}
	assert.NoError(t, valid.Validate())

	badPort := valid
	badPort.Port = 70000
	assert.Error(t, badPort.Validate())

	badSize := valid
	badSize.PortfolioSize = 0
	assert.Error(t, badSize.Validate())
}

func TestWarnings_MissingCollaborators(t *testing.T) {
	cfg := Config{NewtonAPIURL: "https://example.test", YahooBaseURL: "https://example.test"}
	warnings := cfg.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "forecast model")

	cfg.GeminiAPIKey = "key"
	assert.Empty(t, cfg.Warnings())
}
