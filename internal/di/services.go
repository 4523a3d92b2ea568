package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clients/newton"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clients/yahoo"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/config"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/forecast"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/news"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/portfolio"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/universe"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/web"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/pkg/embedded"
)

const scraperTimeout = 15 * time.Second

// InitializeServices creates the clients and services on top of the
// databases held by container.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())
	container.SessionStore = session.NewStore(container.SessionsDB.Conn(), cfg.SessionTTL, log)

	container.YahooClient = yahoo.NewClient(cfg.YahooBaseURL, container.ClientDataRepo, log)
	container.NewtonClient = newton.NewClient(cfg.NewtonAPIURL, container.ClientDataRepo, log)

	// Universe: the embedded seed always backs the live screener
	seed, err := universe.NewSeedSource()
	if err != nil {
		return fmt.Errorf("failed to load seed universe: %w", err)
	}
	seeded, err := seed.Load(context.Background(), universe.Query{})
	if err != nil {
		return fmt.Errorf("failed to read seed universe: %w", err)
	}
	index, err := universe.NewSearchIndex(seeded)
	if err != nil {
		return fmt.Errorf("failed to build search index: %w", err)
	}
	container.SearchIndex = index

	var primary, fallback universe.Source = seed, nil
	if cfg.UniverseSource == config.UniverseSourceYahoo {
		primary = universe.NewYahooSource(container.YahooClient, cfg.YahooCountries, log)
		fallback = seed
	}
	container.UniverseService = universe.NewService(primary, fallback, index, log)

	container.ProfileService = profile.NewService(container.SessionStore, log)

	recommender := portfolio.NewRecommender(container.NewtonClient, cfg.PortfolioSize, log)
	container.PortfolioService = portfolio.NewService(
		container.ProfileService,
		container.UniverseService,
		recommender,
		container.SessionStore,
		log,
	)

	providers := []news.Provider{news.NewYahooProvider(container.YahooClient)}
	if cfg.NewsScraperEnabled {
		providers = append(providers, news.NewScraper(news.DefaultScraperSource, scraperTimeout, log))
	}
	container.NewsService = news.NewService(log, providers...)

	model, err := newForecastModel(cfg, log)
	if err != nil {
		return err
	}
	container.ForecastService = forecast.NewService(container.YahooClient, model, cfg.HistoryYears, log)

	renderer, err := web.NewRenderer(embedded.Files, log)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	container.Renderer = renderer

	log.Info().
		Str("universe_source", primary.Name()).
		Int("seed_securities", len(seeded)).
		Int("news_providers", len(providers)).
		Str("forecast_model", container.ForecastService.ModelName()).
		Msg("Services initialized")

	return nil
}

// newForecastModel prefers the dedicated forecasting service and falls back
// to Gemini. It returns a nil model when neither is configured.
func newForecastModel(cfg *config.Config, log zerolog.Logger) (forecast.Model, error) {
	switch {
	case cfg.ForecastServiceURL != "":
		return forecast.NewHTTPModel(cfg.ForecastServiceURL, log), nil
	case cfg.GeminiAPIKey != "":
		model, err := forecast.NewGeminiModel(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			return nil, err
		}
		return model, nil
	}
	return nil, nil
}
