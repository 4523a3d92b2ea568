// Package server provides the HTTP server and routing for the navigator.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/di"
	forecasthandlers "github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/forecast/handlers"
	newshandlers "github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/news/handlers"
	portfoliohandlers "github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/portfolio/handlers"
	profilehandlers "github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile/handlers"
	universehandlers "github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/universe/handlers"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/web"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/pkg/embedded"
)

// Config holds server configuration
type Config struct {
	Log           zerolog.Logger
	Port          int
	DevMode       bool
	SecureCookies bool
	Container     *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	devMode        bool
	secureCookies  bool
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	_ = mime.AddExtensionType(".css", "text/css")

	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		port:          cfg.Port,
		devMode:       cfg.DevMode,
		secureCookies: cfg.SecureCookies,
		container:     cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Container.SessionsDB,
			cfg.Container.ClientDataDB,
			cfg.Container.SessionStore,
			cfg.Container.ClientDataRepo,
			cfg.Container.ForecastService,
			jobLister(cfg.Container),
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Forecast model calls can take up to two minutes
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(140 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	c := s.container

	profileHandler := profilehandlers.NewHandler(c.ProfileService, c.Renderer, s.log)
	portfolioHandler := portfoliohandlers.NewHandler(c.PortfolioService, c.Renderer, s.log)
	newsHandler := newshandlers.NewHandler(c.NewsService, c.PortfolioService, c.Renderer, s.log)
	forecastHandler := forecasthandlers.NewHandler(c.ForecastService, c.Renderer, s.log)
	universeHandler := universehandlers.NewHandler(c.UniverseService, s.log)

	// Stateless routes
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/static/*", s.staticHandler())

	// Everything else is tied to the visitor's session
	s.router.Group(func(r chi.Router) {
		r.Use(session.Middleware(c.SessionStore, s.secureCookies, s.log))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/profile", http.StatusFound)
		})

		profileHandler.RegisterPages(r)
		portfolioHandler.RegisterPages(r)
		newsHandler.RegisterPages(r)
		forecastHandler.RegisterPages(r)

		r.Route("/api", func(r chi.Router) {
			profileHandler.RegisterRoutes(r)
			portfolioHandler.RegisterRoutes(r)
			newsHandler.RegisterRoutes(r)
			forecastHandler.RegisterRoutes(r)
			universeHandler.RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
			})
		})
	})

	s.router.NotFound(s.handleNotFound)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.container.Renderer.Render(w, http.StatusNotFound, "error", web.Page{
		Title: "Page not found",
		Data:  "The page " + r.URL.Path + " does not exist.",
	})
}

// staticHandler serves the embedded stylesheet under /static/.
func (s *Server) staticHandler() http.Handler {
	staticFS, err := fs.Sub(embedded.Files, "static")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to open embedded static files")
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// jobLister avoids wrapping a nil scheduler in a non-nil interface.
func jobLister(c *di.Container) JobLister {
	if c.Scheduler == nil {
		return nil
	}
	return c.Scheduler
}
