// Package main is the entry point for the ESG Impact Navigator web app.
//
// The navigator walks a visitor through four pages: a Profile survey that
// records ESG preferences, an Investment portfolio filtered and optimised for
// those preferences, News about the recommended holdings, and an AI price
// forecast for any ticker.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/config"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/di"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/server"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/pkg/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Navigator exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Navigator stopped")
}

// run serves until ctx is cancelled or the listener fails, then drains the
// server and the maintenance jobs.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("universe_source", cfg.UniverseSource).
		Int("port", cfg.Port).
		Msg("Starting ESG Impact Navigator")
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	container, err := di.Wire(cfg, log)
	if err != nil {
		return fmt.Errorf("wire dependencies: %w", err)
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:           log,
		Port:          cfg.Port,
		DevMode:       cfg.DevMode,
		SecureCookies: cfg.SecureCookies,
		Container:     container,
	})

	container.Scheduler.Start()
	defer container.Scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
