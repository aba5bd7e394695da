package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/sachalieges/brickdeals/internal/ai"
	"github.com/sachalieges/brickdeals/internal/api"
	"github.com/sachalieges/brickdeals/internal/artifact"
	"github.com/sachalieges/brickdeals/internal/config"
	"github.com/sachalieges/brickdeals/internal/dealapi"
	"github.com/sachalieges/brickdeals/internal/ingest"
	"github.com/sachalieges/brickdeals/internal/scraper"
	"github.com/sachalieges/brickdeals/internal/session"
	"github.com/sachalieges/brickdeals/internal/storage"
)

func main() {
	slog.Info("Starting brickdeals server...")

	// Local development convenience; in production the env is already set.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Critical error initializing Firestore client", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	selectors, err := scraper.LoadConfig()
	if err != nil {
		slog.Warn("Failed to load selectors. Using defaults.", "error", err)
		selectors = scraper.DefaultSelectors()
	}

	var provider session.Provider
	switch cfg.BrowserEngine {
	case "playwright":
		provider = session.NewPlaywrightProvider(cfg.VintedBaseURL, "access_token_web", cfg.SessionTimeout)
	default:
		provider = session.NewChromeProvider(cfg.VintedBaseURL, "access_token_web", cfg.SessionTimeout)
	}

	vinted, err := scraper.NewVintedAdapter(provider, cfg.VintedBaseURL, cfg.DefaultSearchTerm, 96, cfg.RequestTimeout)
	if err != nil {
		slog.Error("Critical error building vinted adapter", "error", err)
		os.Exit(1)
	}

	// Registration order is the dedup priority: the feed beats the listing
	// on shared deal ids because it refreshes more often.
	registry := scraper.NewRegistry()
	registry.Register(scraper.NewDealabsAdapter(cfg.DealabsBaseURL, selectors, cfg.RequestTimeout))
	registry.Register(scraper.NewFeedAdapter(cfg.DealabsFeedURL, cfg.RequestTimeout))
	registry.Register(vinted)

	extractor, err := ai.NewExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Warn("Set-id extractor unavailable, falling back to pattern matching", "error", err)
	}

	ingester := ingest.New(registry, store, artifact.NewWriter(cfg.DataDir), extractor)

	remote := dealapi.New(cfg.DealsAPIBaseURL, cfg.RequestTimeout, cfg.MaxPages)

	srv := api.New(store, ingester, remote, cfg.PageSize, slog.Default())

	var scheduler *cron.Cron
	if cfg.IngestCron != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.IngestCron, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if _, err := ingester.Run(runCtx, ""); err != nil {
				slog.Error("Scheduled ingestion failed", "error", err)
			}
		}); err != nil {
			slog.Error("Critical error scheduling ingestion", "cron", cfg.IngestCron, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		slog.Info("Scheduled ingestion", "cron", cfg.IngestCron)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		if scheduler != nil {
			<-scheduler.Stop().Done()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}
