package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/cache"
	"tally/internal/config"
	"tally/internal/httpapi"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting tally server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The broker is optional: without it the ledger still works, the
	// statement export just never happens.
	var exporter services.ExportPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, statement export disabled", "error", err)
		} else {
			exporter = amqpClient
			defer amqpClient.Close()
		}
	}

	readCache, err := cache.New()
	if err != nil {
		logger.Error("Failed to initialize read cache", "error", err)
		os.Exit(1)
	}
	defer readCache.Close()

	recorder := services.NewActivityRecorder(repo).WithCaps(cfg.ActivityCap, cfg.CommentCap)
	api := httpapi.NewAPI(
		services.NewLedgerService(repo, recorder, exporter),
		services.NewWalletService(repo, recorder),
		services.NewBudgetService(repo, recorder),
		recorder,
		repo,
		readCache,
	)

	auth := httpapi.NewAuthenticator(cfg.JWTSecret)
	limiter := httpapi.NewRateLimiter(cfg.RateLimitPerMinute)
	defer limiter.Stop()
	router := httpapi.NewRouter(auth, api, logger.WithComponent(log.ComponentHTTP), limiter)
	srv := httpapi.NewServer(cfg.Port, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.Port)
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
