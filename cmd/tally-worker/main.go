package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/export"
	exportgoogle "tally/internal/export/google"
	exportmemory "tally/internal/export/memory"
	"tally/internal/log"
	"tally/internal/storage"
	"tally/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting tally-worker")

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Statement destination: the spreadsheet when configured, an
	// in-memory sink otherwise so local runs still drain the queue.
	var writer export.StatementWriter
	if cfg.ExportConfigured() {
		client, err := exportgoogle.New(ctx, exportgoogle.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize statement client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Statement export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = exportmemory.New()
		logger.Info("No spreadsheet configured, using in-memory statement")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, repo, writer)

	// Audit balances once at startup, then on every tick.
	if err := exportWorker.Reconcile(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
	}

	go func() {
		ticker := time.NewTicker(cfg.ReconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exportWorker.Reconcile(ctx); err != nil {
					logger.Error("Reconciliation sweep failed", "error", err)
				}
			}
		}
	}()

	err = amqpClient.ConsumeTransactionExports(ctx, func(msg *amqp.TransactionExportMessage) error {
		return exportWorker.HandleExportMessage(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
