package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/sheets"
	gsheet "tally/internal/sheets/google"
	"tally/internal/store"
	"tally/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting tally-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}
	defer st.Close()

	// Sheets export is optional; without a spreadsheet the worker only
	// evaluates budget alerts.
	var writer sheets.RecordWriter
	if cfg.SheetsSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Sheets export enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID, "sheet", cfg.SheetsSheetName)
	} else {
		logger.Info("Sheets export disabled - no SHEETS_SPREADSHEET_ID provided")
	}

	w := worker.NewAlertWorker(st, writer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqp.ConsumeWithReconnect(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(msg *amqp.ChangeMessage) error {
			return w.HandleChange(gctx, msg)
		})
	})
	g.Go(func() error {
		return w.RunPeriodic(gctx, cfg.AlertInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLiteDBPath)
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.PostgresURL)
	default:
		if cfg.SeedFile != "" {
			return store.NewMemoryStoreFromFile(cfg.SeedFile), nil
		}
		return store.NewMemoryStore(), nil
	}
}
