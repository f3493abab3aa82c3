package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"docrag/internal/activities"
	"docrag/internal/app"
	"docrag/internal/config"
	"docrag/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

var errTemporalDisabled = errors.New("DOCRAG_TEMPORAL_ADDRESS is required for the worker")

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(context.Background(), cfg, logger, worker.InterruptCh()); err != nil {
		logger.Error("worker exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run hosts the ingest workflow and activity until interrupt fires.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger, interrupt <-chan interface{}) error {
	if !cfg.TemporalEnabled() {
		return errTemporalDisabled
	}
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer a.Close()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		return fmt.Errorf("temporal dial %s: %w", cfg.TemporalAddress, err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(a.Ingester))

	logger.Info("docrag worker listening",
		zap.String("address", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
	)
	if err := w.Run(interrupt); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}
