// Command planner loads the stored roster and calendar, runs one scheduling
// pass over the configured window, and prints the resulting schedule as JSON.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-planner/internal/application"
	"github.com/example/shift-planner/internal/config"
	"github.com/example/shift-planner/internal/logging"
	"github.com/example/shift-planner/internal/persistence"
	"github.com/example/shift-planner/internal/persistence/sqlite"
	"github.com/example/shift-planner/internal/scheduler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)
	ctx = logging.ContextWithLogger(ctx, logger)

	store, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	service := application.NewPlannerService(store, store, store, nil, uuid.NewString, time.Now)

	windowStart := time.Now()
	windowEnd := windowStart.AddDate(0, 0, cfg.WindowDays)
	result, err := service.Plan(ctx, application.PlanParams{
		Window: persistence.TimeRange{After: &windowStart, Before: &windowEnd},
		Budget: scheduler.Budget{
			MaxIterations: cfg.Search.MaxIterations,
			TimeLimit:     cfg.Search.TimeLimit,
			Parallelism:   cfg.Search.Parallelism,
		},
	})
	if err != nil {
		logger.Error("planning failed", "error", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
}
