// GridPay - Payin grids in, payout grids out.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/opensource-finance/gridpay/internal/api"
	"github.com/opensource-finance/gridpay/internal/bus"
	"github.com/opensource-finance/gridpay/internal/cache"
	"github.com/opensource-finance/gridpay/internal/domain"
	"github.com/opensource-finance/gridpay/internal/engine"
	"github.com/opensource-finance/gridpay/internal/extract"
	"github.com/opensource-finance/gridpay/internal/process"
	"github.com/opensource-finance/gridpay/internal/repository"
	"github.com/opensource-finance/gridpay/internal/stats"
	"github.com/opensource-finance/gridpay/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("GRIDPAY_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting gridpay",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := loadConfig()

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize decision table engine
	eng, err := engine.NewEngine(logger)
	if err != nil {
		slog.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}

	if err := loadDecisionTable(ctx, cfg, repo, eng); err != nil {
		slog.Error("failed to load decision table", "error", err)
		os.Exit(1)
	}
	slog.Info("engine initialized", "rules_count", eng.RuleCount())

	// Initialize batch processor
	processor := process.NewProcessor(eng, busImpl, cfg.Process.MaxWorkers, logger)

	// Initialize vision extractor (optional)
	var extractor extract.Extractor
	if cfg.Extract.Provider == "openai" {
		ex, err := extract.NewOpenAIExtractor(cfg.Extract, logger)
		if err != nil {
			slog.Error("failed to initialize extractor", "error", err)
			os.Exit(1)
		}
		extractor = ex
		slog.Info("extractor initialized", "provider", cfg.Extract.Provider, "model", cfg.Extract.Model)
	} else {
		slog.Info("no extractor configured - upload processing disabled")
	}

	// Initialize stats tracker and audit worker
	tracker := stats.NewTracker()
	auditWorker := worker.NewWorker(busImpl, repo, tracker, logger)
	if err := auditWorker.Start(); err != nil {
		slog.Error("failed to start audit worker", "error", err)
		os.Exit(1)
	}

	// Initialize Server
	resultTTL := time.Duration(cfg.Process.ResultTTL) * time.Second
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, eng, processor, extractor, tracker, resultTTL, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("gridpay is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	if err := auditWorker.Stop(); err != nil {
		slog.Error("failed to stop audit worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("gridpay shutdown complete")
}

// loadConfig builds the configuration from tier defaults plus environment
// overrides.
func loadConfig() *domain.Config {
	cfg := domain.DefaultConfig()
	if os.Getenv("GRIDPAY_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	if port := os.Getenv("GRIDPAY_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if path := os.Getenv("GRIDPAY_DB_PATH"); path != "" {
		cfg.Repository.SQLitePath = path
	}
	if file := os.Getenv("GRIDPAY_TABLE_FILE"); file != "" {
		cfg.Table.File = file
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Extract.APIKey = key
		cfg.Extract.Provider = "openai"
	}
	if model := os.Getenv("GRIDPAY_EXTRACT_MODEL"); model != "" {
		cfg.Extract.Model = model
	}

	return cfg
}

// loadDecisionTable resolves the active table by priority: explicit file,
// then the repository's active table, then the built-in grid.
func loadDecisionTable(ctx context.Context, cfg *domain.Config, repo domain.Repository, eng *engine.Engine) error {
	if cfg.Table.File != "" {
		spec, err := engine.LoadSpecFile(cfg.Table.File)
		if err != nil {
			return err
		}
		slog.Info("loading decision table from file", "file", cfg.Table.File, "name", spec.Name)
		return eng.LoadSpec(spec)
	}

	spec, err := repo.GetActiveTable(ctx)
	if err == nil {
		slog.Info("loading active decision table from repository", "name", spec.Name)
		return eng.LoadSpec(spec)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		slog.Warn("failed to read active table from repository", "error", err)
	}

	slog.Info("loading built-in decision table")
	return eng.LoadSpec(engine.BuiltinSpec())
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ==============================================")
	fmt.Println("                 GRIDPAY")
	fmt.Println("       Payin grids in, payout grids out.")
	fmt.Println("  ==============================================")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /api/v1/process                  - Process a batch of records")
	fmt.Println("    POST /api/v1/process/upload           - Extract and process a grid image")
	fmt.Println("    GET  /api/v1/batches/{id}/export      - Export a processed batch")
	fmt.Println("    GET  /api/v1/tables                   - List decision tables")
	fmt.Println("    GET  /api/v1/tables/active            - Show the active table")
	fmt.Println("    POST /api/v1/tables                   - Upload a table spec (?activate=true)")
	fmt.Println("    GET  /api/v1/stats/{company}          - Per-company processing stats")
	fmt.Println("    GET  /health                          - Health check")
	fmt.Println()
}
