package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftwatch/driftwatch/api"
	"github.com/driftwatch/driftwatch/internal/events"
	"github.com/driftwatch/driftwatch/internal/llm"
	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/internal/predictor"
	"github.com/driftwatch/driftwatch/internal/resilience"
	"github.com/driftwatch/driftwatch/internal/runner"
	"github.com/driftwatch/driftwatch/internal/source"
	"github.com/driftwatch/driftwatch/pkg/config"
	"github.com/driftwatch/driftwatch/pkg/database"
	"github.com/driftwatch/driftwatch/pkg/database/queries"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations")
	once := flag.Bool("once", false, "run a single prediction cycle and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	verCtx, verCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if version, err := db.ServerVersion(verCtx); err == nil {
		logger.Debugf("Connected to %s", version)
	}
	verCancel()

	if *migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	src, err := buildSource(cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to build metric source: %w", err)
	}
	defer src.Close()

	bus := events.NewEventBus(cfg.Events.BufferSize)
	defer bus.Close()

	eventLogger := events.NewEventLogger(bus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	publisher := events.NewPublisher(bus)

	model := llm.NewResilientClient(llm.ResilientClientConfig{
		Client: llm.NewOllamaClient(llm.OllamaConfig{
			Endpoint:    cfg.Model.Endpoint,
			Model:       cfg.Model.Name,
			Timeout:     cfg.Model.Timeout,
			Temperature: cfg.Model.Temperature,
			TopP:        cfg.Model.TopP,
		}),
		MaxFailures:   cfg.Model.CircuitBreaker.MaxFailures,
		Timeout:       cfg.Model.CircuitBreaker.Timeout,
		RetryAttempts: cfg.Model.RetryAttempts,
		RetryDelay:    cfg.Model.RetryDelay,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warnf("Circuit %q: %s -> %s", name, from, to)
			if to == resilience.StateOpen {
				publisher.ModelUnreachable(
					fmt.Errorf("circuit opened after repeated completion failures"))
			}
		},
	})
	defer model.Close()

	repo := queries.NewPredictionRepository(db)

	predRunner := runner.New(runner.Config{
		Source:     src,
		Requester:  predictor.New(predictor.Config{Client: model}),
		Store:      repo,
		Publisher:  publisher,
		Thresholds: cfg.Predictor.Threshold,
		Lookback:   cfg.Source.Lookback,
		Interval:   cfg.Predictor.Interval,
	})

	if *once {
		cycleTimeout := cfg.Predictor.Interval
		if cycleTimeout <= 0 {
			cycleTimeout = 5 * time.Minute
		}
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()

		summary, err := predRunner.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("prediction cycle failed: %w", err)
		}
		logger.Infof("Cycle complete: %d pairs, %d predicted, %d fallbacks, %d skipped, %d failed",
			summary.Pairs, summary.Predicted, summary.Fallbacks, summary.Skipped, summary.Failed)
		return nil
	}

	if err := predRunner.Start(); err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}
	defer predRunner.Stop()

	server := api.NewServer(cfg, api.Deps{
		DB:     db,
		Repo:   repo,
		Model:  model,
		Source: src,
		Runner: predRunner,
		Bus:    bus,
	})

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func buildSource(cfg config.SourceConfig) (source.Source, error) {
	switch cfg.Type {
	case "csv":
		return source.NewCSVSource(cfg.Path)
	case "synthetic", "":
		gen := source.GeneratorConfig{
			Seed:        cfg.Synthetic.Seed,
			Hosts:       cfg.Synthetic.Hosts,
			Samples:     cfg.Synthetic.Samples,
			Interval:    cfg.Synthetic.Interval,
			AnomalyRate: cfg.Synthetic.AnomalyRate,
		}
		if cfg.Synthetic.Start != "" {
			start, err := time.Parse(time.RFC3339, cfg.Synthetic.Start)
			if err != nil {
				return nil, fmt.Errorf("invalid synthetic start time: %w", err)
			}
			gen.Start = start
		}
		return source.NewSyntheticSource(gen), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}
