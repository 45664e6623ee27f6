package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ami-labs/emotion-api/internal/api"
	"github.com/ami-labs/emotion-api/internal/classifier"
	"github.com/ami-labs/emotion-api/internal/config"
	"github.com/ami-labs/emotion-api/internal/database"
	"github.com/ami-labs/emotion-api/internal/face"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Emotion API",
		slog.String("environment", cfg.Environment),
		slog.String("provider", cfg.ProviderType),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database pool for detection audit and readiness checks
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Face analysis provider
	analyzer, err := face.NewAnalyzer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	// Supplementary classifier pipeline, optional
	var pipeline *classifier.Pipeline
	if cfg.PipelinePath != "" {
		pipeline, err = classifier.LoadPipeline(cfg.PipelinePath)
		if err != nil {
			return fmt.Errorf("failed to load pipeline: %w", err)
		}
		logger.Info("supplementary pipeline loaded",
			slog.String("path", cfg.PipelinePath),
			slog.String("model", pipeline.ModelName),
		)
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Analyzer:          analyzer,
		Pipeline:          pipeline,
		OverrideThreshold: cfg.OverrideThreshold,
		AllowOrigins:      cfg.AllowOrigins,
		DB:                pool,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
