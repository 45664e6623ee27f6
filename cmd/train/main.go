package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ami-labs/emotion-api/internal/config"
	"github.com/ami-labs/emotion-api/internal/database"
	"github.com/ami-labs/emotion-api/internal/face"
	"github.com/ami-labs/emotion-api/internal/repository"
	"github.com/ami-labs/emotion-api/internal/trainer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "", "Directory of label-named image folders (defaults to DATA_DIR)")
	output := flag.String("output", "pipeline.json", "Where to write the trained pipeline")
	mode := flag.String("mode", "multiclass", "Training mode: multiclass or ovr")
	balanced := flag.Bool("balanced", false, "Use balanced class weights (ovr mode)")
	calibrate := flag.Bool("calibrate", false, "Platt-calibrate probabilities (ovr mode)")
	negSample := flag.Int("neg-sample-size", 20, "Neutral images sampled as negatives (ovr mode)")
	noCache := flag.Bool("no-cache", false, "Skip the Postgres embedding cache")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	if *dataDir == "" {
		*dataDir = cfg.DataDir
	}
	if _, err := os.Stat(*dataDir); err != nil {
		return fmt.Errorf("data dir does not exist: %s", *dataDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := face.NewEmbeddingAnalyzer(cfg)
	if err != nil {
		return err
	}

	// Embedding cache is best effort; train without it if Postgres is down
	var samples repository.SampleRepositoryInterface
	if !*noCache {
		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			logger.Warn("embedding cache unavailable, training without it", slog.Any("error", err))
		} else {
			defer pool.Close()
			samples = repository.NewSampleRepository(pool)
		}
	}

	embedder := trainer.NewProviderEmbedder(analyzer, samples, logger)
	tr := trainer.New(embedder, logger)

	switch *mode {
	case "multiclass":
		X, y, err := tr.BuildDataset(ctx, *dataDir)
		if err != nil {
			return fmt.Errorf("build dataset: %w", err)
		}
		logger.Info("dataset ready", slog.Int("samples", len(X)))

		pipeline, _, err := tr.Train(X, y, trainer.DefaultOptions())
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}

		if err := pipeline.Save(*output); err != nil {
			return err
		}
		logger.Info("pipeline saved",
			slog.String("path", *output),
			slog.String("model", pipeline.ModelName),
		)

	case "ovr":
		opts := trainer.DefaultOVROptions()
		opts.Balanced = *balanced
		opts.Calibrate = *calibrate
		opts.NegSampleSize = *negSample

		pipeline, err := tr.TrainOVR(ctx, *dataDir, opts)
		if err != nil {
			return fmt.Errorf("train ovr: %w", err)
		}

		if err := pipeline.Save(*output); err != nil {
			return err
		}
		logger.Info("ovr pipeline saved",
			slog.String("path", *output),
			slog.Int("models", len(pipeline.OVR.Models)),
		)

	default:
		return fmt.Errorf("invalid mode: %s (use: multiclass, ovr)", *mode)
	}

	return nil
}
