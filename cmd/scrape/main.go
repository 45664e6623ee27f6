package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ami-labs/emotion-api/internal/config"
	"github.com/ami-labs/emotion-api/internal/scrape"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	label := flag.String("label", "negative", "Label folder to save images under")
	count := flag.Int("count", 300, "How many images to fetch")
	queries := flag.String("queries", "", "Comma-separated search queries (defaults to the neutral-face set)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	if cfg.BingAPIKey == "" {
		return errors.New("BING_API_KEY is required")
	}

	queryList := scrape.NegativeQueries
	if *queries != "" {
		queryList = nil
		for _, q := range strings.Split(*queries, ",") {
			if q = strings.TrimSpace(q); q != "" {
				queryList = append(queryList, q)
			}
		}
	}
	if len(queryList) == 0 {
		return errors.New("no search queries given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := scrape.NewClient(scrape.Config{
		APIKey:   cfg.BingAPIKey,
		Endpoint: cfg.BingEndpoint,
	})

	saveDir := filepath.Join(cfg.DataDir, *label)
	downloader := scrape.NewDownloader(client, saveDir, logger)

	logger.Info("fetching images",
		slog.String("save_dir", saveDir),
		slog.Int("target", *count),
		slog.Int("queries", len(queryList)),
	)

	downloaded, err := downloader.Fetch(ctx, queryList, *count)
	if err != nil {
		logger.Error("fetch stopped early",
			slog.Int("downloaded", downloaded),
			slog.Any("error", err),
		)
		return err
	}

	logger.Info("done", slog.Int("downloaded", downloaded))
	return nil
}
