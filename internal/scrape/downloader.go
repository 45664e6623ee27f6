package scrape

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/ami-labs/emotion-api/internal/dataset"
)

const (
	// Images smaller than this are too low-resolution to embed usefully
	minImageDimension = 80

	maxDownloadBytes = 20 * 1024 * 1024

	pageSize = 50
)

// NegativeQueries are the searches used to collect neutral-face negatives
// for the binary classifiers.
var NegativeQueries = []string{
	"neutral face portrait",
	"blank expression face",
	"calm face person",
	"ordinary person portrait",
	"no expression face",
	"face looking straight",
}

// Downloader fetches search results into a labeled folder, rejecting
// small images and content-hash duplicates.
type Downloader struct {
	client     *Client
	httpClient *http.Client
	saveDir    string
	delay      time.Duration
	logger     *slog.Logger
}

func NewDownloader(client *Client, saveDir string, logger *slog.Logger) *Downloader {
	return &Downloader{
		client:     client,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		saveDir:    saveDir,
		delay:      time.Second,
		logger:     logger,
	}
}

// Fetch downloads up to target images across the queries, paging through
// results with a polite delay between pages. Returns how many were saved.
func (d *Downloader) Fetch(ctx context.Context, queries []string, target int) (int, error) {
	if err := os.MkdirAll(d.saveDir, 0o755); err != nil {
		return 0, fmt.Errorf("create save dir: %w", err)
	}

	downloaded := 0
	for _, query := range queries {
		offset := 0

		for downloaded < target {
			results, err := d.client.Search(ctx, query, pageSize, offset)
			if err != nil {
				return downloaded, fmt.Errorf("search %q: %w", query, err)
			}
			if len(results) == 0 {
				break
			}

			for _, item := range results {
				if item.ContentURL == "" {
					continue
				}

				saved, err := d.download(ctx, item.ContentURL)
				if err != nil {
					d.logger.Debug("skipping image",
						slog.String("url", item.ContentURL),
						slog.Any("error", err),
					)
					continue
				}
				if saved {
					downloaded++
					d.logger.Info("downloaded image",
						slog.Int("count", downloaded),
						slog.Int("target", target),
					)
				}

				if downloaded >= target {
					break
				}
			}

			offset += pageSize

			select {
			case <-ctx.Done():
				return downloaded, ctx.Err()
			case <-time.After(d.delay):
			}
		}

		if downloaded >= target {
			break
		}
	}

	return downloaded, nil
}

// download fetches one image and saves it under its content hash. Returns
// false without error when the image is a duplicate.
func (d *Downloader) download(ctx context.Context, imageURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return false, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width < minImageDimension || cfg.Height < minImageDimension {
		return false, fmt.Errorf("image too small: %dx%d", cfg.Width, cfg.Height)
	}

	filename := filepath.Join(d.saveDir, dataset.HashBytes(data)+".jpg")
	if _, err := os.Stat(filename); err == nil {
		return false, nil
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return false, fmt.Errorf("save image: %w", err)
	}

	return true, nil
}
