package trainer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ami-labs/emotion-api/internal/dataset"
	"github.com/ami-labs/emotion-api/internal/domain"
	"github.com/ami-labs/emotion-api/internal/provider"
	"github.com/ami-labs/emotion-api/internal/repository"
)

// Embedder turns an image into a face embedding
type Embedder interface {
	Embed(ctx context.Context, image []byte, label string) ([]float64, error)
}

// ProviderEmbedder extracts embeddings through the face-analysis provider,
// with an optional Postgres cache keyed by content hash so re-runs of the
// trainer skip images already embedded.
type ProviderEmbedder struct {
	analyzer provider.FaceAnalyzer
	samples  repository.SampleRepositoryInterface
	logger   *slog.Logger
}

// NewProviderEmbedder creates an embedder. samples may be nil to disable
// the cache.
func NewProviderEmbedder(analyzer provider.FaceAnalyzer, samples repository.SampleRepositoryInterface, logger *slog.Logger) *ProviderEmbedder {
	return &ProviderEmbedder{
		analyzer: analyzer,
		samples:  samples,
		logger:   logger,
	}
}

func (e *ProviderEmbedder) Embed(ctx context.Context, image []byte, label string) ([]float64, error) {
	hash := dataset.HashBytes(image)

	if e.samples != nil {
		cached, err := e.samples.GetBySHA256(ctx, hash)
		if err == nil && len(cached.Embedding) > 0 {
			return cached.Embedding, nil
		}
		if err != nil && !errors.Is(err, domain.ErrSampleNotFound) {
			e.logger.Warn("embedding cache lookup failed", slog.Any("error", err))
		}
	}

	embedding, err := e.analyzer.Represent(ctx, image)
	if err != nil {
		return nil, err
	}

	if e.samples != nil {
		sample := &domain.Sample{
			Label:     label,
			SHA256:    hash,
			Embedding: embedding,
		}
		if err := e.samples.Create(ctx, sample); err != nil && !errors.Is(err, domain.ErrSampleExists) {
			e.logger.Warn("embedding cache write failed", slog.Any("error", err))
		}
	}

	return embedding, nil
}
