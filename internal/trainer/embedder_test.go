package trainer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ami-labs/emotion-api/internal/dataset"
	"github.com/ami-labs/emotion-api/internal/domain"
	"github.com/ami-labs/emotion-api/internal/provider"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

func (m *mockAnalyzer) Represent(ctx context.Context, image []byte) ([]float64, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

func (m *mockAnalyzer) AnalyzeEmotion(ctx context.Context, image []byte) (*provider.EmotionScores, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.EmotionScores), args.Error(1)
}

func TestProviderEmbedder_CacheHit(t *testing.T) {
	image := []byte("cached image")
	hash := dataset.HashBytes(image)

	analyzer := &mockAnalyzer{}

	samples := &mockSamples{}
	samples.On("GetBySHA256", mock.Anything, hash).Return(&domain.Sample{
		SHA256:    hash,
		Embedding: []float64{1, 2, 3},
	}, nil)

	embedder := NewProviderEmbedder(analyzer, samples, testLogger())
	embedding, err := embedder.Embed(context.Background(), image, "laughing")

	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, embedding)
	analyzer.AssertNotCalled(t, "Represent", mock.Anything, mock.Anything)
}

func TestProviderEmbedder_CacheMiss(t *testing.T) {
	image := []byte("new image")
	hash := dataset.HashBytes(image)

	analyzer := &mockAnalyzer{}
	analyzer.On("Represent", mock.Anything, image).Return([]float64{4, 5}, nil)

	samples := &mockSamples{}
	samples.On("GetBySHA256", mock.Anything, hash).Return(nil, domain.ErrSampleNotFound)
	samples.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Sample) bool {
		return s.SHA256 == hash && s.Label == "confusion"
	})).Return(nil)

	embedder := NewProviderEmbedder(analyzer, samples, testLogger())
	embedding, err := embedder.Embed(context.Background(), image, "confusion")

	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5}, embedding)
	samples.AssertExpectations(t)
}

func TestProviderEmbedder_NoCache(t *testing.T) {
	image := []byte("image without cache")

	analyzer := &mockAnalyzer{}
	analyzer.On("Represent", mock.Anything, image).Return([]float64{9}, nil)

	embedder := NewProviderEmbedder(analyzer, nil, testLogger())
	embedding, err := embedder.Embed(context.Background(), image, "x")

	require.NoError(t, err)
	assert.Equal(t, []float64{9}, embedding)
}

func TestProviderEmbedder_CacheWriteFailureIgnored(t *testing.T) {
	image := []byte("image with broken cache")
	hash := dataset.HashBytes(image)

	analyzer := &mockAnalyzer{}
	analyzer.On("Represent", mock.Anything, image).Return([]float64{1}, nil)

	samples := &mockSamples{}
	samples.On("GetBySHA256", mock.Anything, hash).Return(nil, domain.ErrSampleNotFound)
	samples.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	embedder := NewProviderEmbedder(analyzer, samples, testLogger())
	embedding, err := embedder.Embed(context.Background(), image, "x")

	require.NoError(t, err)
	assert.Equal(t, []float64{1}, embedding)
}

func TestProviderEmbedder_RepresentFailure(t *testing.T) {
	analyzer := &mockAnalyzer{}
	analyzer.On("Represent", mock.Anything, mock.Anything).Return(nil, errors.New("no face"))

	embedder := NewProviderEmbedder(analyzer, nil, testLogger())
	_, err := embedder.Embed(context.Background(), []byte("img"), "x")

	assert.Error(t, err)
}
