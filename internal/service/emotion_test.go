package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ami-labs/emotion-api/internal/classifier"
	"github.com/ami-labs/emotion-api/internal/domain"
	"github.com/ami-labs/emotion-api/internal/provider"
)

// MockAnalyzer is a mock implementation of provider.FaceAnalyzer
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

func (m *MockAnalyzer) Represent(ctx context.Context, image []byte) ([]float64, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

func (m *MockAnalyzer) AnalyzeEmotion(ctx context.Context, image []byte) (*provider.EmotionScores, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.EmotionScores), args.Error(1)
}

// MockDetectionRepo is a mock implementation of DetectionRepositoryInterface
type MockDetectionRepo struct {
	mock.Mock
}

func (m *MockDetectionRepo) Create(ctx context.Context, d *domain.Detection) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFrame returns a Base64-encoded JPEG frame
func testFrame(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240)), nil))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func singleFace() []provider.DetectedFace {
	return []provider.DetectedFace{
		{BoundingBox: provider.BoundingBox{X: 40, Y: 40, Width: 120, Height: 120}, Confidence: 0.95},
	}
}

// overridePipeline returns a pipeline whose "laughing" model always scores
// near 1 for the given embedding dimension.
func overridePipeline(dim int, strong bool) *classifier.Pipeline {
	weight := -10.0
	if strong {
		weight = 10.0
	}

	zeros := make([]float64, dim)
	ones := make([]float64, dim)
	for i := range ones {
		ones[i] = 1
	}

	laughWeights := make([]float64, dim+1)
	laughWeights[dim] = weight // bias only
	otherWeights := make([]float64, dim+1)
	otherWeights[dim] = -10

	return &classifier.Pipeline{
		ModelName: "binary_ovr",
		Scaler:    &classifier.StandardScaler{Mean: zeros, Std: ones},
		OVR: &classifier.OVREnsemble{
			Labels: []string{"confusion", "laughing", "emptiness"},
			Models: map[string]*classifier.BinaryLogistic{
				"confusion": {Weights: otherWeights},
				"laughing":  {Weights: laughWeights},
				"emptiness": {Weights: otherWeights},
			},
		},
	}
}

func TestEmotionService_DetectEmotion_InvalidFrame(t *testing.T) {
	svc := NewEmotionService(&MockAnalyzer{}, nil, testLogger())

	_, err := svc.DetectEmotion(context.Background(), "!!!not-base64!!!")

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrInvalidFrame.Code, appErr.Code)
}

func TestEmotionService_DetectEmotion_NotAnImage(t *testing.T) {
	svc := NewEmotionService(&MockAnalyzer{}, nil, testLogger())
	frame := base64.StdEncoding.EncodeToString([]byte("plain text, not pixels"))

	_, err := svc.DetectEmotion(context.Background(), frame)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrInvalidImage.Code, appErr.Code)
}

func TestEmotionService_DetectEmotion_NoFace(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{}, nil)

	repo := &MockDetectionRepo{}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewEmotionService(analyzer, repo, testLogger())
	detection, err := svc.DetectEmotion(context.Background(), testFrame(t))

	require.NoError(t, err)
	assert.Equal(t, "neutral", detection.Emotion)
	assert.Equal(t, 0.0, detection.Confidence)
	assert.False(t, detection.FaceDetected)
	repo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEmotionService_DetectEmotion_HappyPath(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return(singleFace(), nil)
	analyzer.On("AnalyzeEmotion", mock.Anything, mock.Anything).Return(&provider.EmotionScores{
		Dominant: "happy",
		Scores:   map[string]float64{"happy": 86.5, "neutral": 10.0, "sad": 3.5},
	}, nil)

	svc := NewEmotionService(analyzer, nil, testLogger())
	detection, err := svc.DetectEmotion(context.Background(), testFrame(t))

	require.NoError(t, err)
	assert.Equal(t, "happy", detection.Emotion)
	assert.InDelta(t, 0.865, detection.Confidence, 1e-9)
	assert.True(t, detection.FaceDetected)
	assert.Equal(t, domain.SourcePretrained, detection.Source)
}

func TestEmotionService_DetectEmotion_ConfidenceClamped(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return(singleFace(), nil)
	analyzer.On("AnalyzeEmotion", mock.Anything, mock.Anything).Return(&provider.EmotionScores{
		Dominant: "happy",
		Scores:   map[string]float64{"happy": 130.0},
	}, nil)

	svc := NewEmotionService(analyzer, nil, testLogger())
	detection, err := svc.DetectEmotion(context.Background(), testFrame(t))

	require.NoError(t, err)
	assert.Equal(t, 1.0, detection.Confidence)
}

func TestEmotionService_DetectEmotion_AnalysisFailureIsDegraded(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return(singleFace(), nil)
	analyzer.On("AnalyzeEmotion", mock.Anything, mock.Anything).Return(nil, errors.New("model exploded"))

	svc := NewEmotionService(analyzer, nil, testLogger())
	detection, err := svc.DetectEmotion(context.Background(), testFrame(t))

	require.NoError(t, err, "analysis failure must not be a request error")
	assert.Equal(t, "neutral", detection.Emotion)
	assert.Equal(t, 0.0, detection.Confidence)
	assert.True(t, detection.FaceDetected)
}

func TestEmotionService_DetectEmotion_DetectionFailure(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	svc := NewEmotionService(analyzer, nil, testLogger())
	_, err := svc.DetectEmotion(context.Background(), testFrame(t))

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrAnalyzerUnavailable.Code, appErr.Code)
}

func TestEmotionService_DetectEmotion_SupplementaryOverride(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return(singleFace(), nil)
	analyzer.On("AnalyzeEmotion", mock.Anything, mock.Anything).Return(&provider.EmotionScores{
		Dominant: "neutral",
		Scores:   map[string]float64{"neutral": 55.0},
	}, nil)
	analyzer.On("Represent", mock.Anything, mock.Anything).Return([]float64{1, 1}, nil)

	svc := NewEmotionService(analyzer, nil, testLogger()).
		WithPipeline(overridePipeline(2, true))

	detection, err := svc.DetectEmotion(context.Background(), testFrame(t))

	require.NoError(t, err)
	assert.Equal(t, "laughing", detection.Emotion)
	assert.Equal(t, domain.SourceClassifier, detection.Source)
	assert.Greater(t, detection.Confidence, 0.9)
}

func TestEmotionService_DetectEmotion_SupplementaryBelowThreshold(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return(singleFace(), nil)
	analyzer.On("AnalyzeEmotion", mock.Anything, mock.Anything).Return(&provider.EmotionScores{
		Dominant: "happy",
		Scores:   map[string]float64{"happy": 80.0},
	}, nil)
	analyzer.On("Represent", mock.Anything, mock.Anything).Return([]float64{1, 1}, nil)

	svc := NewEmotionService(analyzer, nil, testLogger()).
		WithPipeline(overridePipeline(2, false))

	detection, err := svc.DetectEmotion(context.Background(), testFrame(t))

	require.NoError(t, err)
	assert.Equal(t, "happy", detection.Emotion)
	assert.Equal(t, domain.SourcePretrained, detection.Source)
}

func TestEmotionService_DetectEmotion_EmbeddingUnsupported(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return(singleFace(), nil)
	analyzer.On("AnalyzeEmotion", mock.Anything, mock.Anything).Return(&provider.EmotionScores{
		Dominant: "sad",
		Scores:   map[string]float64{"sad": 70.0},
	}, nil)
	analyzer.On("Represent", mock.Anything, mock.Anything).Return(nil, provider.ErrEmbeddingUnsupported)

	svc := NewEmotionService(analyzer, nil, testLogger()).
		WithPipeline(overridePipeline(2, true))

	detection, err := svc.DetectEmotion(context.Background(), testFrame(t))

	require.NoError(t, err)
	assert.Equal(t, "sad", detection.Emotion)
	assert.Equal(t, domain.SourcePretrained, detection.Source)
}

func TestEmotionService_DetectEmotion_AuditFailureIgnored(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{}, nil)

	repo := &MockDetectionRepo{}
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewEmotionService(analyzer, repo, testLogger())
	detection, err := svc.DetectEmotion(context.Background(), testFrame(t))

	require.NoError(t, err)
	assert.NotNil(t, detection)
}
