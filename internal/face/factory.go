package face

import (
	"context"
	"fmt"

	"github.com/ami-labs/emotion-api/internal/config"
	"github.com/ami-labs/emotion-api/internal/provider"
	"github.com/ami-labs/emotion-api/internal/provider/deepface"
	"github.com/ami-labs/emotion-api/internal/provider/mock"
	"github.com/ami-labs/emotion-api/internal/provider/rekognition"
)

// AnalyzerType defines supported face analysis backends
type AnalyzerType string

const (
	// AnalyzerTypeDeepFace is the DeepFace backend (local, detect + emotion + embeddings)
	AnalyzerTypeDeepFace AnalyzerType = "deepface"
	// AnalyzerTypeRekognition is the AWS Rekognition backend (cloud, detect + emotion)
	AnalyzerTypeRekognition AnalyzerType = "rekognition"
	// AnalyzerTypeMock is the in-process fake backend for tests
	AnalyzerTypeMock AnalyzerType = "mock"
)

// NewAnalyzer creates a FaceAnalyzer instance based on configuration.
//
// Environment variables:
//   - PROVIDER_TYPE: "deepface", "rekognition" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: via AWS SDK credential chain
func NewAnalyzer(ctx context.Context, cfg *config.Config) (provider.FaceAnalyzer, error) {
	switch AnalyzerType(cfg.ProviderType) {
	case AnalyzerTypeRekognition:
		return newRekognitionAnalyzer(ctx, cfg)

	case AnalyzerTypeDeepFace, "":
		// Default to DeepFace for dev/test environments
		return newDeepFaceAnalyzer(cfg), nil

	case AnalyzerTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, AnalyzerTypeDeepFace, AnalyzerTypeRekognition, AnalyzerTypeMock)
	}
}

// NewEmbeddingAnalyzer creates an analyzer for training workloads. Rekognition
// is rejected because it cannot extract face embeddings.
func NewEmbeddingAnalyzer(cfg *config.Config) (provider.FaceAnalyzer, error) {
	switch AnalyzerType(cfg.ProviderType) {
	case AnalyzerTypeDeepFace, "":
		return newDeepFaceAnalyzer(cfg), nil

	case AnalyzerTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("provider %q cannot extract embeddings for training", cfg.ProviderType)
	}
}

func newRekognitionAnalyzer(ctx context.Context, cfg *config.Config) (provider.FaceAnalyzer, error) {
	prov, err := rekognition.NewProvider(ctx, rekognition.Config{Region: cfg.AWSRegion})
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}
	return prov, nil
}

func newDeepFaceAnalyzer(cfg *config.Config) provider.FaceAnalyzer {
	dfCfg := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		dfCfg.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		dfCfg.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		dfCfg.Detector = cfg.DeepFaceDetector
	}
	return deepface.NewProvider(dfCfg)
}
