package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/ami-labs/emotion-api/internal/provider"
)

const embeddingDimension = 512

// Provider implements provider.FaceAnalyzer for tests and development.
// Results are deterministic functions of the image bytes so the same frame
// always yields the same face, embedding, and emotion.
type Provider struct{}

// New creates a mock provider
func New() *Provider {
	return &Provider{}
}

// Ensure Provider implements provider.FaceAnalyzer
var _ provider.FaceAnalyzer = (*Provider)(nil)

// DetectFaces pretends any non-trivial payload contains one centered face
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) < 100 {
		return []provider.DetectedFace{}, nil
	}

	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{
				X:      64,
				Y:      48,
				Width:  128,
				Height: 128,
			},
			Confidence: 0.99,
		},
	}, nil
}

// Represent generates a deterministic unit-norm embedding from the image hash
func (p *Provider) Represent(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) < 100 {
		return nil, provider.ErrEmbeddingUnsupported
	}
	return generateEmbedding(image), nil
}

// AnalyzeEmotion derives a stable emotion distribution from the image hash
func (p *Provider) AnalyzeEmotion(ctx context.Context, image []byte) (*provider.EmotionScores, error) {
	hash := sha256.Sum256(image)
	labels := []string{"angry", "disgust", "fear", "happy", "neutral", "sad", "surprise"}

	scores := make(map[string]float64, len(labels))
	total := 0.0
	for i, label := range labels {
		v := float64(hash[i]) + 1
		scores[label] = v
		total += v
	}

	dominant := ""
	top := -1.0
	for label := range scores {
		scores[label] = scores[label] / total * 100
		if scores[label] > top {
			top = scores[label]
			dominant = label
		}
	}

	return &provider.EmotionScores{
		Dominant: dominant,
		Scores:   scores,
	}, nil
}

// generateEmbedding expands the image hash into a unit-length vector
func generateEmbedding(image []byte) []float64 {
	hash := sha256.Sum256(image)

	embedding := make([]float64, embeddingDimension)
	var norm float64
	for i := range embedding {
		seed := binary.BigEndian.Uint32(hash[(i*4)%28 : (i*4)%28+4])
		v := math.Sin(float64(seed) + float64(i))
		embedding[i] = v
		norm += v * v
	}

	norm = math.Sqrt(norm)
	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}
