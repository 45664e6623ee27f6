package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/ami-labs/emotion-api/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.FaceAnalyzer using the DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// DetectFaces detects faces in the image
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		faceArea := float64(result.FacialArea.W * result.FacialArea.H)

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence: calculateConfidence(faceArea),
		})
	}

	return faces, nil
}

// calculateConfidence estimates confidence based on face area.
// DeepFace doesn't return detection confidence, larger faces are more
// likely to be accurately detected.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// Represent extracts the embedding of the most prominent face
func (p *Provider) Represent(ctx context.Context, image []byte) ([]float64, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("represent face: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	best := resp.Results[0]
	for _, r := range resp.Results[1:] {
		if r.FacialArea.W*r.FacialArea.H > best.FacialArea.W*best.FacialArea.H {
			best = r
		}
	}

	return best.Embedding, nil
}

// AnalyzeEmotion runs the pretrained emotion model on the image
func (p *Provider) AnalyzeEmotion(ctx context.Context, image []byte) (*provider.EmotionScores, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Analyze(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("analyze emotion: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, ErrNoEmotionInResponse
	}

	best := resp.Results[0]
	for _, r := range resp.Results[1:] {
		if r.Region.W*r.Region.H > best.Region.W*best.Region.H {
			best = r
		}
	}

	if len(best.Emotion) == 0 {
		return nil, ErrNoEmotionInResponse
	}

	scores := make(map[string]float64, len(best.Emotion))
	for label, pct := range best.Emotion {
		scores[strings.ToLower(label)] = pct
	}

	dominant := strings.ToLower(best.DominantEmotion)
	if dominant == "" {
		top := math.Inf(-1)
		for label, pct := range scores {
			if pct > top {
				top = pct
				dominant = label
			}
		}
	}

	return &provider.EmotionScores{
		Dominant: dominant,
		Scores:   scores,
	}, nil
}

// Ensure Provider implements provider.FaceAnalyzer
var _ provider.FaceAnalyzer = (*Provider)(nil)
