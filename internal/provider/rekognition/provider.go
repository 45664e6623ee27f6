package rekognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/ami-labs/emotion-api/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100

	errCodeAccessDenied = "AccessDeniedException"
)

// emotionMap translates Rekognition emotion types to the pretrained label
// set. CONFUSED and UNKNOWN have no counterpart and fold into neutral; the
// supplementary classifier covers confusion separately.
var emotionMap = map[types.EmotionName]string{
	types.EmotionNameHappy:     "happy",
	types.EmotionNameSad:       "sad",
	types.EmotionNameAngry:     "angry",
	types.EmotionNameDisgusted: "disgust",
	types.EmotionNameSurprised: "surprise",
	types.EmotionNameFear:      "fear",
	types.EmotionNameCalm:      "neutral",
	types.EmotionNameConfused:  "neutral",
	types.EmotionNameUnknown:   "neutral",
}

// Provider implements provider.FaceAnalyzer using AWS Rekognition.
// Rekognition does not expose face embeddings, so Represent reports
// provider.ErrEmbeddingUnsupported and serving falls back to the
// pretrained model alone.
type Provider struct {
	client *Client
}

// Ensure Provider implements provider.FaceAnalyzer at compile time
var _ provider.FaceAnalyzer = (*Provider)(nil)

// NewProvider creates a new Rekognition provider
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return &Provider{client: client}, nil
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(img []byte) error {
	if len(img) == 0 {
		return ErrInvalidImage
	}
	if len(img) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(img), minImageSize)
	}
	if len(img) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(img), maxImageSize)
	}
	return nil
}

// DetectFaces detects faces using the Rekognition DetectFaces API.
// Rekognition returns bounding boxes as ratios of the frame, converted
// here to pixels so all backends share the same coordinate space.
func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}

	width, height, err := imageDimensions(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: img,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := p.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return nil, wrapAWSError("detect faces", err)
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}

		confidence := 0.0
		if detail.Confidence != nil {
			confidence = float64(*detail.Confidence) / 100.0
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(derefF32(detail.BoundingBox.Left)) * width,
				Y:      float64(derefF32(detail.BoundingBox.Top)) * height,
				Width:  float64(derefF32(detail.BoundingBox.Width)) * width,
				Height: float64(derefF32(detail.BoundingBox.Height)) * height,
			},
			Confidence: confidence,
		})
	}

	return faces, nil
}

// Represent is not supported by Rekognition
func (p *Provider) Represent(ctx context.Context, img []byte) ([]float64, error) {
	return nil, provider.ErrEmbeddingUnsupported
}

// AnalyzeEmotion runs DetectFaces with full attributes and converts the
// emotion distribution of the largest face to the pretrained label set.
func (p *Provider) AnalyzeEmotion(ctx context.Context, img []byte) (*provider.EmotionScores, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: img,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	}

	output, err := p.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return nil, wrapAWSError("analyze emotion", err)
	}

	if len(output.FaceDetails) == 0 {
		return nil, ErrNoFaceDetected
	}

	best := largestDetail(output.FaceDetails)
	if len(best.Emotions) == 0 {
		return nil, ErrNoFaceDetected
	}

	scores := make(map[string]float64)
	for _, e := range best.Emotions {
		label, ok := emotionMap[e.Type]
		if !ok {
			label = strings.ToLower(string(e.Type))
		}
		// CALM/CONFUSED/UNKNOWN can collapse onto neutral, keep the max
		pct := float64(derefF32(e.Confidence))
		if pct > scores[label] {
			scores[label] = pct
		}
	}

	dominant := ""
	top := -1.0
	for label, pct := range scores {
		if pct > top {
			top = pct
			dominant = label
		}
	}

	return &provider.EmotionScores{
		Dominant: dominant,
		Scores:   scores,
	}, nil
}

// largestDetail returns the face detail with the biggest bounding box
func largestDetail(details []types.FaceDetail) types.FaceDetail {
	best := details[0]
	bestArea := float32(0)
	for _, d := range details {
		if d.BoundingBox == nil {
			continue
		}
		area := derefF32(d.BoundingBox.Width) * derefF32(d.BoundingBox.Height)
		if area > bestArea {
			bestArea = area
			best = d
		}
	}
	return best
}

// imageDimensions reads image dimensions without a full decode
func imageDimensions(img []byte) (width, height float64, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

// wrapAWSError normalizes AWS SDK failures
func wrapAWSError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == errCodeAccessDenied {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func derefF32(f *float32) float32 {
	if f == nil {
		return 0
	}
	return *f
}
