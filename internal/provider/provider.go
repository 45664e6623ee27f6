package provider

import (
	"context"
	"errors"
)

// ErrEmbeddingUnsupported is returned by backends that cannot expose face
// embeddings. The service layer skips the supplementary classifier when it
// sees this error.
var ErrEmbeddingUnsupported = errors.New("face embeddings not supported by this backend")

// FaceAnalyzer is the contract around the external face-analysis models.
// All coordinates are pixels in the submitted image.
type FaceAnalyzer interface {
	// DetectFaces returns every face found in the image. An empty slice is
	// a valid result, not an error.
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)

	// Represent extracts the embedding of the most prominent face.
	Represent(ctx context.Context, image []byte) ([]float64, error)

	// AnalyzeEmotion runs the pretrained emotion model on the image and
	// returns per-label scores for the most prominent face.
	AnalyzeEmotion(ctx context.Context, image []byte) (*EmotionScores, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the bounding box area in pixels².
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// EmotionScores holds the pretrained model's output for one face.
// Scores are percentages in [0, 100], keyed by lowercase label.
type EmotionScores struct {
	Dominant string             `json:"dominant"`
	Scores   map[string]float64 `json:"scores"`
}

// LargestFace returns the face with the biggest bounding-box area and true,
// or the zero value and false when the slice is empty.
func LargestFace(faces []DetectedFace) (DetectedFace, bool) {
	if len(faces) == 0 {
		return DetectedFace{}, false
	}

	best := faces[0]
	for _, f := range faces[1:] {
		if f.BoundingBox.Area() > best.BoundingBox.Area() {
			best = f
		}
	}
	return best, true
}
