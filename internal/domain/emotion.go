package domain

import (
	"time"

	"github.com/google/uuid"
)

// Emotion is a bounded label produced by the pretrained emotion model.
type Emotion string

const (
	EmotionAngry    Emotion = "angry"
	EmotionDisgust  Emotion = "disgust"
	EmotionFear     Emotion = "fear"
	EmotionHappy    Emotion = "happy"
	EmotionNeutral  Emotion = "neutral"
	EmotionSad      Emotion = "sad"
	EmotionSurprise Emotion = "surprise"
)

// PretrainedEmotions is the closed label set of the pretrained model.
var PretrainedEmotions = []Emotion{
	EmotionAngry,
	EmotionDisgust,
	EmotionFear,
	EmotionHappy,
	EmotionNeutral,
	EmotionSad,
	EmotionSurprise,
}

// SupplementaryLabels are the labels the offline-trained classifier covers.
// They are not in the pretrained model's vocabulary.
var SupplementaryLabels = []string{"confusion", "laughing", "emptiness"}

// Detection sources
const (
	SourcePretrained = "pretrained"
	SourceClassifier = "classifier"
)

// IsValidEmotion reports whether the label belongs to the pretrained set.
func IsValidEmotion(label string) bool {
	for _, e := range PretrainedEmotions {
		if string(e) == label {
			return true
		}
	}
	return false
}

// Detection is the result of running a frame through the inference pipeline.
type Detection struct {
	ID           uuid.UUID `json:"id"`
	Emotion      string    `json:"emotion"`
	Confidence   float64   `json:"confidence"`
	FaceDetected bool      `json:"face_detected"`
	Source       string    `json:"source"`
	LatencyMs    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Sample is a training image whose embedding has been extracted and cached.
type Sample struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	SHA256    string    `json:"sha256"`
	Embedding []float64 `json:"-"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
