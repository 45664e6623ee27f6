package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ami-labs/emotion-api/internal/classifier"
	"github.com/ami-labs/emotion-api/internal/domain"
	"github.com/ami-labs/emotion-api/internal/provider"
	"github.com/ami-labs/emotion-api/internal/vision"
)

type DetectionRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Detection) error
}

// EmotionService turns a raw frame into a bounded, confidence-scored label.
// The pretrained model always runs; the supplementary pipeline, when loaded,
// may override the label for its own vocabulary.
type EmotionService struct {
	analyzer          provider.FaceAnalyzer
	pipeline          *classifier.Pipeline
	detectionRepo     DetectionRepositoryInterface
	overrideThreshold float64
	logger            *slog.Logger
}

func NewEmotionService(
	analyzer provider.FaceAnalyzer,
	detectionRepo DetectionRepositoryInterface,
	logger *slog.Logger,
) *EmotionService {
	return &EmotionService{
		analyzer:          analyzer,
		detectionRepo:     detectionRepo,
		overrideThreshold: 0.60,
		logger:            logger,
	}
}

// WithPipeline attaches a supplementary classifier pipeline
func (s *EmotionService) WithPipeline(p *classifier.Pipeline) *EmotionService {
	s.pipeline = p
	return s
}

// WithOverrideThreshold sets the minimum supplementary probability that can
// beat the pretrained model
func (s *EmotionService) WithOverrideThreshold(threshold float64) *EmotionService {
	s.overrideThreshold = threshold
	return s
}

// DetectEmotion runs the full inference pipeline on a Base64-encoded frame.
//
// Failure handling follows the serving contract: an undecodable frame is a
// client error, but a frame with no face or a failed emotion analysis is a
// degraded success (neutral with zero confidence), because the caller streams
// frames continuously and must not treat empty ones as faults.
func (s *EmotionService) DetectEmotion(ctx context.Context, frame string) (*domain.Detection, error) {
	start := time.Now()

	raw, err := vision.DecodeBase64(frame)
	if err != nil {
		return nil, domain.ErrInvalidFrame.WithError(err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrInvalidFrame.WithError(errors.New("empty frame"))
	}

	if err := vision.SniffFrame(raw); err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	img, err := vision.DecodeImage(raw)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	faces, err := s.analyzer.DetectFaces(ctx, raw)
	if err != nil {
		return nil, domain.ErrAnalyzerUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
	}

	face, found := provider.LargestFace(faces)
	if !found {
		s.logger.Debug("no faces detected in frame")
		return s.finish(ctx, &domain.Detection{
			Emotion:      string(domain.EmotionNeutral),
			Confidence:   0,
			FaceDetected: false,
			Source:       domain.SourcePretrained,
		}, start), nil
	}

	crop, err := vision.EncodeJPEG(vision.CropFace(img, face.BoundingBox))
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	detection := s.analyze(ctx, crop)
	return s.finish(ctx, detection, start), nil
}

// analyze runs the pretrained model and the optional supplementary
// classifier on the cropped face, merging their outputs.
func (s *EmotionService) analyze(ctx context.Context, crop []byte) *domain.Detection {
	detection := &domain.Detection{
		Emotion:      string(domain.EmotionNeutral),
		Confidence:   0,
		FaceDetected: true,
		Source:       domain.SourcePretrained,
	}

	scores, err := s.analyzer.AnalyzeEmotion(ctx, crop)
	if err != nil {
		// Degraded path: the face exists but the model gave nothing usable
		s.logger.Warn("emotion analysis failed", slog.Any("error", err))
	} else {
		detection.Emotion = scores.Dominant
		detection.Confidence = clamp01(scores.Scores[scores.Dominant] / 100.0)
	}

	s.applySupplementary(ctx, crop, detection)
	return detection
}

// applySupplementary lets the offline-trained classifier override the
// pretrained label when it is both confident and more confident.
func (s *EmotionService) applySupplementary(ctx context.Context, crop []byte, detection *domain.Detection) {
	if s.pipeline == nil {
		return
	}

	embedding, err := s.analyzer.Represent(ctx, crop)
	if err != nil {
		if !errors.Is(err, provider.ErrEmbeddingUnsupported) {
			s.logger.Warn("embedding extraction failed", slog.Any("error", err))
		}
		return
	}

	pred, err := s.pipeline.Predict(embedding)
	if err != nil {
		s.logger.Warn("supplementary prediction failed", slog.Any("error", err))
		return
	}

	if pred.Probability >= s.overrideThreshold && pred.Probability > detection.Confidence {
		detection.Emotion = pred.Label
		detection.Confidence = pred.Probability
		detection.Source = domain.SourceClassifier
	}
}

// finish stamps latency and records the detection. Audit failure never
// affects the response; the result was already determined.
func (s *EmotionService) finish(ctx context.Context, d *domain.Detection, start time.Time) *domain.Detection {
	d.LatencyMs = time.Since(start).Milliseconds()

	if s.detectionRepo != nil {
		if err := s.detectionRepo.Create(ctx, d); err != nil {
			s.logger.Warn("failed to record detection", slog.Any("error", err))
		}
	}

	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
