package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ami-labs/emotion-api/internal/domain"
	"github.com/ami-labs/emotion-api/internal/vision"
)

// Base64 inflates the payload by 4/3, so the request cap follows from the
// decoded frame cap.
const maxEncodedFrameSize = vision.MaxFrameBytes * 4 / 3

// EmotionDetector interface for the service
type EmotionDetector interface {
	DetectEmotion(ctx context.Context, frame string) (*domain.Detection, error)
}

// EmotionHandler handles emotion detection requests
type EmotionHandler struct {
	service EmotionDetector
	logger  *slog.Logger
}

func NewEmotionHandler(service EmotionDetector, logger *slog.Logger) *EmotionHandler {
	return &EmotionHandler{
		service: service,
		logger:  logger,
	}
}

// DetectEmotionRequest is the request body for POST /detect_emotion
type DetectEmotionRequest struct {
	Frame string `json:"frame"`
}

// DetectEmotionResponse is the response body for POST /detect_emotion
type DetectEmotionResponse struct {
	Emotion      string  `json:"emotion"`
	Confidence   float64 `json:"confidence"`
	FaceDetected bool    `json:"face_detected"`
	Source       string  `json:"source"`
}

// DetectEmotion POST /detect_emotion - classify the emotion on the largest face
func (h *EmotionHandler) DetectEmotion(c *fiber.Ctx) error {
	var req DetectEmotionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if req.Frame == "" {
		return domain.ErrValidationFailed.WithError(errors.New("frame is required"))
	}
	if len(req.Frame) > maxEncodedFrameSize {
		return domain.ErrFrameTooLarge
	}

	detection, err := h.service.DetectEmotion(c.Context(), req.Frame)
	if err != nil {
		return err
	}

	return c.JSON(DetectEmotionResponse{
		Emotion:      detection.Emotion,
		Confidence:   detection.Confidence,
		FaceDetected: detection.FaceDetected,
		Source:       detection.Source,
	})
}
