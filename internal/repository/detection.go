package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ami-labs/emotion-api/internal/domain"
)

// DetectionRepository records served detections for offline analysis.
// Writes are best effort; the caller decides whether failures matter.
type DetectionRepository struct {
	pool PgxPool
}

func NewDetectionRepository(pool PgxPool) *DetectionRepository {
	return &DetectionRepository{pool: pool}
}

// Create inserts a new detection audit record
func (r *DetectionRepository) Create(ctx context.Context, detection *domain.Detection) error {
	query := `
		INSERT INTO detections (id, emotion, confidence, face_detected, source, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	if detection.ID == uuid.Nil {
		detection.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		detection.ID,
		detection.Emotion,
		detection.Confidence,
		detection.FaceDetected,
		detection.Source,
		detection.LatencyMs,
	).Scan(&detection.CreatedAt)

	if err != nil {
		return fmt.Errorf("create detection: %w", err)
	}

	return nil
}
