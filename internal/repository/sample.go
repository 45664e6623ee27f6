package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/ami-labs/emotion-api/internal/domain"
)

// SampleRepository persists labeled face embeddings so the trainer can
// skip re-embedding images it has already seen.
type SampleRepository struct {
	pool PgxPool
}

func NewSampleRepository(pool PgxPool) *SampleRepository {
	return &SampleRepository{pool: pool}
}

func (r *SampleRepository) Create(ctx context.Context, sample *domain.Sample) error {
	query := `
		INSERT INTO samples (id, label, sha256, embedding, source_url, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		sample.ID,
		sample.Label,
		sample.SHA256,
		toVector(sample.Embedding),
		sample.SourceURL,
	).Scan(&sample.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSampleExists
		}
		return fmt.Errorf("create sample: %w", err)
	}

	return nil
}

func (r *SampleRepository) GetBySHA256(ctx context.Context, sha256 string) (*domain.Sample, error) {
	query := `
		SELECT id, label, sha256, embedding, source_url, created_at
		FROM samples
		WHERE sha256 = $1
	`

	var sample domain.Sample
	var embedding *pgvector.Vector

	err := r.pool.QueryRow(ctx, query, sha256).Scan(
		&sample.ID,
		&sample.Label,
		&sample.SHA256,
		&embedding,
		&sample.SourceURL,
		&sample.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSampleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sample by sha256: %w", err)
	}

	sample.Embedding = fromVector(embedding)
	return &sample, nil
}

func (r *SampleRepository) ListByLabel(ctx context.Context, label string) ([]domain.Sample, error) {
	query := `
		SELECT id, label, sha256, embedding, source_url, created_at
		FROM samples
		WHERE label = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, label)
	if err != nil {
		return nil, fmt.Errorf("list samples by label: %w", err)
	}
	defer rows.Close()

	var samples []domain.Sample
	for rows.Next() {
		var sample domain.Sample
		var embedding *pgvector.Vector

		if err := rows.Scan(
			&sample.ID,
			&sample.Label,
			&sample.SHA256,
			&embedding,
			&sample.SourceURL,
			&sample.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}

		sample.Embedding = fromVector(embedding)
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list samples by label: %w", err)
	}

	return samples, nil
}

func (r *SampleRepository) CountByLabel(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT label, COUNT(*)
		FROM samples
		GROUP BY label
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count samples by label: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("scan sample count: %w", err)
		}
		counts[label] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count samples by label: %w", err)
	}

	return counts, nil
}

func toVector(embedding []float64) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	floats := make([]float32, len(embedding))
	for i, v := range embedding {
		floats[i] = float32(v)
	}
	vec := pgvector.NewVector(floats)
	return &vec
}

func fromVector(vec *pgvector.Vector) []float64 {
	if vec == nil || vec.Slice() == nil {
		return nil
	}
	out := make([]float64, len(vec.Slice()))
	for i, v := range vec.Slice() {
		out[i] = float64(v)
	}
	return out
}
