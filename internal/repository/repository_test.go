package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ami-labs/emotion-api/internal/domain"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func testEmbedding(dim int) []float64 {
	out := make([]float64, dim)
	for i := range out {
		out[i] = float64(i) * 0.01
	}
	return out
}

// SampleRepository tests

func TestSampleRepository_Create(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "successful insert",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO samples`).
					WithArgs(pgxmock.AnyArg(), "laughing", "abc123", pgxmock.AnyArg(), "").
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
			},
		},
		{
			name: "duplicate content hash",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO samples`).
					WithArgs(pgxmock.AnyArg(), "laughing", "abc123", pgxmock.AnyArg(), "").
					WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "samples_sha256_key" (SQLSTATE 23505)`))
			},
			wantErr: domain.ErrSampleExists,
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO samples`).
					WithArgs(pgxmock.AnyArg(), "laughing", "abc123", pgxmock.AnyArg(), "").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("create sample"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			tt.mockSetup(mock)

			repo := NewSampleRepository(mock)
			sample := &domain.Sample{
				Label:     "laughing",
				SHA256:    "abc123",
				Embedding: testEmbedding(8),
			}

			err := repo.Create(context.Background(), sample)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, sample.ID)
				assert.Equal(t, now, sample.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSampleRepository_GetBySHA256(t *testing.T) {
	sampleID := uuid.New()
	now := time.Now()
	embedding := pgvector.NewVector([]float32{0.1, 0.2, 0.3})

	tests := []struct {
		name      string
		sha256    string
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      *domain.Sample
		wantErr   error
	}{
		{
			name:   "found",
			sha256: "abc123",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{
					"id", "label", "sha256", "embedding", "source_url", "created_at",
				}).AddRow(sampleID, "confusion", "abc123", &embedding, "https://example.com/img.jpg", now)

				mock.ExpectQuery(`SELECT id, label, sha256, embedding, source_url, created_at FROM samples WHERE sha256 = \$1`).
					WithArgs("abc123").
					WillReturnRows(rows)
			},
			want: &domain.Sample{
				ID:        sampleID,
				Label:     "confusion",
				SHA256:    "abc123",
				Embedding: []float64{},
				SourceURL: "https://example.com/img.jpg",
				CreatedAt: now,
			},
		},
		{
			name:   "not found",
			sha256: "missing",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, label, sha256, embedding, source_url, created_at FROM samples WHERE sha256 = \$1`).
					WithArgs("missing").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrSampleNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			tt.mockSetup(mock)

			repo := NewSampleRepository(mock)
			got, err := repo.GetBySHA256(context.Background(), tt.sha256)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.ID, got.ID)
				assert.Equal(t, tt.want.Label, got.Label)
				assert.Equal(t, tt.want.SHA256, got.SHA256)
				assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, got.Embedding, 1e-6)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSampleRepository_CountByLabel(t *testing.T) {
	mock := newMockPool(t)

	rows := pgxmock.NewRows([]string{"label", "count"}).
		AddRow("confusion", 42).
		AddRow("laughing", 17).
		AddRow("emptiness", 9)

	mock.ExpectQuery(`SELECT label, COUNT\(\*\) FROM samples GROUP BY label`).
		WillReturnRows(rows)

	repo := NewSampleRepository(mock)
	counts, err := repo.CountByLabel(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"confusion": 42, "laughing": 17, "emptiness": 9}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRepository_ListByLabel(t *testing.T) {
	mock := newMockPool(t)
	now := time.Now()
	emb := pgvector.NewVector([]float32{1, 2})

	rows := pgxmock.NewRows([]string{
		"id", "label", "sha256", "embedding", "source_url", "created_at",
	}).
		AddRow(uuid.New(), "laughing", "h1", &emb, "", now).
		AddRow(uuid.New(), "laughing", "h2", &emb, "", now)

	mock.ExpectQuery(`SELECT id, label, sha256, embedding, source_url, created_at FROM samples WHERE label = \$1 ORDER BY created_at`).
		WithArgs("laughing").
		WillReturnRows(rows)

	repo := NewSampleRepository(mock)
	samples, err := repo.ListByLabel(context.Background(), "laughing")

	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "h1", samples[0].SHA256)
	assert.InDeltaSlice(t, []float64{1, 2}, samples[1].Embedding, 1e-6)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// DetectionRepository tests

func TestDetectionRepository_Create(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   bool
	}{
		{
			name: "successful insert",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO detections`).
					WithArgs(pgxmock.AnyArg(), "happy", 0.91, true, domain.SourcePretrained, int64(120)).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
			},
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO detections`).
					WithArgs(pgxmock.AnyArg(), "happy", 0.91, true, domain.SourcePretrained, int64(120)).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			tt.mockSetup(mock)

			repo := NewDetectionRepository(mock)
			detection := &domain.Detection{
				Emotion:      "happy",
				Confidence:   0.91,
				FaceDetected: true,
				Source:       domain.SourcePretrained,
				LatencyMs:    120,
			}

			err := repo.Create(context.Background(), detection)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, detection.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sqlstate code", errors.New("SQLSTATE 23505"), true},
		{"duplicate key", errors.New("duplicate key value violates unique constraint"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
