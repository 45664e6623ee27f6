package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ami-labs/emotion-api/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories use, narrowed so
// tests can substitute pgxmock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SampleRepositoryInterface defines operations for training sample data access
type SampleRepositoryInterface interface {
	Create(ctx context.Context, sample *domain.Sample) error
	GetBySHA256(ctx context.Context, sha256 string) (*domain.Sample, error)
	ListByLabel(ctx context.Context, label string) ([]domain.Sample, error)
	CountByLabel(ctx context.Context) (map[string]int, error)
}

// DetectionRepositoryInterface defines operations for detection audit logging
type DetectionRepositoryInterface interface {
	Create(ctx context.Context, detection *domain.Detection) error
}
