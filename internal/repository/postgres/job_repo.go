package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/repository"
)

// Ensure pgJobRepo implements repository.JobRepository.
var _ repository.JobRepository = (*pgJobRepo)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS colorize_jobs (
		job_id              TEXT PRIMARY KEY,
		status              TEXT NOT NULL,
		progress            INTEGER NOT NULL DEFAULT 0,
		input_ref           TEXT NOT NULL,
		output_ref          TEXT NOT NULL DEFAULT '',
		expected_output_ref TEXT NOT NULL DEFAULT '',
		reason              TEXT NOT NULL DEFAULT '',
		attempt             INTEGER NOT NULL DEFAULT 0,
		max_attempts        INTEGER NOT NULL DEFAULT 0,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`

type pgJobRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresJobRepository creates a new PostgreSQL-backed job repository.
func NewPostgresJobRepository(pool *pgxpool.Pool) repository.JobRepository {
	return &pgJobRepo{pool: pool}
}

// EnsureSchema creates the jobs table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *pgJobRepo) Save(ctx context.Context, job domain.Job) error {
	query := `
		INSERT INTO colorize_jobs (job_id, status, progress, input_ref, output_ref, expected_output_ref,
		                           reason, attempt, max_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (job_id) DO UPDATE
		SET status = EXCLUDED.status, progress = EXCLUDED.progress, output_ref = EXCLUDED.output_ref,
		    reason = EXCLUDED.reason, attempt = EXCLUDED.attempt, max_attempts = EXCLUDED.max_attempts,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.Status, job.Progress, job.InputRef, job.OutputRef, job.ExpectedOutputRef,
		job.Reason, job.Attempt, job.MaxAttempts, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save job: %w", err)
	}
	return nil
}

func (r *pgJobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `
		SELECT job_id, status, progress, input_ref, output_ref, expected_output_ref,
		       reason, attempt, max_attempts, created_at, updated_at
		FROM colorize_jobs
		WHERE job_id = $1`

	job := &domain.Job{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Status, &job.Progress, &job.InputRef, &job.OutputRef, &job.ExpectedOutputRef,
		&job.Reason, &job.Attempt, &job.MaxAttempts, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get job by id: %w", err)
	}
	return job, nil
}
