package repository

import (
	"context"

	"github.com/Harsh-BH/chroma/internal/domain"
)

// JobRepository stores job snapshots for the relay.
// Implementations must be safe for concurrent use.
type JobRepository interface {
	// Save inserts or replaces the snapshot for job.ID.
	Save(ctx context.Context, job domain.Job) error

	// GetByID retrieves the latest snapshot of a job.
	GetByID(ctx context.Context, id string) (*domain.Job, error)
}

// PollLock ensures at most one polling loop runs per job.
type PollLock interface {
	// Acquire takes the lock for jobID.
	// Returns true if the lock was acquired, false if another loop holds it.
	Acquire(ctx context.Context, jobID string) (bool, error)

	// Release drops the lock for jobID.
	Release(ctx context.Context, jobID string) error
}
