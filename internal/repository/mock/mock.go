package mock

import (
	"context"
	"sync"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/repository"
)

// ---- JobRepository mock ----

var _ repository.JobRepository = (*JobRepository)(nil)

// JobRepository is a test double for repository.JobRepository.
type JobRepository struct {
	mu   sync.Mutex
	jobs map[string]domain.Job

	SaveFn    func(ctx context.Context, job domain.Job) error
	GetByIDFn func(ctx context.Context, id string) (*domain.Job, error)

	// Recorded snapshots in save order.
	Saved []domain.Job
}

func (m *JobRepository) Save(ctx context.Context, job domain.Job) error {
	m.mu.Lock()
	m.Saved = append(m.Saved, job)
	if m.jobs == nil {
		m.jobs = make(map[string]domain.Job)
	}
	m.jobs[job.ID] = job
	m.mu.Unlock()
	if m.SaveFn != nil {
		return m.SaveFn(ctx, job)
	}
	return nil
}

func (m *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

// Snapshots returns a copy of every saved snapshot.
func (m *JobRepository) Snapshots() []domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Job(nil), m.Saved...)
}

// ---- PollLock mock ----

var _ repository.PollLock = (*PollLock)(nil)

// PollLock is a test double for repository.PollLock.
type PollLock struct {
	mu sync.Mutex

	AcquireFn func(ctx context.Context, jobID string) (bool, error)
	ReleaseFn func(ctx context.Context, jobID string) error

	AcquireCalls []string
	ReleaseCalls []string
}

func (m *PollLock) Acquire(ctx context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	m.AcquireCalls = append(m.AcquireCalls, jobID)
	m.mu.Unlock()
	if m.AcquireFn != nil {
		return m.AcquireFn(ctx, jobID)
	}
	return true, nil // default: lock acquired
}

func (m *PollLock) Release(ctx context.Context, jobID string) error {
	m.mu.Lock()
	m.ReleaseCalls = append(m.ReleaseCalls, jobID)
	m.mu.Unlock()
	if m.ReleaseFn != nil {
		return m.ReleaseFn(ctx, jobID)
	}
	return nil
}
