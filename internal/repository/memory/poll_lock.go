package memory

import (
	"context"
	"sync"

	"github.com/Harsh-BH/chroma/internal/repository"
)

var _ repository.PollLock = (*PollLock)(nil)

// PollLock is a process-local repository.PollLock.
type PollLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewPollLock creates an empty lock table.
func NewPollLock() *PollLock {
	return &PollLock{held: make(map[string]struct{})}
}

func (l *PollLock) Acquire(_ context.Context, jobID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[jobID]; ok {
		return false, nil
	}
	l.held[jobID] = struct{}{}
	return true, nil
}

func (l *PollLock) Release(_ context.Context, jobID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, jobID)
	return nil
}
