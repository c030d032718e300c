package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	remotemock "github.com/Harsh-BH/chroma/internal/remote/mock"
	repomock "github.com/Harsh-BH/chroma/internal/repository/mock"
	"github.com/Harsh-BH/chroma/internal/repository/memory"
)

// Scenario A: progress 10, 35, 60 then completed on the 4th query.
func TestPoll_CompletesOnFourthQuery(t *testing.T) {
	svc := &remotemock.Service{ProgressFn: remotemock.Script(
		remotemock.Processing(10),
		remotemock.Processing(35),
		remotemock.Processing(60),
		remotemock.Completed("/outputs/abc123_final.jpg"),
	)}
	delay := &recordingDelay{}
	uc := newTestPoller(svc, delay)

	var seen []domain.Job
	job, err := uc.Execute(context.Background(), newSubmittedJob("abc123"), PollOptions{
		MaxAttempts: 30,
		Interval:    2 * time.Second,
		OnUpdate:    func(j domain.Job) { seen = append(seen, j) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", job.Status)
	}
	if job.OutputRef != "/outputs/abc123_final.jpg" {
		t.Errorf("expected output ref from query 4, got %q", job.OutputRef)
	}
	if got := svc.ProgressCount(); got != 4 {
		t.Errorf("expected 4 queries, got %d", got)
	}
	if job.Attempt != 4 {
		t.Errorf("expected attempt 4, got %d", job.Attempt)
	}
	if delay.Count() != 3 || delay.Total() != 6*time.Second {
		t.Errorf("expected 3 suspensions totalling 6s, got %d totalling %s", delay.Count(), delay.Total())
	}

	last := -1
	for _, snap := range seen {
		if snap.Progress < last {
			t.Errorf("progress went backwards: %d after %d", snap.Progress, last)
		}
		last = snap.Progress
	}
	if last != 100 {
		t.Errorf("expected final progress 100, got %d", last)
	}
}

// Scenario B: every query fails transiently.
func TestPoll_TransientErrorsTimeOut(t *testing.T) {
	svc := &remotemock.Service{ProgressFn: remotemock.Script(remotemock.Transient())}
	delay := &recordingDelay{}
	uc := newTestPoller(svc, delay)

	var statuses []domain.JobStatus
	job, err := uc.Execute(context.Background(), newSubmittedJob("xyz"), PollOptions{
		MaxAttempts: 30,
		Interval:    2 * time.Second,
		OnUpdate:    func(j domain.Job) { statuses = append(statuses, j.Status) },
	})

	if job.Status != domain.StatusTimedOut {
		t.Fatalf("expected TIMED_OUT, got %s", job.Status)
	}
	if domain.Classify(err) != domain.KindTimeout {
		t.Errorf("expected TimeoutError, got %v", err)
	}
	if got := svc.ProgressCount(); got != 30 {
		t.Errorf("expected 30 queries, got %d", got)
	}
	if delay.Count() != 29 || delay.Total() != 58*time.Second {
		t.Errorf("expected 29 suspensions totalling 58s, got %d totalling %s", delay.Count(), delay.Total())
	}
	for _, s := range statuses {
		if s == domain.StatusCompleted || s == domain.StatusFailed {
			t.Fatalf("unexpected status %s during transient failures", s)
		}
	}
	if job.OutputRef != "" {
		t.Errorf("timed out job must not carry an output ref, got %q", job.OutputRef)
	}
}

// Scenario C: remote reports failure on the 2nd query.
func TestPoll_RemoteFailureStopsImmediately(t *testing.T) {
	svc := &remotemock.Service{ProgressFn: remotemock.Script(
		remotemock.Processing(20),
		remotemock.Failed(40, "CUDA out of memory"),
		remotemock.Completed("/outputs/never.jpg"),
	)}
	delay := &recordingDelay{}
	uc := newTestPoller(svc, delay)

	job, err := uc.Execute(context.Background(), newSubmittedJob("abc123"), PollOptions{})

	if job.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", job.Status)
	}
	if got := svc.ProgressCount(); got != 2 {
		t.Errorf("expected 2 queries, got %d", got)
	}
	if delay.Count() != 1 {
		t.Errorf("expected 1 suspension, got %d", delay.Count())
	}

	var jobErr *domain.JobError
	if !errors.As(err, &jobErr) || jobErr.Kind != domain.KindRemoteFailure {
		t.Fatalf("expected RemoteFailure, got %v", err)
	}
	if jobErr.Reason != "CUDA out of memory" || job.Reason != "CUDA out of memory" {
		t.Errorf("expected remote reason unmodified, got %q / %q", jobErr.Reason, job.Reason)
	}
	if job.Progress != 40 {
		t.Errorf("expected progress 40, got %d", job.Progress)
	}
	if job.OutputRef != "" {
		t.Errorf("failed job must not carry an output ref, got %q", job.OutputRef)
	}
}

func TestPoll_CompletedWithoutOutputUsesProvisionalRef(t *testing.T) {
	svc := &remotemock.Service{ProgressFn: remotemock.Script(remotemock.Completed(""))}
	uc := newTestPoller(svc, &recordingDelay{})

	job, err := uc.Execute(context.Background(), newSubmittedJob("abc123"), PollOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.OutputRef != "/outputs/abc123_output.jpg" {
		t.Errorf("expected provisional output ref, got %q", job.OutputRef)
	}
}

func TestPoll_AttemptNeverExceedsBudget(t *testing.T) {
	for _, maxAttempts := range []int{1, 2, 5, 30} {
		t.Run(fmt.Sprintf("max=%d", maxAttempts), func(t *testing.T) {
			svc := &remotemock.Service{ProgressFn: remotemock.Script(remotemock.Processing(50))}
			delay := &recordingDelay{}
			uc := newTestPoller(svc, delay)

			job, _ := uc.Execute(context.Background(), newSubmittedJob("abc123"), PollOptions{
				MaxAttempts: maxAttempts,
				Interval:    time.Second,
			})
			if job.Attempt > maxAttempts {
				t.Errorf("attempt %d exceeds budget %d", job.Attempt, maxAttempts)
			}
			if got := svc.ProgressCount(); got != maxAttempts {
				t.Errorf("expected %d queries, got %d", maxAttempts, got)
			}
			if want := time.Duration(maxAttempts-1) * time.Second; delay.Total() != want {
				t.Errorf("expected %s total suspension, got %s", want, delay.Total())
			}
			if job.Status != domain.StatusTimedOut {
				t.Errorf("expected TIMED_OUT, got %s", job.Status)
			}
		})
	}
}

func TestPoll_Defaults(t *testing.T) {
	svc := &remotemock.Service{ProgressFn: remotemock.Script(remotemock.Processing(5))}
	delay := &recordingDelay{}
	uc := newTestPoller(svc, delay)

	job, _ := uc.Execute(context.Background(), newSubmittedJob("abc123"), PollOptions{})
	if job.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("expected default budget %d, got %d", DefaultMaxAttempts, job.MaxAttempts)
	}
	if want := (DefaultMaxAttempts - 1) * DefaultPollInterval; delay.Total() != want {
		t.Errorf("expected %s total suspension, got %s", want, delay.Total())
	}
}

func TestPoll_RejectsJobAlreadyPolling(t *testing.T) {
	svc := &remotemock.Service{}
	uc := newTestPoller(svc, &recordingDelay{})

	job := newSubmittedJob("abc123")
	if err := job.StartPolling(30, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := uc.Execute(context.Background(), job, PollOptions{})
	if !errors.Is(err, domain.ErrPollInProgress) {
		t.Errorf("expected ErrPollInProgress, got %v", err)
	}
	if svc.ProgressCount() != 0 {
		t.Error("no query may be issued for a rejected poll")
	}
}

func TestPoll_RejectsTerminalJob(t *testing.T) {
	svc := &remotemock.Service{}
	uc := newTestPoller(svc, &recordingDelay{})

	job, err := uc.Execute(context.Background(), newSubmittedJob("abc123"), PollOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = uc.Execute(context.Background(), job, PollOptions{})
	if !errors.Is(err, domain.ErrJobFinalized) {
		t.Errorf("expected ErrJobFinalized, got %v", err)
	}
	if job.Status != domain.StatusCompleted {
		t.Errorf("terminal job changed state to %s", job.Status)
	}
}

func TestPoll_RejectsWhenLockHeldElsewhere(t *testing.T) {
	svc := &remotemock.Service{}
	lock := &repomock.PollLock{
		AcquireFn: func(ctx context.Context, jobID string) (bool, error) { return false, nil },
	}
	uc := NewPollJobUsecase(svc, lock, (&recordingDelay{}).Delay, zap.NewNop())

	job := newSubmittedJob("abc123")
	_, err := uc.Execute(context.Background(), job, PollOptions{})
	if !errors.Is(err, domain.ErrPollInProgress) {
		t.Errorf("expected ErrPollInProgress, got %v", err)
	}
	if job.Status != domain.StatusSubmitted {
		t.Errorf("expected job to stay SUBMITTED, got %s", job.Status)
	}
	if len(lock.ReleaseCalls) != 0 {
		t.Error("lock not acquired must not be released")
	}
}

func TestPoll_ReleasesLock(t *testing.T) {
	svc := &remotemock.Service{}
	lock := &repomock.PollLock{}
	uc := NewPollJobUsecase(svc, lock, (&recordingDelay{}).Delay, zap.NewNop())

	if _, err := uc.Execute(context.Background(), newSubmittedJob("abc123"), PollOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lock.ReleaseCalls) != 1 || lock.ReleaseCalls[0] != "abc123" {
		t.Errorf("expected lock release for abc123, got %v", lock.ReleaseCalls)
	}
}

func TestPoll_CancellationGivesUp(t *testing.T) {
	svc := &remotemock.Service{ProgressFn: remotemock.Script(remotemock.Processing(30))}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	delay := func(ctx context.Context, d time.Duration) error {
		sleeps++
		if sleeps == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}
	uc := NewPollJobUsecase(svc, memory.NewPollLock(), delay, zap.NewNop())

	job, err := uc.Execute(ctx, newSubmittedJob("abc123"), PollOptions{})

	if job.Status != domain.StatusTimedOut {
		t.Errorf("expected TIMED_OUT, got %s", job.Status)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected error to wrap context.Canceled, got %v", err)
	}
	if domain.Classify(err) != domain.KindTimeout {
		t.Errorf("expected TimeoutError, got %s", domain.Classify(err))
	}
	if got := svc.ProgressCount(); got != 3 {
		t.Errorf("expected 3 queries before cancellation, got %d", got)
	}
}

func TestPoll_IndependentJobsConcurrently(t *testing.T) {
	svc := &remotemock.Service{ProgressFn: func(ctx context.Context, fileID string) (*domain.ProgressResponse, error) {
		return &domain.ProgressResponse{Status: domain.RemoteCompleted, Progress: 100, OutputURL: "/outputs/" + fileID + ".jpg"}, nil
	}}
	uc := newTestPoller(svc, &recordingDelay{})

	var wg sync.WaitGroup
	jobs := make([]*domain.Job, 8)
	errs := make([]error, 8)
	for i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jobs[i], errs[i] = uc.Execute(context.Background(), newSubmittedJob(fmt.Sprintf("job-%d", i)), PollOptions{})
		}(i)
	}
	wg.Wait()

	for i, job := range jobs {
		if errs[i] != nil {
			t.Errorf("job %d: unexpected error: %v", i, errs[i])
			continue
		}
		if want := fmt.Sprintf("/outputs/job-%d.jpg", i); job.OutputRef != want {
			t.Errorf("job %d: expected %s, got %s", i, want, job.OutputRef)
		}
	}
}

func TestPoll_AlreadyCancelledEndsTimedOut(t *testing.T) {
	svc := &remotemock.Service{ProgressFn: remotemock.Script(remotemock.Processing(30))}
	lock := &repomock.PollLock{}
	uc := NewPollJobUsecase(svc, lock, (&recordingDelay{}).Delay, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var updates []domain.Job
	job, err := uc.Execute(ctx, newSubmittedJob("abc123"), PollOptions{
		OnUpdate: func(j domain.Job) { updates = append(updates, j) },
	})

	if job.Status != domain.StatusTimedOut {
		t.Errorf("expected TIMED_OUT, got %s", job.Status)
	}
	if domain.Classify(err) != domain.KindTimeout {
		t.Errorf("expected TimeoutError, got %s", domain.Classify(err))
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected error to wrap context.Canceled, got %v", err)
	}
	if got := svc.ProgressCount(); got != 0 {
		t.Errorf("expected no queries, got %d", got)
	}
	if len(lock.AcquireCalls) != 0 {
		t.Errorf("expected lock untouched, got %v", lock.AcquireCalls)
	}
	if len(updates) == 0 || updates[len(updates)-1].Status != domain.StatusTimedOut {
		t.Errorf("expected final TIMED_OUT snapshot, got %+v", updates)
	}
}
