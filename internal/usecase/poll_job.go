package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/metrics"
	"github.com/Harsh-BH/chroma/internal/remote"
	"github.com/Harsh-BH/chroma/internal/repository"
)

const (
	DefaultMaxAttempts  = 30
	DefaultPollInterval = 2 * time.Second
)

// Delay suspends the loop between attempts. It returns early with ctx.Err()
// when ctx is done.
type Delay func(ctx context.Context, d time.Duration) error

// SleepContext is the production Delay.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PollOptions bounds one polling loop.
type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration

	// OnUpdate, when set, receives a snapshot after every state change.
	OnUpdate func(domain.Job)
}

func (o PollOptions) withDefaults() PollOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	return o
}

// PollJobUsecase tracks a submitted job until the remote reports a terminal
// status or the attempt budget runs out.
type PollJobUsecase struct {
	remote remote.Service
	lock   repository.PollLock
	delay  Delay
	logger *zap.Logger
	now    func() time.Time
}

// NewPollJobUsecase creates a new PollJobUsecase. A nil delay uses SleepContext.
func NewPollJobUsecase(svc remote.Service, lock repository.PollLock, delay Delay, logger *zap.Logger) *PollJobUsecase {
	if delay == nil {
		delay = SleepContext
	}
	return &PollJobUsecase{
		remote: svc,
		lock:   lock,
		delay:  delay,
		logger: logger,
		now:    time.Now,
	}
}

// Execute runs the polling loop on job and returns it in a terminal state.
//
// Failed progress queries are counted but otherwise ignored. A remote
// "failed" status yields a RemoteFailure, exhausting MaxAttempts or
// cancelling ctx yields a TimeoutError. The loop issues at most MaxAttempts
// queries and sleeps Interval between them, never after the last one.
func (uc *PollJobUsecase) Execute(ctx context.Context, job *domain.Job, opts PollOptions) (*domain.Job, error) {
	opts = opts.withDefaults()

	switch {
	case job.Status.IsTerminal():
		return job, domain.ErrJobFinalized
	case job.Status == domain.StatusPolling:
		return job, domain.ErrPollInProgress
	}

	// A job handed over after cancellation still has to end terminal.
	if err := ctx.Err(); err != nil {
		if err := job.StartPolling(opts.MaxAttempts, uc.now().UTC()); err != nil {
			return job, err
		}
		return uc.giveUp(job, opts, err)
	}

	acquired, err := uc.lock.Acquire(ctx, job.ID)
	if err != nil {
		return job, fmt.Errorf("acquire poll lock: %w", err)
	}
	if !acquired {
		return job, domain.ErrPollInProgress
	}
	defer func() {
		if err := uc.lock.Release(context.WithoutCancel(ctx), job.ID); err != nil {
			uc.logger.Warn("Failed to release poll lock", zap.String("job_id", job.ID), zap.Error(err))
		}
	}()

	if err := job.StartPolling(opts.MaxAttempts, uc.now().UTC()); err != nil {
		return job, err
	}
	metrics.PollsActive.Inc()
	defer metrics.PollsActive.Dec()
	uc.emit(opts, job)

	uc.logger.Debug("Polling started",
		zap.String("job_id", job.ID),
		zap.Int("max_attempts", opts.MaxAttempts),
		zap.Duration("interval", opts.Interval),
	)

	for job.Attempt < opts.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return uc.giveUp(job, opts, err)
		}
		if err := job.RecordAttempt(uc.now().UTC()); err != nil {
			return job, err
		}

		resp, err := uc.remote.Progress(ctx, job.ID)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return uc.giveUp(job, opts, ctxErr)
			}
			metrics.PollAttemptsTotal.WithLabelValues("transient").Inc()
			uc.logger.Debug("Progress query failed, will retry",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempt),
				zap.Error(err),
			)

		case resp.Status == domain.RemoteCompleted:
			metrics.PollAttemptsTotal.WithLabelValues("ok").Inc()
			if err := job.Complete(resp.OutputURL, uc.now().UTC()); errors.Is(err, domain.ErrNoOutputLocator) {
				_ = job.Fail(err.Error(), uc.now().UTC())
				uc.finish(opts, job)
				return job, domain.NewJobError(domain.KindRemoteFailure, job.ID, err.Error(), err)
			}
			uc.finish(opts, job)
			return job, nil

		case resp.Status == domain.RemoteFailed:
			metrics.PollAttemptsTotal.WithLabelValues("ok").Inc()
			_ = job.UpdateProgress(resp.Progress, uc.now().UTC())
			_ = job.Fail(resp.Error, uc.now().UTC())
			uc.finish(opts, job)
			return job, domain.NewJobError(domain.KindRemoteFailure, job.ID, resp.Error, nil)

		default:
			metrics.PollAttemptsTotal.WithLabelValues("ok").Inc()
			_ = job.UpdateProgress(resp.Progress, uc.now().UTC())
		}
		uc.emit(opts, job)

		if job.Attempt >= opts.MaxAttempts {
			break
		}
		if err := uc.delay(ctx, opts.Interval); err != nil {
			return uc.giveUp(job, opts, err)
		}
	}

	_ = job.TimeOut(uc.now().UTC())
	uc.finish(opts, job)
	return job, domain.NewJobError(domain.KindTimeout, job.ID,
		fmt.Sprintf("no terminal status after %d attempts", job.Attempt), nil)
}

// giveUp ends the loop on cancellation. The remote is not told.
func (uc *PollJobUsecase) giveUp(job *domain.Job, opts PollOptions, cause error) (*domain.Job, error) {
	_ = job.TimeOut(uc.now().UTC())
	uc.finish(opts, job)
	return job, domain.NewJobError(domain.KindTimeout, job.ID, "polling canceled", cause)
}

func (uc *PollJobUsecase) finish(opts PollOptions, job *domain.Job) {
	metrics.JobsFinishedTotal.WithLabelValues(string(job.Status)).Inc()
	metrics.JobDuration.WithLabelValues(string(job.Status)).Observe(job.UpdatedAt.Sub(job.CreatedAt).Seconds())

	uc.logger.Info("Polling finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)),
		zap.Int("attempts", job.Attempt),
		zap.Int("progress", job.Progress),
	)
	uc.emit(opts, job)
}

func (uc *PollJobUsecase) emit(opts PollOptions, job *domain.Job) {
	if opts.OnUpdate != nil {
		opts.OnUpdate(job.Snapshot())
	}
}
