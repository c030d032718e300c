package pool

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/metrics"
	"github.com/Harsh-BH/chroma/internal/repository"
	"github.com/Harsh-BH/chroma/internal/usecase"
)

// WorkerPool tracks submitted jobs on a fixed number of goroutines.
// Every snapshot produced while polling is written to the repository.
type WorkerPool struct {
	size       int
	jobs       chan *domain.Job
	colorizeUC *usecase.ColorizeUsecase
	repo       repository.JobRepository
	opts       usecase.PollOptions
	logger     *zap.Logger
	wg         sync.WaitGroup

	ctx     context.Context
	mu      sync.Mutex
	stopped bool
}

// NewWorkerPool creates a pool with size workers and room for queueSize
// waiting jobs.
func NewWorkerPool(
	size, queueSize int,
	colorizeUC *usecase.ColorizeUsecase,
	repo repository.JobRepository,
	opts usecase.PollOptions,
	logger *zap.Logger,
) *WorkerPool {
	return &WorkerPool{
		size:       size,
		jobs:       make(chan *domain.Job, queueSize),
		colorizeUC: colorizeUC,
		repo:       repo,
		opts:       opts,
		logger:     logger,
	}
}

// Start launches all worker goroutines. Cancelling ctx aborts in-flight polls,
// which end TIMED_OUT. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.ctx = ctx
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size), zap.Int("queue_size", cap(p.jobs)))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Enqueue hands a submitted job to the pool without blocking. It returns
// domain.ErrQueueFull when no slot is free and domain.ErrPoolStopped once
// Stop has been called. The pool owns job afterwards.
func (p *WorkerPool) Enqueue(job *domain.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return domain.ErrPoolStopped
	}

	select {
	case p.jobs <- job:
		metrics.QueueDepth.Set(float64(len(p.jobs)))
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Stop waits for all workers to exit, then times out every job still
// waiting in the queue so none is left SUBMITTED. Cancel the Start context
// first.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.wg.Wait()

	ctx := p.ctx
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(context.Background())
		cancel()
	}

	drained := 0
	for {
		select {
		case job := <-p.jobs:
			drained++
			p.process(ctx, -1, job)
		default:
			metrics.QueueDepth.Set(0)
			p.logger.Info("Worker pool stopped", zap.Int("drained_jobs", drained))
			return
		}
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case job := <-p.jobs:
			metrics.QueueDepth.Set(float64(len(p.jobs)))
			p.process(ctx, id, job)
		}
	}
}

func (p *WorkerPool) process(ctx context.Context, id int, job *domain.Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker panic recovered",
				zap.Int("worker_id", id),
				zap.String("job_id", job.ID),
				zap.Any("panic", r),
			)
		}
	}()

	p.logger.Info("Worker tracking job",
		zap.Int("worker_id", id),
		zap.String("job_id", job.ID),
	)

	opts := p.opts
	opts.OnUpdate = func(snap domain.Job) {
		// Stored even after shutdown starts.
		if err := p.repo.Save(context.WithoutCancel(ctx), snap); err != nil {
			p.logger.Error("Failed to store job snapshot",
				zap.String("job_id", snap.ID),
				zap.String("status", string(snap.Status)),
				zap.Error(err),
			)
		}
	}

	if _, _, err := p.colorizeUC.Track(ctx, job, opts); err != nil {
		p.logger.Warn("Job did not complete",
			zap.Int("worker_id", id),
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
	}
}
