package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/notify"
)

// ColorizeUsecase runs the full job pipeline: submit, poll, resolve.
// Every failure that ends a job is reported exactly once.
type ColorizeUsecase struct {
	submitUC *SubmitJobUsecase
	pollUC   *PollJobUsecase
	reporter *notify.Reporter
	baseURL  string
	logger   *zap.Logger
}

// NewColorizeUsecase creates a new ColorizeUsecase. baseURL roots the
// locators returned by the remote service.
func NewColorizeUsecase(
	submitUC *SubmitJobUsecase,
	pollUC *PollJobUsecase,
	reporter *notify.Reporter,
	baseURL string,
	logger *zap.Logger,
) *ColorizeUsecase {
	return &ColorizeUsecase{
		submitUC: submitUC,
		pollUC:   pollUC,
		reporter: reporter,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// Submit uploads the file and reports a SubmitError on failure.
func (uc *ColorizeUsecase) Submit(ctx context.Context, file []byte, meta domain.FileMeta) (*domain.Job, error) {
	job, err := uc.submitUC.Execute(ctx, file, meta)
	if err != nil {
		uc.reporter.Report(ctx, "", err)
		return nil, err
	}
	return job, nil
}

// Track polls a submitted job to a terminal state and resolves its result.
// The result is nil unless the job completed.
func (uc *ColorizeUsecase) Track(ctx context.Context, job *domain.Job, opts PollOptions) (*domain.Job, *domain.ResolvedResult, error) {
	job, err := uc.pollUC.Execute(ctx, job, opts)
	if err != nil {
		var jobErr *domain.JobError
		if errors.As(err, &jobErr) {
			uc.reporter.Report(ctx, job.ID, err)
		}
		return job, nil, err
	}

	result := ResolveResult(job.Snapshot(), uc.baseURL)
	uc.logger.Info("Colorization completed",
		zap.String("job_id", job.ID),
		zap.String("output_url", result.OutputURL),
	)
	return job, &result, nil
}

// Execute submits and tracks one file.
func (uc *ColorizeUsecase) Execute(ctx context.Context, file []byte, meta domain.FileMeta, opts PollOptions) (*domain.Job, *domain.ResolvedResult, error) {
	job, err := uc.Submit(ctx, file, meta)
	if err != nil {
		return nil, nil, err
	}
	return uc.Track(ctx, job, opts)
}
