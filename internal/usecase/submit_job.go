package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/metrics"
	"github.com/Harsh-BH/chroma/internal/remote"
)

// SubmitJobUsecase uploads one file to the colorization service.
type SubmitJobUsecase struct {
	remote remote.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewSubmitJobUsecase creates a new SubmitJobUsecase.
func NewSubmitJobUsecase(svc remote.Service, logger *zap.Logger) *SubmitJobUsecase {
	return &SubmitJobUsecase{
		remote: svc,
		logger: logger,
		now:    time.Now,
	}
}

// Execute issues exactly one upload request and returns the SUBMITTED job.
// The upload is assumed to be validated already. Failures are never retried
// here and come back as a SubmitError.
func (uc *SubmitJobUsecase) Execute(ctx context.Context, file []byte, meta domain.FileMeta) (*domain.Job, error) {
	resp, err := uc.remote.Submit(ctx, file, meta)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		uc.logger.Error("Failed to submit file to colorization service",
			zap.String("filename", meta.Filename),
			zap.Error(err),
		)

		var reason string
		var statusErr *remote.StatusError
		if errors.As(err, &statusErr) {
			reason = statusErr.Detail
		}
		return nil, domain.NewJobError(domain.KindSubmit, "", reason, err)
	}

	if resp.FileID == "" || resp.InputURL == "" {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		uc.logger.Error("Colorization service accepted upload without locators",
			zap.String("filename", meta.Filename),
			zap.String("file_id", resp.FileID),
		)
		return nil, domain.NewJobError(domain.KindSubmit, resp.FileID, "response missing file_id or input_url", nil)
	}

	job := domain.NewJob(resp.FileID, resp.InputURL, resp.OutputURL, uc.now().UTC())
	metrics.SubmissionsTotal.WithLabelValues("ok").Inc()

	uc.logger.Info("Job submitted successfully",
		zap.String("job_id", job.ID),
		zap.String("filename", meta.Filename),
		zap.Int64("size", meta.Size),
	)
	return job, nil
}
