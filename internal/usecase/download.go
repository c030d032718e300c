package usecase

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/notify"
	"github.com/Harsh-BH/chroma/internal/remote"
)

// DownloadUsecase retrieves the artifact of a completed job.
type DownloadUsecase struct {
	remote   remote.Service
	reporter *notify.Reporter
	logger   *zap.Logger
}

// NewDownloadUsecase creates a new DownloadUsecase.
func NewDownloadUsecase(svc remote.Service, reporter *notify.Reporter, logger *zap.Logger) *DownloadUsecase {
	return &DownloadUsecase{
		remote:   svc,
		reporter: reporter,
		logger:   logger,
	}
}

// Open starts the download. The caller must close the artifact body.
func (uc *DownloadUsecase) Open(ctx context.Context, job domain.Job) (*remote.Artifact, error) {
	if job.Status != domain.StatusCompleted {
		return nil, domain.ErrNotCompleted
	}

	art, err := uc.remote.Download(ctx, job.ID)
	if err != nil {
		return nil, uc.fail(ctx, job.ID, err)
	}
	return art, nil
}

// SaveTo streams the artifact into w and returns the number of bytes written.
func (uc *DownloadUsecase) SaveTo(ctx context.Context, job domain.Job, w io.Writer) (int64, error) {
	art, err := uc.Open(ctx, job)
	if err != nil {
		return 0, err
	}
	defer art.Body.Close()

	return uc.Copy(ctx, job.ID, w, art)
}

// Copy streams an opened artifact into w. A failure part-way through is
// logged and reported as a DownloadError like a failed Open.
func (uc *DownloadUsecase) Copy(ctx context.Context, jobID string, w io.Writer, art *remote.Artifact) (int64, error) {
	n, err := io.Copy(w, art.Body)
	if err != nil {
		return n, uc.fail(ctx, jobID, fmt.Errorf("copy artifact after %d bytes: %w", n, err))
	}

	uc.logger.Info("Artifact downloaded",
		zap.String("job_id", jobID),
		zap.Int64("bytes", n),
	)
	return n, nil
}

func (uc *DownloadUsecase) fail(ctx context.Context, jobID string, err error) error {
	uc.logger.Error("Artifact download failed", zap.String("job_id", jobID), zap.Error(err))
	jobErr := domain.NewJobError(domain.KindDownload, jobID, "", err)
	uc.reporter.Report(ctx, jobID, jobErr)
	return jobErr
}
