package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/repository"
)

// JobView is a stored job plus its resolved locators once completed.
type JobView struct {
	domain.Job
	Result *domain.ResolvedResult `json:"result,omitempty"`
}

// GetJobUsecase handles fetching job snapshots.
type GetJobUsecase struct {
	repo    repository.JobRepository
	baseURL string
	logger  *zap.Logger
}

// NewGetJobUsecase creates a new GetJobUsecase.
func NewGetJobUsecase(repo repository.JobRepository, baseURL string, logger *zap.Logger) *GetJobUsecase {
	return &GetJobUsecase{
		repo:    repo,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Execute retrieves a job by its ID.
func (uc *GetJobUsecase) Execute(ctx context.Context, id string) (*JobView, error) {
	job, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			uc.logger.Debug("Job not found", zap.String("job_id", id))
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}

	view := &JobView{Job: *job}
	if job.Status == domain.StatusCompleted {
		result := ResolveResult(*job, uc.baseURL)
		view.Result = &result
	}
	return view, nil
}
