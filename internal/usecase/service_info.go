package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/remote"
)

// ServiceInfoUsecase exposes the remote service's health and model catalogue.
type ServiceInfoUsecase struct {
	remote remote.Service
	logger *zap.Logger
}

// NewServiceInfoUsecase creates a new ServiceInfoUsecase.
func NewServiceInfoUsecase(svc remote.Service, logger *zap.Logger) *ServiceInfoUsecase {
	return &ServiceInfoUsecase{remote: svc, logger: logger}
}

// Health returns the remote health report.
func (uc *ServiceInfoUsecase) Health(ctx context.Context) (*domain.HealthResponse, error) {
	health, err := uc.remote.Health(ctx)
	if err != nil {
		uc.logger.Warn("Colorization service health check failed", zap.Error(err))
		return nil, fmt.Errorf("remote health: %w", err)
	}
	return health, nil
}

// Models returns the remote model catalogue.
func (uc *ServiceInfoUsecase) Models(ctx context.Context) (*domain.ModelsResponse, error) {
	models, err := uc.remote.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote models: %w", err)
	}
	return models, nil
}
