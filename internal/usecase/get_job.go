package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/registry"
)

// GetJobUsecase fetches one job record, log included.
type GetJobUsecase struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// NewGetJobUsecase creates a new GetJobUsecase.
func NewGetJobUsecase(reg *registry.Registry, logger *zap.Logger) *GetJobUsecase {
	return &GetJobUsecase{
		registry: reg,
		logger:   logger,
	}
}

// Execute retrieves a job snapshot by its ID.
func (uc *GetJobUsecase) Execute(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	job, err := uc.registry.Get(id)
	if err != nil {
		uc.logger.Debug("Job not found", zap.String("job_id", id.String()))
		return domain.Job{}, domain.ErrJobNotFound
	}
	return job, nil
}
