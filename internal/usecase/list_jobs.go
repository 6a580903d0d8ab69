package usecase

import (
	"context"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/registry"
)

// ListJobsUsecase enumerates all jobs without their log payloads.
type ListJobsUsecase struct {
	registry *registry.Registry
}

// NewListJobsUsecase creates a new ListJobsUsecase.
func NewListJobsUsecase(reg *registry.Registry) *ListJobsUsecase {
	return &ListJobsUsecase{registry: reg}
}

// Execute returns summaries of every tracked job, newest first.
func (uc *ListJobsUsecase) Execute(ctx context.Context) []domain.JobSummary {
	return uc.registry.List()
}
