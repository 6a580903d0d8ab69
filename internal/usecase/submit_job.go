package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/registry"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/runner"
)

// TaskQueue accepts work for asynchronous execution. Satisfied by *runner.Pool.
type TaskQueue interface {
	Enqueue(t runner.Task) error
}

// SubmitJobUsecase validates a submission, registers a pending job and
// hands it to the runner pool. The caller gets the job ID immediately;
// it never blocks on execution.
type SubmitJobUsecase struct {
	registry *registry.Registry
	queue    TaskQueue
	logger   *zap.Logger
}

// NewSubmitJobUsecase creates a new SubmitJobUsecase.
func NewSubmitJobUsecase(reg *registry.Registry, queue TaskQueue, logger *zap.Logger) *SubmitJobUsecase {
	return &SubmitJobUsecase{
		registry: reg,
		queue:    queue,
		logger:   logger,
	}
}

// Execute checks the request, creates the job and enqueues it.
// Disallowed operations and bad option values are rejected here, before
// any job record or temp file exists.
func (uc *SubmitJobUsecase) Execute(ctx context.Context, req *domain.SubmitRequest) (*domain.SubmitResponse, error) {
	if !req.Operation.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrOperationNotAllowed, req.Operation)
	}
	if strings.TrimSpace(req.Config) == "" {
		return nil, domain.ErrEmptyConfig
	}
	if len(req.Config) > domain.MaxConfigSize {
		return nil, domain.ErrPayloadTooLarge
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}

	// UUIDv7: time-ordered, never reused.
	jobID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}

	if err := uc.registry.Create(jobID, req.Operation); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	task := runner.Task{
		JobID:     jobID,
		Operation: req.Operation,
		Config:    req.Config,
		Options:   req.Options,
	}
	if err := uc.queue.Enqueue(task); err != nil {
		// The job exists but will never run; record that instead of
		// leaving it pending forever.
		_ = uc.registry.Finish(jobID, domain.StatusFailed, "", nil, err.Error())
		uc.logger.Warn("Job queue full, submission rejected",
			zap.String("job_id", jobID.String()),
			zap.String("operation", string(req.Operation)),
		)
		return nil, err
	}

	uc.logger.Info("Job submitted",
		zap.String("job_id", jobID.String()),
		zap.String("operation", string(req.Operation)),
	)

	return &domain.SubmitResponse{JobID: jobID}, nil
}
