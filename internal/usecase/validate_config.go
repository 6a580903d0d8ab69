package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/esphome"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/runner"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/workspace"
)

// ValidateConfigUsecase runs `esphome config` synchronously. Validation is
// fast, so the caller waits for the yes/no result instead of polling a job.
type ValidateConfigUsecase struct {
	ws       *workspace.Workspace
	executor runner.Executor
	timeout  time.Duration
	logger   *zap.Logger
}

// NewValidateConfigUsecase creates a new ValidateConfigUsecase. timeout is
// the validation ceiling, shorter than the async job ceiling.
func NewValidateConfigUsecase(ws *workspace.Workspace, exec runner.Executor, timeout time.Duration, logger *zap.Logger) *ValidateConfigUsecase {
	return &ValidateConfigUsecase{
		ws:       ws,
		executor: exec,
		timeout:  timeout,
		logger:   logger,
	}
}

// Execute materializes the config, runs the validate operation inline and
// reports the outcome. The temp file is removed on every path.
func (uc *ValidateConfigUsecase) Execute(ctx context.Context, req *domain.ValidateRequest) (*domain.ValidateResult, error) {
	if strings.TrimSpace(req.Config) == "" {
		return nil, domain.ErrEmptyConfig
	}
	if len(req.Config) > domain.MaxConfigSize {
		return nil, domain.ErrPayloadTooLarge
	}
	opts := domain.Options{Substitutions: req.Substitutions}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	configPath, err := uc.ws.Write(id, req.Config)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := uc.ws.Remove(configPath); err != nil {
			uc.logger.Warn("Failed to remove config file", zap.Error(err))
		}
	}()

	args, err := esphome.BuildArgs(domain.OpValidate, configPath, opts)
	if err != nil {
		return nil, err
	}

	result, err := uc.executor.Execute(ctx, args, filepath.Dir(configPath), uc.timeout)
	if err != nil {
		return nil, err
	}
	if result.TimedOut {
		return nil, domain.ErrValidationTimeout
	}

	if result.ExitCode != 0 {
		errText := result.Stderr
		if errText == "" {
			errText = result.Stdout
		}
		if errText == "" {
			errText = fmt.Sprintf("exit code %d", result.ExitCode)
		}
		return &domain.ValidateResult{
			Valid:  false,
			Error:  errText,
			Stdout: result.Stdout,
			Stderr: result.Stderr,
		}, nil
	}

	return &domain.ValidateResult{
		Valid:  true,
		Stdout: result.Stdout,
		Stderr: result.Stderr,
	}, nil
}
