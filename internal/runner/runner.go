// Package runner executes submitted jobs on a fixed-size worker pool.
// Submissions enqueue onto a bounded channel; a full queue is surfaced to
// the caller instead of spawning unbounded goroutines.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/esphome"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/metrics"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/registry"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/workspace"
)

// Executor runs one external invocation. Satisfied by *esphome.Executor.
type Executor interface {
	Execute(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error)
}

// Task is one unit of work for the pool. Workers hold the job ID only and
// mutate job state exclusively through the registry.
type Task struct {
	JobID     uuid.UUID
	Operation domain.OperationKind
	Config    string
	Options   domain.Options
}

// Pool is a fixed-size worker pool consuming jobs from a bounded queue.
type Pool struct {
	size     int
	tasks    chan Task
	registry *registry.Registry
	ws       *workspace.Workspace
	executor Executor
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewPool creates a pool of size workers with a queue of depth pending
// slots. timeout is the per-job execution ceiling.
func NewPool(
	size, depth int,
	reg *registry.Registry,
	ws *workspace.Workspace,
	exec Executor,
	timeout time.Duration,
	logger *zap.Logger,
) *Pool {
	return &Pool{
		size:     size,
		tasks:    make(chan Task, depth),
		registry: reg,
		ws:       ws,
		executor: exec,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting runner pool",
		zap.Int("pool_size", p.size),
		zap.Int("queue_depth", cap(p.tasks)),
	)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their in-flight jobs and exit.
func (p *Pool) Stop() {
	p.wg.Wait()
	p.logger.Info("Runner pool stopped")
}

// Enqueue hands a task to the pool without blocking. A full queue returns
// ErrQueueFull so the API layer can push back on the caller.
func (p *Pool) Enqueue(t Task) error {
	select {
	case p.tasks <- t:
		metrics.QueueDepth.Set(float64(len(p.tasks)))
		return nil
	default:
		return domain.ErrQueueFull
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case task, ok := <-p.tasks:
			if !ok {
				p.logger.Debug("Task channel closed", zap.Int("worker_id", id))
				return
			}
			metrics.QueueDepth.Set(float64(len(p.tasks)))
			p.process(ctx, id, task)
		}
	}
}

// process runs one task end-to-end and records metrics. A panic anywhere
// in the pipeline is recovered into a terminal job failure so no job is
// ever left pending or running.
func (p *Pool) process(ctx context.Context, workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker panic recovered",
				zap.Int("worker_id", workerID),
				zap.String("job_id", task.JobID.String()),
				zap.Any("panic", r),
			)
			_ = p.registry.Finish(task.JobID, domain.StatusFailed, "", nil, fmt.Sprintf("internal error: %v", r))
		}
	}()

	p.logger.Info("Worker processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", task.JobID.String()),
		zap.String("operation", string(task.Operation)),
	)

	metrics.WorkersActive.Inc()
	start := time.Now()

	status := p.runOne(ctx, task)

	metrics.WorkersActive.Dec()
	metrics.JobsTotal.WithLabelValues(string(task.Operation), string(status)).Inc()
	metrics.JobDuration.WithLabelValues(string(task.Operation)).Observe(time.Since(start).Seconds())
}

// runOne is the job pipeline: materialize config, build arguments, mark
// running, execute, record the terminal outcome. The materialized file is
// removed on every exit path; a removal failure never masks the outcome.
func (p *Pool) runOne(ctx context.Context, task Task) domain.JobStatus {
	configPath, err := p.ws.Write(task.JobID, task.Config)
	if err != nil {
		return p.fail(task.JobID, "", nil, err.Error())
	}
	defer func() {
		if err := p.ws.Remove(configPath); err != nil {
			p.logger.Warn("Failed to remove config file",
				zap.String("job_id", task.JobID.String()),
				zap.Error(err),
			)
		}
	}()

	args, err := esphome.BuildArgs(task.Operation, configPath, task.Options)
	if err != nil {
		return p.fail(task.JobID, "", nil, err.Error())
	}

	if err := p.registry.SetRunning(task.JobID); err != nil {
		p.logger.Error("Failed to mark job running",
			zap.String("job_id", task.JobID.String()),
			zap.Error(err),
		)
		return domain.StatusFailed
	}

	result, err := p.executor.Execute(ctx, args, filepath.Dir(configPath), p.timeout)
	if err != nil {
		return p.fail(task.JobID, "", nil, err.Error())
	}

	if result.TimedOut {
		return p.fail(task.JobID, result.Combined(), nil, fmt.Sprintf("timed out after %s", p.timeout))
	}

	exitCode := result.ExitCode
	if exitCode != 0 {
		return p.finish(task.JobID, domain.StatusFailed, result.Combined(), &exitCode, exitErrorText(result))
	}
	return p.finish(task.JobID, domain.StatusSuccess, result.Combined(), &exitCode, "")
}

func (p *Pool) fail(id uuid.UUID, log string, exitCode *int, errMsg string) domain.JobStatus {
	return p.finish(id, domain.StatusFailed, log, exitCode, errMsg)
}

func (p *Pool) finish(id uuid.UUID, status domain.JobStatus, log string, exitCode *int, errMsg string) domain.JobStatus {
	if err := p.registry.Finish(id, status, log, exitCode, errMsg); err != nil {
		p.logger.Error("Failed to record job outcome",
			zap.String("job_id", id.String()),
			zap.Error(err),
		)
	}
	return status
}

// exitErrorText picks the most useful error text for a non-zero exit:
// stderr, falling back to stdout, falling back to the bare exit code.
func exitErrorText(result *esphome.ExecResult) string {
	if result.Stderr != "" {
		return result.Stderr
	}
	if result.Stdout != "" {
		return result.Stdout
	}
	return fmt.Sprintf("exit code %d", result.ExitCode)
}
