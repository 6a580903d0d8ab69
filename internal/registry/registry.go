// Package registry is the in-memory job store. It exclusively owns job
// records; every other component mutates jobs through its synchronized
// interface and only ever sees value snapshots.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
)

// Registry is a thread-safe map from job ID to job record. Records are
// never evicted; history lives for the process lifetime.
type Registry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		jobs: make(map[uuid.UUID]*domain.Job),
	}
}

// Create registers a new pending job. IDs are generated per submission and
// never reused, so a duplicate here means a caller bug.
func (r *Registry) Create(id uuid.UUID, op domain.OperationKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[id]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateJobID, id)
	}
	r.jobs[id] = &domain.Job{
		JobID:     id,
		Operation: op,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// SetRunning moves a job from pending to running. Statuses only move
// forward; any other starting state is rejected.
func (r *Registry) SetRunning(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != domain.StatusPending {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, domain.StatusRunning)
	}
	job.Status = domain.StatusRunning
	return nil
}

// Finish records the terminal outcome of a job exactly once: status,
// accumulated log, optional exit code and error message.
func (r *Registry) Finish(id uuid.UUID, status domain.JobStatus, log string, exitCode *int, errMsg string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: %s is not terminal", domain.ErrInvalidTransition, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("%w: job already %s", domain.ErrInvalidTransition, job.Status)
	}
	job.Status = status
	job.Log += log
	job.ExitCode = exitCode
	job.Error = errMsg
	return nil
}

// Get returns a snapshot of one job, including its log.
func (r *Registry) Get(id uuid.UUID) (domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return *job, nil
}

// List returns summaries of all jobs, newest first, without log payloads.
func (r *Registry) List() []domain.JobSummary {
	r.mu.RLock()
	summaries := make([]domain.JobSummary, 0, len(r.jobs))
	for _, job := range r.jobs {
		summaries = append(summaries, job.Summary())
	}
	r.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].JobID.String() > summaries[j].JobID.String()
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// Len reports how many jobs the registry currently tracks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
