package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of an esphome job.
type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusRunning JobStatus = "running"
	StatusSuccess JobStatus = "success"
	StatusFailed  JobStatus = "failed"
)

// IsTerminal returns true if the status represents a final state.
func (s JobStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// OperationKind is one of the allow-listed esphome CLI operations.
type OperationKind string

const (
	OpValidate OperationKind = "validate"
	OpCompile  OperationKind = "compile"
	OpUpload   OperationKind = "upload"
	OpRun      OperationKind = "run"
	OpClean    OperationKind = "clean"
)

// AllOperations lists every allow-listed operation kind.
var AllOperations = []OperationKind{OpValidate, OpCompile, OpUpload, OpRun, OpClean}

// IsValid checks if the operation is allow-listed.
func (k OperationKind) IsValid() bool {
	switch k {
	case OpValidate, OpCompile, OpUpload, OpRun, OpClean:
		return true
	}
	return false
}

// Subcommand returns the esphome CLI subcommand for this operation.
// The CLI calls validation "config"; everything else matches 1:1.
func (k OperationKind) Subcommand() string {
	if k == OpValidate {
		return "config"
	}
	return string(k)
}

// Job represents one asynchronous esphome invocation throughout its lifecycle.
type Job struct {
	JobID     uuid.UUID     `json:"job_id"`
	Operation OperationKind `json:"operation"`
	Status    JobStatus     `json:"status"`
	Log       string        `json:"log"`
	ExitCode  *int          `json:"exit_code,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// JobSummary is a Job without its (potentially large) log payload,
// used in list responses.
type JobSummary struct {
	JobID     uuid.UUID     `json:"job_id"`
	Operation OperationKind `json:"operation"`
	Status    JobStatus     `json:"status"`
	ExitCode  *int          `json:"exit_code,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Summary strips the log payload from a job.
func (j *Job) Summary() JobSummary {
	return JobSummary{
		JobID:     j.JobID,
		Operation: j.Operation,
		Status:    j.Status,
		ExitCode:  j.ExitCode,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
}

// Options carries the operation-specific knobs of a submission.
// Inapplicable options are ignored by the argument builder.
type Options struct {
	Device        string            `json:"device,omitempty"`
	UploadSpeed   int               `json:"upload_speed,omitempty"`
	OnlyGenerate  bool              `json:"only_generate,omitempty"`
	NoLogs        bool              `json:"no_logs,omitempty"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
}

// SubmitRequest is an incoming job submission from the API.
type SubmitRequest struct {
	Operation OperationKind `json:"operation" binding:"required"`
	Config    string        `json:"config" binding:"required"`
	Options   Options       `json:"options"`
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	JobID uuid.UUID `json:"job_id"`
}

// ValidateRequest is a synchronous validation request.
type ValidateRequest struct {
	Config        string            `json:"config" binding:"required"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
}

// ValidateResult is the outcome of a synchronous validation.
type ValidateResult struct {
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// OperationInfo describes one allow-listed operation.
type OperationInfo struct {
	Name       OperationKind `json:"name"`
	Subcommand string        `json:"subcommand"`
	Async      bool          `json:"async"`
}
