package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJobID is returned when a job ID is registered twice.
	ErrDuplicateJobID = errors.New("job id already exists")

	// ErrOperationNotAllowed is returned when the operation is not allow-listed.
	ErrOperationNotAllowed = errors.New("operation not permitted")

	// ErrEmptyConfig is returned when the submitted configuration is empty.
	ErrEmptyConfig = errors.New("configuration cannot be empty")

	// ErrPayloadTooLarge is returned when the configuration exceeds the size limit.
	ErrPayloadTooLarge = errors.New("configuration exceeds maximum size (1MB)")

	// ErrInvalidDevice is returned when the device target fails validation.
	ErrInvalidDevice = errors.New("invalid device target")

	// ErrInvalidUploadSpeed is returned when the transfer speed is out of bounds.
	ErrInvalidUploadSpeed = errors.New("invalid upload speed")

	// ErrInvalidSubstitution is returned when a substitution key or value fails validation.
	ErrInvalidSubstitution = errors.New("invalid substitution")

	// ErrQueueFull is returned when the runner queue cannot accept more jobs.
	ErrQueueFull = errors.New("job queue is full, try again later")

	// ErrValidationTimeout is returned when a synchronous validation exceeds its ceiling.
	ErrValidationTimeout = errors.New("validation timed out")

	// ErrInvalidTransition is returned on an attempt to move a job backwards.
	ErrInvalidTransition = errors.New("invalid job status transition")
)
