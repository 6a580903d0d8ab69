// Package esphome builds argument vectors for, and executes, the esphome
// CLI. The executor knows nothing about jobs; it runs one invocation and
// reports what happened.
package esphome

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	// maxOutputBytes caps captured stdout/stderr. Compile logs are long
	// but bounded memory matters more than the full PlatformIO transcript.
	maxOutputBytes = 256 * 1024

	// outputTruncatedMsg is appended when output exceeds the limit.
	outputTruncatedMsg = "\n... output truncated (256 KB limit) ..."
)

// ExecResult describes one finished (or timed-out) esphome invocation.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Elapsed  time.Duration
}

// Combined returns stdout followed by stderr, the order the original
// addon exposed in job logs.
func (r *ExecResult) Combined() string {
	return r.Stdout + r.Stderr
}

// Executor runs the esphome binary with a hard execution ceiling.
type Executor struct {
	binPath string
	logger  *zap.Logger
}

// NewExecutor creates an Executor for the given esphome binary path.
func NewExecutor(binPath string, logger *zap.Logger) *Executor {
	return &Executor{
		binPath: binPath,
		logger:  logger,
	}
}

// Execute runs the binary with args inside workDir, enforcing timeout.
// On timeout the whole process group is killed and the result carries
// TimedOut; a process that could not be launched at all returns an error.
// No retries happen at this layer.
func (e *Executor) Execute(ctx context.Context, args []string, workDir string, timeout time.Duration) (*ExecResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, e.binPath, args...)
	cmd.Dir = workDir

	// Own process group so a timeout kill also reaps PlatformIO children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// The default context cancel signals only the direct child; esphome's
	// spawned compilers would keep the output pipes open and stall Wait.
	// Kill the whole group at the deadline instead.
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr limitedBuffer
	stdout.limit = maxOutputBytes
	stderr.limit = maxOutputBytes
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := &ExecResult{
		Stdout:  truncateOutput(stdout.String(), stdout.truncated),
		Stderr:  truncateOutput(stderr.String(), stderr.truncated),
		Elapsed: elapsed,
	}

	if timeoutCtx.Err() == context.DeadlineExceeded {
		// Cancel already killed the group; sweep again in case a child
		// escaped into the window between fork and setpgid.
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		result.TimedOut = true
		result.ExitCode = -1
		e.logger.Warn("esphome invocation timed out",
			zap.Duration("timeout", timeout),
			zap.Strings("args", args),
		)
		return result, nil
	}

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// Never started: binary missing, not executable, bad workdir.
			return nil, fmt.Errorf("start esphome: %w", err)
		}
		result.ExitCode = exitErr.ExitCode()
		e.logger.Debug("esphome exited non-zero",
			zap.Int("exit_code", result.ExitCode),
			zap.Duration("elapsed", elapsed),
		)
		return result, nil
	}

	result.ExitCode = 0
	return result, nil
}

// limitedBuffer is a bytes.Buffer that stops accepting writes after a limit.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

// Write always reports len(p) consumed so io.Copy inside os/exec keeps
// draining the pipe; a short count would surface as io.ErrShortWrite and
// fail the whole run.
func (lb *limitedBuffer) Write(p []byte) (n int, err error) {
	n = len(p)
	if lb.truncated {
		return n, nil // discard silently
	}

	remaining := lb.limit - lb.buf.Len()
	if remaining <= 0 {
		lb.truncated = true
		return n, nil
	}

	if len(p) > remaining {
		lb.truncated = true
		p = p[:remaining]
	}

	lb.buf.Write(p)
	return n, nil
}

func (lb *limitedBuffer) String() string {
	return lb.buf.String()
}

// truncateOutput appends a truncation notice if the output was cut off.
func truncateOutput(s string, wasTruncated bool) string {
	if wasTruncated {
		return s + outputTruncatedMsg
	}
	return s
}
