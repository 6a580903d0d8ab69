package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/esphome"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/registry"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/runner"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/workspace"
)

// fakeExecutor satisfies runner.Executor with an injectable hook.
type fakeExecutor struct {
	ExecuteFn func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
	if f.ExecuteFn != nil {
		return f.ExecuteFn(ctx, args, workDir, timeout)
	}
	return &esphome.ExecResult{ExitCode: 0, Stdout: "ok\n"}, nil
}

type testEnv struct {
	reg    *registry.Registry
	ws     *workspace.Workspace
	pool   *runner.Pool
	cancel context.CancelFunc
}

func newTestEnv(t *testing.T, size, depth int, exec runner.Executor, timeout time.Duration) *testEnv {
	t.Helper()

	reg := registry.New()
	ws := workspace.New(filepath.Join(t.TempDir(), "workspace"))
	pool := runner.NewPool(size, depth, reg, ws, exec, timeout, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	return &testEnv{reg: reg, ws: ws, pool: pool, cancel: cancel}
}

func submit(t *testing.T, env *testEnv, op domain.OperationKind, opts domain.Options) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generate id: %v", err)
	}
	if err := env.reg.Create(id, op); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := env.pool.Enqueue(runner.Task{
		JobID:     id,
		Operation: op,
		Config:    "esphome:\n  name: test\n",
		Options:   opts,
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return id
}

func waitTerminal(t *testing.T, reg *registry.Registry, id uuid.UUID) domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := reg.Get(id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Status.IsTerminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal status", id)
	return domain.Job{}
}

func assertWorkspaceEmpty(t *testing.T, ws *workspace.Workspace) {
	t.Helper()
	leftovers, _ := filepath.Glob(filepath.Join(ws.Root(), "config_*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestPool_SuccessPath(t *testing.T) {
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			return &esphome.ExecResult{ExitCode: 0, Stdout: "INFO compiled firmware\n"}, nil
		},
	}
	env := newTestEnv(t, 2, 8, exec, time.Minute)

	id := submit(t, env, domain.OpCompile, domain.Options{OnlyGenerate: true})
	job := waitTerminal(t, env.reg, id)

	if job.Status != domain.StatusSuccess {
		t.Errorf("status: got %s, want success (error: %s)", job.Status, job.Error)
	}
	if !strings.Contains(job.Log, "compiled firmware") {
		t.Errorf("log should contain tool output, got %q", job.Log)
	}
	if job.ExitCode == nil || *job.ExitCode != 0 {
		t.Errorf("exit code: got %v, want 0", job.ExitCode)
	}
	assertWorkspaceEmpty(t, env.ws)
}

func TestPool_WorkerSeesMaterializedConfig(t *testing.T) {
	var gotArgs []string
	var sawFile bool
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			gotArgs = append([]string(nil), args...)
			if _, err := os.Stat(args[1]); err == nil {
				sawFile = true
			}
			return &esphome.ExecResult{ExitCode: 0}, nil
		},
	}
	env := newTestEnv(t, 1, 4, exec, time.Minute)

	id := submit(t, env, domain.OpUpload, domain.Options{Device: "192.168.1.10"})
	waitTerminal(t, env.reg, id)

	if len(gotArgs) < 4 || gotArgs[0] != "upload" {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
	if !strings.Contains(gotArgs[1], id.String()) {
		t.Errorf("config path should embed the job id, got %s", gotArgs[1])
	}
	if gotArgs[2] != "--device" || gotArgs[3] != "192.168.1.10" {
		t.Errorf("device flag missing: %v", gotArgs)
	}
	if !sawFile {
		t.Error("config file must exist while the executor runs")
	}
	// ...and be gone afterwards.
	assertWorkspaceEmpty(t, env.ws)
}

func TestPool_NonZeroExit(t *testing.T) {
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			return &esphome.ExecResult{ExitCode: 1, Stdout: "INFO start\n", Stderr: "ERROR bad config\n"}, nil
		},
	}
	env := newTestEnv(t, 1, 4, exec, time.Minute)

	id := submit(t, env, domain.OpCompile, domain.Options{})
	job := waitTerminal(t, env.reg, id)

	if job.Status != domain.StatusFailed {
		t.Errorf("status: got %s, want failed", job.Status)
	}
	if job.Error != "ERROR bad config\n" {
		t.Errorf("error should prefer stderr, got %q", job.Error)
	}
	if job.ExitCode == nil || *job.ExitCode != 1 {
		t.Errorf("exit code: got %v, want 1", job.ExitCode)
	}
	if !strings.Contains(job.Log, "INFO start") || !strings.Contains(job.Log, "ERROR bad config") {
		t.Errorf("log should carry combined output, got %q", job.Log)
	}
	assertWorkspaceEmpty(t, env.ws)
}

func TestPool_ExitErrorFallbacks(t *testing.T) {
	// No stderr: error text falls back to stdout, then to the exit code.
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			return &esphome.ExecResult{ExitCode: 2, Stdout: "only stdout\n"}, nil
		},
	}
	env := newTestEnv(t, 1, 4, exec, time.Minute)
	id := submit(t, env, domain.OpClean, domain.Options{})
	if job := waitTerminal(t, env.reg, id); job.Error != "only stdout\n" {
		t.Errorf("error should fall back to stdout, got %q", job.Error)
	}

	exec.ExecuteFn = func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
		return &esphome.ExecResult{ExitCode: 2}, nil
	}
	id = submit(t, env, domain.OpClean, domain.Options{})
	if job := waitTerminal(t, env.reg, id); job.Error != "exit code 2" {
		t.Errorf("error should fall back to exit code, got %q", job.Error)
	}
}

func TestPool_Timeout(t *testing.T) {
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			return &esphome.ExecResult{TimedOut: true, ExitCode: -1, Stdout: "partial output\n"}, nil
		},
	}
	env := newTestEnv(t, 1, 4, exec, 30*time.Second)

	id := submit(t, env, domain.OpUpload, domain.Options{Device: "192.168.1.10"})
	job := waitTerminal(t, env.reg, id)

	if job.Status != domain.StatusFailed {
		t.Errorf("status: got %s, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "timed out") {
		t.Errorf("expected timeout-specific error, got %q", job.Error)
	}
	if !strings.Contains(job.Log, "partial output") {
		t.Errorf("log should keep partial output, got %q", job.Log)
	}
	assertWorkspaceEmpty(t, env.ws)
}

func TestPool_LaunchFailure(t *testing.T) {
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			return nil, errors.New("start esphome: exec: \"esphome\": executable file not found in $PATH")
		},
	}
	env := newTestEnv(t, 1, 4, exec, time.Minute)

	id := submit(t, env, domain.OpCompile, domain.Options{})
	job := waitTerminal(t, env.reg, id)

	if job.Status != domain.StatusFailed {
		t.Errorf("status: got %s, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "start esphome") {
		t.Errorf("expected launch error message, got %q", job.Error)
	}
	assertWorkspaceEmpty(t, env.ws)
}

func TestPool_MaterializationFailure(t *testing.T) {
	// Workspace root is a regular file: the config write must fail and the
	// job must end failed without ever reaching the executor.
	executed := false
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			executed = true
			return &esphome.ExecResult{ExitCode: 0}, nil
		},
	}

	reg := registry.New()
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	ws := workspace.New(blocker)
	pool := runner.NewPool(1, 4, reg, ws, exec, time.Minute, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	id, _ := uuid.NewV7()
	if err := reg.Create(id, domain.OpCompile); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := pool.Enqueue(runner.Task{JobID: id, Operation: domain.OpCompile, Config: "x"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	job := waitTerminal(t, reg, id)
	if job.Status != domain.StatusFailed {
		t.Errorf("status: got %s, want failed", job.Status)
	}
	if job.Error == "" {
		t.Error("expected an I/O error message")
	}
	if executed {
		t.Error("executor must not run when materialization fails")
	}
}

func TestPool_PanicBecomesJobFailure(t *testing.T) {
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			panic("boom")
		},
	}
	env := newTestEnv(t, 1, 4, exec, time.Minute)

	id := submit(t, env, domain.OpRun, domain.Options{})
	job := waitTerminal(t, env.reg, id)

	if job.Status != domain.StatusFailed {
		t.Errorf("status: got %s, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "internal error") || !strings.Contains(job.Error, "boom") {
		t.Errorf("expected recovered panic message, got %q", job.Error)
	}
	assertWorkspaceEmpty(t, env.ws)

	// The worker must survive the panic and keep processing.
	id = submit(t, env, domain.OpRun, domain.Options{})
	waitTerminal(t, env.reg, id)
}

func TestPool_QueueFull(t *testing.T) {
	block := make(chan struct{})
	exec := &fakeExecutor{
		ExecuteFn: func(ctx context.Context, args []string, workDir string, timeout time.Duration) (*esphome.ExecResult, error) {
			<-block
			return &esphome.ExecResult{ExitCode: 0}, nil
		},
	}
	env := newTestEnv(t, 1, 1, exec, time.Minute)
	defer close(block)

	// First task occupies the single worker, second fills the queue.
	submit(t, env, domain.OpCompile, domain.Options{})
	// Give the worker time to pick up the first task.
	time.Sleep(50 * time.Millisecond)
	submit(t, env, domain.OpCompile, domain.Options{})

	id, _ := uuid.NewV7()
	err := env.pool.Enqueue(runner.Task{JobID: id, Operation: domain.OpCompile, Config: "x"})
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

// End-to-end against a stub tool: a shell script standing in for esphome.
func TestPool_RealExecutorWithStubTool(t *testing.T) {
	stub := writeStubTool(t, "#!/bin/sh\necho \"stub: $@\"\nexit 0\n")
	env := newTestEnv(t, 1, 4, esphome.NewExecutor(stub, zap.NewNop()), time.Minute)

	id := submit(t, env, domain.OpCompile, domain.Options{OnlyGenerate: true})
	job := waitTerminal(t, env.reg, id)

	if job.Status != domain.StatusSuccess {
		t.Fatalf("status: got %s, want success (error: %s)", job.Status, job.Error)
	}
	if !strings.Contains(job.Log, "stub: compile") || !strings.Contains(job.Log, "--only-generate") {
		t.Errorf("log should show stub invocation, got %q", job.Log)
	}
	assertWorkspaceEmpty(t, env.ws)
}

func TestPool_RealExecutorTimeout(t *testing.T) {
	stub := writeStubTool(t, "#!/bin/sh\nsleep 30\n")
	env := newTestEnv(t, 1, 4, esphome.NewExecutor(stub, zap.NewNop()), 300*time.Millisecond)

	start := time.Now()
	id := submit(t, env, domain.OpUpload, domain.Options{Device: "192.168.1.10"})
	job := waitTerminal(t, env.reg, id)

	if job.Status != domain.StatusFailed {
		t.Errorf("status: got %s, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "timed out") {
		t.Errorf("expected timeout error, got %q", job.Error)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout enforcement took too long: %v", elapsed)
	}
	assertWorkspaceEmpty(t, env.ws)
}

func writeStubTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "esphome")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub tool: %v", err)
	}
	return path
}
