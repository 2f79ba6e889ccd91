package taskwarrior

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/domain"
)

// DefaultTimeout bounds a single taskwarrior invocation when the caller does
// not configure one. A hung external process is killed, not left to linger.
const DefaultTimeout = 30 * time.Second

// ExecResult captures one finished invocation of the external program.
// A non-zero exit code is data for the interpreter, not an executor error.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs the external task program with an argument vector and
// captures stdout, stderr, and exit status. Implementations must honor
// context cancellation and terminate the process when the deadline passes.
type Executor interface {
	Run(ctx context.Context, args ...string) (ExecResult, error)
}

// CLIExecutor invokes the taskwarrior binary. It prepends the overrides that
// make taskwarrior safe to drive non-interactively: confirmation prompts are
// disabled, and the data directory may be redirected for isolation.
type CLIExecutor struct {
	Bin     string        // taskwarrior binary, "task" when empty
	DataDir string        // optional rc.data.location override
	Timeout time.Duration // per-invocation bound, DefaultTimeout when zero
}

func (e *CLIExecutor) Run(ctx context.Context, args ...string) (ExecResult, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bin := e.Bin
	if bin == "" {
		bin = "task"
	}

	cmd := exec.CommandContext(ctx, bin, e.commandArgs(args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := ExecResult{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return ExecResult{}, classifyRunError(ctx, err)
	}
	return res, nil
}

// commandArgs builds the full argument vector, global overrides first.
func (e *CLIExecutor) commandArgs(args []string) []string {
	full := make([]string, 0, len(args)+2)
	full = append(full, "rc.confirmation=no")
	if e.DataDir != "" {
		full = append(full, "rc.data.location="+e.DataDir)
	}
	return append(full, args...)
}

// classifyRunError maps a failed spawn or an interrupted wait onto the
// infrastructure taxonomy. Caller cancellation propagates as-is so no partial
// result is reported for a request that no longer exists.
func classifyRunError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &domain.InfrastructureError{Cause: domain.Timeout, Err: err}
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, exec.ErrNotFound):
		return &domain.InfrastructureError{Cause: domain.ExecutableNotFound, Err: err}
	default:
		return &domain.InfrastructureError{Cause: domain.ProcessSpawnFailed, Err: err}
	}
}
