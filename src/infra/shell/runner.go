package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

var (
	// ErrSpawn means the command could not be started at all.
	ErrSpawn = errors.New("failed to spawn command")
	// ErrTimeout means the command was killed after exceeding its deadline.
	ErrTimeout = errors.New("command timed out")
)

const waitDelay = time.Second

// Output is what a finished command produced. A non-zero ExitCode is not an error.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the command exited with status zero.
func (o Output) Success() bool {
	return o.ExitCode == 0
}

// Runner executes command lines through /bin/sh.
type Runner struct {
	shell   string
	timeout func() time.Duration
}

// NewRunner creates a runner whose per-command deadline is read from timeout
// on every run, so configuration reloads apply immediately.
func NewRunner(timeout func() time.Duration) *Runner {
	return &Runner{shell: "/bin/sh", timeout: timeout}
}

// Run executes cmdline synchronously and waits for it to exit.
func (r *Runner) Run(ctx context.Context, cmdline string) (Output, error) {
	if r.timeout != nil {
		if d := r.timeout(); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}

	// Use shell to properly handle quoted strings and complex commands
	cmd := exec.CommandContext(ctx, r.shell, "-c", cmdline)
	cmd.Env = os.Environ()
	// Children of the shell may keep the pipes open after it is killed.
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	err := cmd.Wait()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return out, ErrTimeout
		}
		return out, fmt.Errorf("command cancelled: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		out.ExitCode = 0
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		return out, fmt.Errorf("failed to wait for command: %w", err)
	}
	return out, nil
}
