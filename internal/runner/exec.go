package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// Exec runs real processes.
type Exec struct{}

// New returns the OS-backed runner.
func New() Exec { return Exec{} }

func (Exec) LookPath(file string) (string, error) { return exec.LookPath(file) }

// Run executes spec and never panics; every failure is reported on Output.
// On timeout the whole process group is killed, not abandoned.
func (Exec) Run(ctx context.Context, spec Spec) Output {
	start := time.Now()
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd, err := command(ctx, spec)
	if err != nil {
		return Output{ExitCode: -1, Err: err, Duration: time.Since(start)}
	}
	// Avoid opening pager or interactive prompts
	cmd.Env = append(append(os.Environ(), "NO_COLOR=1"), spec.Env...)
	cmd.Dir = spec.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = nil
	setProcessGroup(cmd)
	cmd.WaitDelay = 2 * time.Second

	err = cmd.Run()
	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		out.TimedOut = true
		out.ExitCode = -1
		out.Err = ctx.Err()
		return out
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			out.ExitCode = ee.ExitCode()
			return out
		}
		out.ExitCode = -1
		out.Err = err
		return out
	}
	return out
}

func command(ctx context.Context, spec Spec) (*exec.Cmd, error) {
	if spec.Shell {
		if spec.Line == "" {
			return nil, errors.New("empty shell line")
		}
		return ShellCommand(ctx, spec.Line), nil
	}
	if len(spec.Argv) == 0 {
		return nil, errors.New("empty argv")
	}
	return exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...), nil //nolint:gosec
}
