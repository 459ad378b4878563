// Package runner executes external CLIs with a hard, caller-enforced timeout.
package runner

import (
	"context"
	"time"
)

// Spec describes one subprocess invocation.
type Spec struct {
	// Argv is the argument vector; Argv[0] is resolved on PATH.
	Argv []string
	// Shell runs Line through the platform shell instead of Argv.
	Shell bool
	Line  string
	Dir   string
	// Env entries are appended to the parent environment.
	Env     []string
	Timeout time.Duration
}

// Output captures what a subprocess produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	// Err is set when the process could not be started or did not exit cleanly.
	Err      error
	Duration time.Duration
}

// OK reports a clean zero exit.
func (o Output) OK() bool { return o.Err == nil && !o.TimedOut && o.ExitCode == 0 }

// Runner abstracts PATH lookup and process execution so probing and
// dispatching can be tested without real binaries.
type Runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, spec Spec) Output
}
