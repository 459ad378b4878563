package testutil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"clirouter/internal/runner"
)

// Script is one canned answer: the first Script whose Match is contained in
// the rendered command line answers the call.
type Script struct {
	Match  string
	Output runner.Output
}

// FakeRunner is a scripted runner.Runner that records every call.
type FakeRunner struct {
	mu sync.Mutex
	// Paths maps an executable name to its resolved path; absent names are not found.
	Paths   map[string]string
	Scripts []Script
	calls   []runner.Spec
}

// NewFakeRunner returns a FakeRunner where bins resolve to /usr/bin/<bin>.
func NewFakeRunner(bins ...string) *FakeRunner {
	f := &FakeRunner{Paths: map[string]string{}}
	for _, b := range bins {
		f.Paths[b] = "/usr/bin/" + b
	}
	return f
}

// On appends a script and returns f for chaining.
func (f *FakeRunner) On(match string, out runner.Output) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scripts = append(f.Scripts, Script{Match: match, Output: out})
	return f
}

func (f *FakeRunner) LookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Paths[file]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

func (f *FakeRunner) Run(_ context.Context, spec runner.Spec) runner.Output {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, spec)
	line := Line(spec)
	for _, s := range f.Scripts {
		if strings.Contains(line, s.Match) {
			return s.Output
		}
	}
	return runner.Output{ExitCode: -1, Err: fmt.Errorf("no script for %q", line)}
}

// Calls returns a copy of the recorded specs.
func (f *FakeRunner) Calls() []runner.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Spec(nil), f.calls...)
}

// Lines returns the recorded calls rendered as command lines.
func (f *FakeRunner) Lines() []string {
	var out []string
	for _, s := range f.Calls() {
		out = append(out, Line(s))
	}
	return out
}

// Line renders a spec for matching.
func Line(s runner.Spec) string {
	if s.Shell {
		return s.Line
	}
	return strings.Join(s.Argv, " ")
}
