package command

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"clirouter/internal/registry"
	"clirouter/internal/runner"
)

func describe(t *testing.T, name string) registry.Descriptor {
	t.Helper()
	d, err := registry.Builtin().Describe(name)
	if err != nil {
		t.Fatalf("Describe(%s): %v", name, err)
	}
	return d
}

func TestBuild_FlagStyle(t *testing.T) {
	c, err := Build(describe(t, "gemini"), "gemini", "translate this paragraph", nil, "")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if got, want := c.String(), "gemini --prompt 'translate this paragraph'"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(c.Argv(), []string{"gemini", "--prompt", "translate this paragraph"}) {
		t.Fatalf("unexpected argv: %q", c.Argv())
	}
}

func TestBuild_Positional(t *testing.T) {
	c, err := Build(describe(t, "qwen"), "npx @qwen-code/qwen-code", "fix it", nil, "")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	want := []string{"npx", "@qwen-code/qwen-code", "fix it"}
	if !reflect.DeepEqual(c.Argv(), want) {
		t.Fatalf("argv = %q, want %q", c.Argv(), want)
	}
}

func TestBuild_PositionalLeadingDash(t *testing.T) {
	c, err := Build(describe(t, "qwen"), "qwen", "--yolo rm everything", nil, "")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	want := []string{"qwen", "--", "--yolo rm everything"}
	if !reflect.DeepEqual(c.Argv(), want) {
		t.Fatalf("argv = %q, want %q", c.Argv(), want)
	}
	// behind a prompt flag the text is already a flag value
	c, err = Build(describe(t, "gemini"), "gemini", "-v please", nil, "")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !reflect.DeepEqual(c.Argv(), []string{"gemini", "--prompt", "-v please"}) {
		t.Fatalf("argv = %q", c.Argv())
	}
}

func TestQuoteFor(t *testing.T) {
	got := QuoteFor("windows", "--prompt", `it's a "test"`, "a&b", `C:\my dir\`, "")
	want := `--prompt "it's a ""test""" "a&b" "C:\my dir\\" ""`
	if got != want {
		t.Fatalf("QuoteFor(windows) = %s, want %s", got, want)
	}
	if got := QuoteFor("linux", "a b", "c"); got != Quote("a b", "c") {
		t.Fatalf("QuoteFor(linux) = %s", got)
	}

	c := Command{Raw: "npx foo 2>nul", Shell: true, Args: []string{"hi there"}}
	if got := c.ShellLine("windows"); got != `npx foo 2>nul "hi there"` {
		t.Fatalf("ShellLine(windows) = %s", got)
	}
	if got := c.ShellLine("linux"); got != "npx foo 2>nul "+Quote("hi there") {
		t.Fatalf("ShellLine(linux) = %s", got)
	}
}

func TestBuild_TrailingWithContext(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := describe(t, "codebuddy")
	c, err := Build(d, "codebuddy", "write tests", []string{"main.go", "missing.go", "../outside.go"}, dir)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	want := []string{"codebuddy", "--file", filepath.Join(dir, "main.go"), "--cwd", dir, "-p", "write tests"}
	if !reflect.DeepEqual(c.Argv(), want) {
		t.Fatalf("argv = %q, want %q", c.Argv(), want)
	}
	if c.Dir != "" {
		t.Fatalf("workdir flag tools should not set Dir, got %q", c.Dir)
	}
}

func TestBuild_WorkdirWithoutFlagSetsDir(t *testing.T) {
	dir := t.TempDir()
	c, err := Build(describe(t, "claude"), "claude", "explain", nil, dir)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if c.Dir != dir {
		t.Fatalf("Dir = %q, want %q", c.Dir, dir)
	}
	if !reflect.DeepEqual(c.Argv(), []string{"claude", "-p", "explain"}) {
		t.Fatalf("unexpected argv: %q", c.Argv())
	}
}

func TestBuild_EmptyRequest(t *testing.T) {
	if _, err := Build(describe(t, "claude"), "claude", "   ", nil, ""); err != ErrEmptyRequest {
		t.Fatalf("expected ErrEmptyRequest, got %v", err)
	}
}

func TestBuild_RoundTrip(t *testing.T) {
	requests := []string{
		`say "hello"`,
		"it's   spaced\tout",
		"解释这段代码 — naïve café",
		`$(rm -rf /) ; echo pwned | cat > x`,
		"back\\slash and `ticks`",
	}
	d := describe(t, "gemini")
	for _, req := range requests {
		c, err := Build(d, "gemini", req, nil, "")
		if err != nil {
			t.Fatalf("Build(%q) error: %v", req, err)
		}
		toks, err := Parse(c.String())
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", c.String(), err)
		}
		if len(toks) != 3 || toks[1] != "--prompt" || toks[2] != req {
			t.Fatalf("round trip of %q gave %q", req, toks)
		}
	}
}

func TestBuild_ShellCandidate(t *testing.T) {
	d := describe(t, "gemini")
	c, err := Build(d, "NODE_OPTIONS=--no-warnings npx @google/gemini-cli 2>/dev/null", `say "hi"`, nil, "")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !c.Shell {
		t.Fatalf("expected shell form")
	}
	spec := c.Spec(time.Second)
	if !spec.Shell || spec.Line != c.String() || spec.Argv != nil {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestBuildFromTemplate(t *testing.T) {
	d := describe(t, "gemini")
	params := map[string]string{"prompt": `review "this"`, "model": ""}
	c, err := BuildFromTemplate(d, "{bin} --prompt {prompt} --model {model} --tag=src-{source}", "gemini", params, nil, "")
	if err != nil {
		t.Fatalf("BuildFromTemplate error: %v", err)
	}
	want := []string{"gemini", "--prompt", `review "this"`, "--tag=src-"}
	if !reflect.DeepEqual(c.Argv(), want) {
		t.Fatalf("argv = %q, want %q", c.Argv(), want)
	}
	if _, err := BuildFromTemplate(d, "--prompt {bin}", "gemini", params, nil, ""); err == nil {
		t.Fatalf("expected error for misplaced {bin}")
	}
}

func TestBase(t *testing.T) {
	if Base("npx @org/alpha") != "npx" || Base("python3 -m aider") != "python3" || Base("") != "" || Base("NODE_OPTIONS=--x npx foo") != "npx" {
		t.Fatalf("unexpected Base results")
	}
}

// A request with an embedded double quote reaches the tool as one argument
// when the rendered line is executed by a POSIX shell.
func TestBuild_ShellDeliversSingleArgument(t *testing.T) {
	rn := runner.New()
	if _, err := rn.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	d := registry.Descriptor{Name: "echoer", ArgStyle: registry.ArgPositional, FileFlag: "--file"}
	c, err := Build(d, `printf '%s|'`, `say "hello"`, nil, "")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	out := rn.Run(context.Background(), runner.Spec{Shell: true, Line: c.String(), Timeout: 5 * time.Second})
	if !out.OK() {
		t.Fatalf("shell run failed: %+v", out)
	}
	if out.Stdout != `say "hello"|` {
		t.Fatalf("stdout = %q", out.Stdout)
	}
}
