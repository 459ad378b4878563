package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clirouter/internal/app"
	"clirouter/internal/command"
	"clirouter/internal/config"
	"clirouter/internal/dispatch"
	"clirouter/internal/errs"
	"clirouter/internal/probe"
	"clirouter/internal/registry"
	"clirouter/internal/runner"
	tu "clirouter/internal/testutil"
)

func TestBuildRouteRequest_ContextJSON(t *testing.T) {
	wd := t.TempDir()
	o := routeOptions{Context: `{"task":"explain main.go","files":["main.go"],"cwd":"sub","source":"claude"}`}
	req, err := buildRouteRequest("gemini", "", o, wd)
	if err != nil {
		t.Fatalf("buildRouteRequest error: %v", err)
	}
	if req.Target != "gemini" || req.Text != "explain main.go" || req.Source != "claude" {
		t.Fatalf("req = %+v", req)
	}
	if req.Workdir != filepath.Join(wd, "sub") {
		t.Fatalf("workdir = %q", req.Workdir)
	}
	if len(req.Files) != 1 || req.Files[0] != "main.go" {
		t.Fatalf("files = %v", req.Files)
	}
}

func TestBuildRouteRequest_FilesConfinedToWorkdir(t *testing.T) {
	wd := t.TempDir()
	sub := filepath.Join(wd, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wd, "secret.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}
	o := routeOptions{Request: "explain", Cwd: "sub", Files: []string{"../secret.txt", "main.go"}}
	req, err := buildRouteRequest("gemini", "", o, wd)
	if err != nil {
		t.Fatalf("buildRouteRequest error: %v", err)
	}
	got := command.ResolveFiles(req.Files, req.Workdir)
	if len(got) != 1 || got[0] != filepath.Join(sub, "main.go") {
		t.Fatalf("resolved files = %v", got)
	}

	// without a workdir, relative files stay inside the current directory
	req, err = buildRouteRequest("gemini", "", routeOptions{Request: "explain", Files: []string{"../../etc/hosts"}}, sub)
	if err != nil {
		t.Fatalf("buildRouteRequest error: %v", err)
	}
	if len(req.Files) != 1 || !strings.HasPrefix(req.Files[0], sub) {
		t.Fatalf("files escaped: %v", req.Files)
	}
}

func TestBuildRouteRequest_FlagsWin(t *testing.T) {
	o := routeOptions{
		Context:    `{"request":"from context","cwd":"/tmp/a"}`,
		Request:    "from flag",
		Source:     "codex",
		Cwd:        "/tmp/b",
		Files:      []string{"/etc/hosts"},
		NoFallback: true,
	}
	req, err := buildRouteRequest("claude", "positional words", o, "/")
	if err != nil {
		t.Fatal(err)
	}
	if req.Text != "from flag" || req.Source != "codex" || req.Workdir != "/tmp/b" || !req.NoFallback {
		t.Fatalf("req = %+v", req)
	}
	req, _ = buildRouteRequest("claude", "positional words", routeOptions{Context: `{"prompt":"p"}`}, "/")
	if req.Text != "positional words" {
		t.Fatalf("positional request not used: %q", req.Text)
	}
}

func TestBuildRouteRequest_ContextFile(t *testing.T) {
	wd := t.TempDir()
	if err := os.WriteFile(filepath.Join(wd, "ctx.json"), []byte(`{"task":"write tests"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	req, err := buildRouteRequest("codex", "", routeOptions{ContextFile: "ctx.json"}, wd)
	if err != nil || req.Text != "write tests" {
		t.Fatalf("req = %+v, err = %v", req, err)
	}
	// relative paths cannot climb out of the working directory
	p, err := resolvePath(wd, "../../etc/passwd")
	if err != nil || !strings.HasPrefix(p, wd) {
		t.Fatalf("resolvePath escaped: %q, %v", p, err)
	}
}

func TestBuildRouteRequest_Malformed(t *testing.T) {
	cases := []routeOptions{
		{Context: `{"task":`},
		{Context: `{}`, ContextFile: "x.json"},
		{ContextFile: "missing.json"},
	}
	for _, o := range cases {
		_, err := buildRouteRequest("claude", "", o, t.TempDir())
		if errs.ExitCode(err) != errs.ExitMalformed {
			t.Fatalf("%+v: exit code %d (err %v)", o, errs.ExitCode(err), err)
		}
	}
}

func TestSelectTools(t *testing.T) {
	reg := registry.Builtin()
	all, err := selectTools(reg, nil)
	if err != nil || len(all) != len(reg.Names()) {
		t.Fatalf("no args: %d tools, %v", len(all), err)
	}
	got, err := selectTools(reg, []string{"Google", "gemini", "openai"})
	if err != nil || len(got) != 2 || got[0].Name != "gemini" || got[1].Name != "codex" {
		t.Fatalf("selected = %v, %v", got, err)
	}
	if _, err := selectTools(reg, []string{"nope"}); !errs.IsKind(err, errs.KindUnknownTool) {
		t.Fatalf("err = %v", err)
	}
}

func TestSchemaFor(t *testing.T) {
	for _, which := range []string{"context", "tools", "result"} {
		sch, err := schemaFor(which)
		if err != nil {
			t.Fatalf("%s: %v", which, err)
		}
		b, _ := json.Marshal(sch)
		if !strings.Contains(string(b), "properties") {
			t.Fatalf("%s schema has no properties: %s", which, b)
		}
	}
	if _, err := schemaFor("other"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStatusTable(t *testing.T) {
	out := statusTable([]probe.Result{
		{Tool: "claude", Exists: true, Version: "1.0.0", WorkingCandidate: "claude", CredentialEnv: "ANTHROPIC_API_KEY"},
		{Tool: "qwen"},
	}, func(string) bool { return false })
	for _, want := range []string{"claude", "1.0.0", "ANTHROPIC_API_KEY", "qwen", "1/2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table lacks %q:\n%s", want, out)
		}
	}
}

func TestInteractiveCmd(t *testing.T) {
	c, err := interactiveCmd("npx @google/gemini-cli", []string{"--model", "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(c.Args, " "); got != "npx @google/gemini-cli --model x" {
		t.Fatalf("args = %q", got)
	}
	c, _ = interactiveCmd("NODE_NO_WARNINGS=1 npx foo 2>/dev/null", nil)
	if c.Args[0] != "sh" && c.Args[0] != "cmd" {
		t.Fatalf("shell candidate not wrapped: %v", c.Args)
	}
}

func withFakeEnv(t *testing.T, rn runner.Runner) string {
	t.Helper()
	dir := t.TempDir()
	prev := loadEnv
	loadEnv = func() (*app.Env, error) {
		cfg := config.FromFile(dir, config.File{})
		cfg.Getenv = tu.MapEnv(nil)
		return app.New(cfg, rn)
	}
	t.Cleanup(func() {
		loadEnv = prev
		routeOpts = routeOptions{}
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	return dir
}

func TestRouteCommand(t *testing.T) {
	rn := tu.NewFakeRunner("qwen").
		On("qwen --version", runner.Output{Stdout: "0.0.14"}).
		On("qwen refactor this", runner.Output{Stdout: "refactored"})
	withFakeEnv(t, rn)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"route", "qwen", "--request", "refactor this"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("route error: %v", err)
	}
	var res dispatch.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if !res.Success || res.Response != "refactored" || res.FallbackLevel != 0 {
		t.Fatalf("res = %+v", res)
	}
}

func TestRouteCommand_FailureExitsOne(t *testing.T) {
	withFakeEnv(t, tu.NewFakeRunner())
	outFile := filepath.Join(t.TempDir(), "out", "result.json")

	rootCmd.SetArgs([]string{"route", "qwen", "--request", "hi", "--output_file", outFile})
	err := rootCmd.Execute()
	var ee *errs.ExitError
	if !errors.As(err, &ee) || ee.Code != errs.ExitFailure {
		t.Fatalf("err = %v", err)
	}
	b, rerr := os.ReadFile(outFile)
	if rerr != nil {
		t.Fatalf("output file: %v", rerr)
	}
	var res dispatch.Result
	if err := json.Unmarshal(b, &res); err != nil || res.Success || res.FallbackLevel != 3 {
		t.Fatalf("res = %+v (%v)", res, err)
	}
}

func TestRouteCommand_UnknownTool(t *testing.T) {
	withFakeEnv(t, tu.NewFakeRunner())
	rootCmd.SetArgs([]string{"route", "gemni", "--request", "hi"})
	err := rootCmd.Execute()
	if errs.ExitCode(err) != errs.ExitMalformed || !strings.Contains(err.Error(), "gemini") {
		t.Fatalf("err = %v", err)
	}
}
