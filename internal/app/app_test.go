package app

import (
	"os"
	"path/filepath"
	"testing"

	"clirouter/internal/config"
	tu "clirouter/internal/testutil"
)

func TestLoadRegistry_OverridesAndDisabled(t *testing.T) {
	dir := t.TempDir()
	yaml := `tools:
  - name: delta
    candidates: [delta, "npx @org/delta"]
    arg_style: flag
    prompt_flag: --ask
  - name: gemini
    timeout: 45s
`
	if err := os.WriteFile(filepath.Join(dir, config.ToolsFileYAML), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.FromFile(dir, config.File{DisabledTools: []string{"Aider"}})
	reg, err := LoadRegistry(cfg)
	if err != nil {
		t.Fatalf("LoadRegistry error: %v", err)
	}
	if reg.Has("aider") {
		t.Fatalf("disabled tool still registered")
	}
	d, err := reg.Describe("delta")
	if err != nil || d.PromptFlag != "--ask" || len(d.Candidates) != 2 {
		t.Fatalf("delta = %+v, %v", d, err)
	}
	g, _ := reg.Describe("gemini")
	if g.Timeout.String() != "45s" || g.PromptFlag != "--prompt" {
		t.Fatalf("gemini override = %+v", g)
	}
}

func TestLoadRegistry_InvalidOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ToolsFileYAML), []byte("tools:\n  - name: x\n    timeout: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistry(config.FromFile(dir, config.File{})); err == nil {
		t.Fatalf("expected error for invalid timeout")
	}
}

func TestNew(t *testing.T) {
	cfg := config.FromFile(t.TempDir(), config.File{})
	env, err := New(cfg, tu.NewFakeRunner())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !env.Registry().Has("claude") || env.Dispatcher.Prober() == nil {
		t.Fatalf("env not wired")
	}
}

func TestOpenModel_QuitsWhenToolFinishes(t *testing.T) {
	m := openModel{name: "claude"}
	next, cmd := m.Update(toolFinishedMsg{err: os.ErrNotExist})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if got := next.(openModel).err; got != os.ErrNotExist {
		t.Fatalf("err = %v", got)
	}
}
