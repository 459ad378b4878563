package dispatch

import (
	"strings"
	"testing"

	"clirouter/internal/probe"
	"clirouter/internal/registry"
)

func TestClassify(t *testing.T) {
	cases := map[string]registry.Class{
		"write a function that parses dates":    registry.ClassGeneration,
		"explain what this module does":         registry.ClassAnalysis,
		"fix the panic in the scheduler":        registry.ClassDebugging,
		"add unit tests for the cache":          registry.ClassTesting,
		"translate this paragraph":              registry.ClassDocumentation,
		"optimize the hot loop for performance": registry.ClassOptimization,
		"hello there":                           registry.ClassGeneral,
		"帮我修复这个错误":                      registry.ClassDebugging,
		"给这个函数写注释和文档":                registry.ClassDocumentation,
		"show the latest release":               registry.ClassGeneral,
	}
	for in, want := range cases {
		if got := Classify(in); got != want {
			t.Fatalf("Classify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHint_EveryClass(t *testing.T) {
	seen := map[string]registry.Class{}
	for _, c := range registry.Classes {
		h := hint(c)("beta")
		if strings.TrimSpace(h) == "" {
			t.Fatalf("class %q has an empty hint", c)
		}
		if prev, dup := seen[h]; dup {
			t.Fatalf("classes %q and %q share a hint", prev, c)
		}
		seen[h] = c
	}
}

func TestParseIntent(t *testing.T) {
	reg := registry.Builtin()
	cases := []struct {
		in   string
		tool string
		task string
	}{
		{"let gemini translate this paragraph", "gemini", "translate this paragraph"},
		{"Ask Claude to help me write tests", "claude", "write tests"},
		{"please use codex and refactor main.go", "codex", "refactor main.go"},
		{"用qwen帮我优化这段代码", "qwen", "优化这段代码"},
		{"让 gemini 总结这篇文章", "gemini", "总结这篇文章"},
		{"I think copilot could review this", "copilot", "I think copilot could review this"},
	}
	for _, c := range cases {
		got, ok := ParseIntent(reg, c.in)
		if !ok || got.Tool != c.tool || got.Task != c.task {
			t.Fatalf("ParseIntent(%q) = %+v, %v; want %s / %q", c.in, got, ok, c.tool, c.task)
		}
	}
	if _, ok := ParseIntent(reg, "let somebody do it"); ok {
		t.Fatalf("expected no intent for unknown tool")
	}
}

func TestGuide(t *testing.T) {
	reg := registry.Builtin()
	d, _ := reg.Describe("claude")
	out := Guide(GuideInput{
		Tool:      d,
		Probe:     probe.Result{Tool: "claude"},
		Candidate: "claude",
		Command:   "claude -p 'hi'",
	})
	for _, want := range []string{
		"npm install -g @anthropic-ai/claude-code",
		"claude --version",
		"claude -p 'hi'",
		"- `npx @anthropic-ai/claude-code`",
		"`ANTHROPIC_API_KEY`",
		"currently not set",
		"Not detected",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("guide lacks %q:\n%s", want, out)
		}
	}

	aider, _ := reg.Describe("aider")
	out = Guide(GuideInput{Tool: aider, Candidate: "aider", Probe: probe.Result{Exists: true, WorkingCandidate: "aider", Version: "aider 0.86.1"}})
	if strings.Count(out, "\n- `") != 2 || !strings.Contains(out, "pip install aider-chat") || !strings.Contains(out, "aider 0.86.1") {
		t.Fatalf("unexpected aider guide:\n%s", out)
	}
}
