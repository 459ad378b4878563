package ui

import (
	"strings"
	"testing"
)

func TestTable_AlignsWideCells(t *testing.T) {
	tb := Table{
		Headers: []string{"工具", "状态"},
		Rows: [][]string{
			{"claude", OK("已安装")},
			{"qwen", "未安装"},
		},
	}
	lines := strings.Split(strings.TrimRight(tb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	// "claude" is 6 cells wide, "工具" is 4; the status column starts at 6+2
	for _, l := range lines[1:] {
		if cellWidth(l) < 8 {
			t.Fatalf("row too narrow: %q", l)
		}
	}
	if got := cellWidth(pad("工具", 8)); got != 8 {
		t.Fatalf("pad width = %d", got)
	}
}

func TestRenderMarkdown_KeepsText(t *testing.T) {
	out := RenderMarkdown("# Title\n\nrun `claude -p hi`\n", 80)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "claude -p hi") {
		t.Fatalf("rendered output lost text: %q", out)
	}
}
