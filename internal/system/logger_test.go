package system

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetLevel_Debug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, false)
	defer SetOutput(os.Stderr, false)
	defer SetLevel("info")

	SetLevel("debug")
	Logger.Debug("probe candidate", "tool", "gemini")
	if !strings.Contains(buf.String(), "probe candidate") {
		t.Fatalf("expected debug line, got %q", buf.String())
	}
}

func TestSetOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, true)
	defer SetOutput(os.Stderr, false)

	Logger.Info("dispatch finished", "level", 1)
	out := buf.String()
	if !strings.Contains(out, "{") || !strings.Contains(out, "dispatch finished") {
		t.Fatalf("expected JSON output, got %q", out)
	}
}
