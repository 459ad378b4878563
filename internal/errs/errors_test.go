package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := MissingParameter("gemini", "prompt")
	wrapped := fmt.Errorf("translate: %w", base)
	if got := KindOf(wrapped); got != KindMissingParameter {
		t.Fatalf("KindOf = %q, want %q", got, KindMissingParameter)
	}
	if !errors.Is(wrapped, &Error{Kind: KindMissingParameter}) {
		t.Fatalf("errors.Is should match by kind")
	}
	if errors.Is(wrapped, &Error{Kind: KindUnknownTool}) {
		t.Fatalf("errors.Is should not match a different kind")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{UnknownTool("nope"), ExitMalformed},
		{New(KindInvalidRequest, "", "bad context"), ExitMalformed},
		{New(KindExecutionFailure, "claude", "exit 1"), ExitFailure},
		{errors.New("plain"), ExitFailure},
		{fmt.Errorf("wrapped: %w", &ExitError{Code: 7}), 7},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestError_Message(t *testing.T) {
	e := Wrap(KindExecutionTimeout, "qwen", "timed out after 2m0s", errors.New("context deadline exceeded"))
	want := "qwen: timed out after 2m0s: context deadline exceeded"
	if e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
}
