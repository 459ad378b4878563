// Package errs defines the error taxonomy shared by probing, building and dispatching.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for programmatic handling.
type Kind string

const (
	KindUnknownTool        Kind = "unknown_tool"
	KindProbeFailure       Kind = "probe_failure"
	KindExecutionTimeout   Kind = "execution_timeout"
	KindExecutionFailure   Kind = "execution_failure"
	KindMissingParameter   Kind = "missing_parameter"
	KindCredentialsMissing Kind = "credentials_missing"
	KindInvalidRequest     Kind = "invalid_request"
	KindInternal           Kind = "internal"
)

// Exit codes for the clirouter binary.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitMalformed = 2
)

// Error wraps an underlying error with a kind and the tool it concerns.
type Error struct {
	Kind    Kind
	Tool    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Tool != "" {
		msg = fmt.Sprintf("%s: %s", e.Tool, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same Kind, so errors.Is(err, errs.UnknownTool("")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a coded error.
func New(kind Kind, tool, message string) *Error {
	return &Error{Kind: kind, Tool: tool, Message: message}
}

// Wrap creates a coded error around err.
func Wrap(kind Kind, tool, message string, err error) *Error {
	return &Error{Kind: kind, Tool: tool, Message: message, Err: err}
}

// UnknownTool reports a registry miss.
func UnknownTool(name string) *Error {
	return &Error{Kind: KindUnknownTool, Tool: name, Message: "unknown tool"}
}

// MissingParameter reports a required mapping rule with no source value and no default.
func MissingParameter(tool, key string) *Error {
	return &Error{Kind: KindMissingParameter, Tool: tool, Message: fmt.Sprintf("missing required parameter %q", key)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec interface{ ExitCode() int }
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	switch KindOf(err) {
	case KindUnknownTool, KindInvalidRequest:
		return ExitMalformed
	}
	return ExitFailure
}

// ExitError carries an explicit exit code without an error message of its own.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExitCode returns the carried code.
func (e *ExitError) ExitCode() int { return e.Code }
