// Package command turns a resolved tool, a request and optional context into
// an argument vector. Nothing here executes anything.
package command

import (
	"runtime"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"clirouter/internal/runner"
)

// shellMeta are characters that only make sense to a shell.
const shellMeta = "|&;<>$`()*?"

// Command is a fully built invocation.
type Command struct {
	// Invocation is the split candidate (e.g. ["npx", "@google/gemini-cli"]).
	Invocation []string `json:"invocation"`
	// Raw is the unsplit candidate, used verbatim when Shell is set.
	Raw   string   `json:"raw,omitempty"`
	Args  []string `json:"args"`
	Dir   string   `json:"dir,omitempty"`
	Shell bool     `json:"shell,omitempty"`
}

// Argv returns the full argument vector.
func (c Command) Argv() []string {
	out := make([]string, 0, len(c.Invocation)+len(c.Args))
	out = append(out, c.Invocation...)
	return append(out, c.Args...)
}

// String renders a POSIX-shell-safe command line.
func (c Command) String() string {
	if c.Shell {
		if len(c.Args) == 0 {
			return c.Raw
		}
		return c.Raw + " " + shellquote.Join(c.Args...)
	}
	return shellquote.Join(c.Argv()...)
}

// ShellLine renders the shell candidate and its arguments for the shell the
// runner uses on goos: cmd.exe on windows, sh elsewhere.
func (c Command) ShellLine(goos string) string {
	if len(c.Args) == 0 {
		return c.Raw
	}
	return c.Raw + " " + QuoteFor(goos, c.Args...)
}

// Spec converts the command into a runner spec with the given timeout.
func (c Command) Spec(timeout time.Duration, env ...string) runner.Spec {
	s := runner.Spec{Dir: c.Dir, Timeout: timeout, Env: env}
	if c.Shell {
		s.Shell = true
		s.Line = c.ShellLine(runtime.GOOS)
		return s
	}
	s.Argv = c.Argv()
	return s
}

// NeedsShell reports whether candidate relies on shell features.
func NeedsShell(candidate string) bool {
	return strings.ContainsAny(candidate, shellMeta)
}

// Split splits a candidate template into tokens.
func Split(candidate string) ([]string, error) {
	return shellquote.Split(candidate)
}

// Parse splits a rendered command line back into arguments.
func Parse(line string) ([]string, error) {
	return shellquote.Split(line)
}

// Base returns the executable token of candidate, skipping leading
// VAR=value assignments.
func Base(candidate string) string {
	toks, err := Split(candidate)
	if err != nil {
		toks = strings.Fields(candidate)
	}
	for _, t := range toks {
		if i := strings.IndexByte(t, '='); i > 0 && !strings.HasPrefix(t, "-") {
			continue
		}
		return t
	}
	return ""
}

// Quote joins args into one POSIX shell line, quoting where needed.
func Quote(args ...string) string { return shellquote.Join(args...) }

// QuoteFor joins args for the shell used on goos.
func QuoteFor(goos string, args ...string) string {
	if goos != "windows" {
		return Quote(args...)
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = quoteCmd(a)
	}
	return strings.Join(out, " ")
}

// cmdSpecial are characters cmd.exe or the argv parser treat specially
// outside double quotes.
const cmdSpecial = " \t\"&|<>()^,;=!'"

// quoteCmd wraps a in double quotes for cmd.exe. Inner quotes are doubled so
// cmd's own quote tracking stays in step with the program's argv parser, and
// backslashes in front of a quote are doubled.
func quoteCmd(a string) string {
	if a == "" {
		return `""`
	}
	if !strings.ContainsAny(a, cmdSpecial) {
		return a
	}
	var b strings.Builder
	b.WriteByte('"')
	slashes := 0
	for _, r := range a {
		switch r {
		case '\\':
			slashes++
			b.WriteRune(r)
			continue
		case '"':
			b.WriteString(strings.Repeat(`\`, slashes))
			b.WriteString(`""`)
		default:
			b.WriteRune(r)
		}
		slashes = 0
	}
	b.WriteString(strings.Repeat(`\`, slashes))
	b.WriteByte('"')
	return b.String()
}
