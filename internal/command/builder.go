package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"clirouter/internal/registry"
)

// ErrEmptyRequest is returned when there is no request text to send.
var ErrEmptyRequest = errors.New("empty request")

// Build constructs the command for d invoked through candidate.
// Context files that do not exist are skipped silently.
func Build(d registry.Descriptor, candidate, request string, files []string, workdir string) (Command, error) {
	if strings.TrimSpace(request) == "" {
		return Command{}, ErrEmptyRequest
	}
	c, err := invocation(candidate)
	if err != nil {
		return Command{}, err
	}
	ctxArgs, dir := contextArgs(d, files, workdir)
	c.Dir = dir

	bare := d.PromptFlag == "" || d.ArgStyle == registry.ArgPositional
	if bare && strings.HasPrefix(strings.TrimSpace(request), "-") {
		// a bare request that looks like a flag goes after "--", so the
		// context flags have to come first
		c.Args = append(append(ctxArgs, "--"), request)
		return c, nil
	}

	var req []string
	if !bare {
		req = append(req, d.PromptFlag)
	}
	req = append(req, request)

	switch d.ArgStyle {
	case registry.ArgTrailing:
		c.Args = append(ctxArgs, req...)
	default:
		c.Args = append(req, ctxArgs...)
	}
	return c, nil
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// BuildFromTemplate renders a collaboration template such as
// "{bin} --prompt {prompt} --model {model}". {bin} expands to the candidate
// tokens; a whole-token placeholder becomes exactly one argument, and is
// dropped together with a preceding flag when it has no value. A template
// without {bin} is an argument list for the resolved candidate.
func BuildFromTemplate(d registry.Descriptor, template, candidate string, params map[string]string, files []string, workdir string) (Command, error) {
	toks, err := Split(template)
	if err != nil {
		return Command{}, fmt.Errorf("template %q: %w", template, err)
	}
	c, err := invocation(candidate)
	if err != nil {
		return Command{}, err
	}
	var args []string
	for i, tok := range toks {
		if tok == "{bin}" {
			if i != 0 {
				return Command{}, fmt.Errorf("template %q: {bin} must come first", template)
			}
			continue
		}
		if m := placeholderRe.FindStringSubmatch(tok); m != nil && m[0] == tok {
			v := params[m[1]]
			if strings.TrimSpace(v) == "" {
				if n := len(args); n > 0 && strings.HasPrefix(args[n-1], "-") && isLiteralFlag(toks, i-1) {
					args = args[:n-1]
				}
				continue
			}
			args = append(args, v)
			continue
		}
		args = append(args, placeholderRe.ReplaceAllStringFunc(tok, func(s string) string {
			return params[s[1:len(s)-1]]
		}))
	}
	ctxArgs, dir := contextArgs(d, files, workdir)
	c.Args = append(args, ctxArgs...)
	c.Dir = dir
	if len(c.Args) == 0 {
		return Command{}, ErrEmptyRequest
	}
	return c, nil
}

func isLiteralFlag(toks []string, i int) bool {
	return i >= 0 && i < len(toks) && strings.HasPrefix(toks[i], "-") && !placeholderRe.MatchString(toks[i])
}

func invocation(candidate string) (Command, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return Command{}, errors.New("empty invocation candidate")
	}
	if NeedsShell(candidate) {
		return Command{Raw: candidate, Shell: true, Invocation: []string{candidate}}, nil
	}
	toks, err := Split(candidate)
	if err != nil {
		return Command{}, fmt.Errorf("candidate %q: %w", candidate, err)
	}
	return Command{Raw: candidate, Invocation: toks}, nil
}

// contextArgs returns --file flags for existing files plus the workdir flag,
// or the directory the process should run in when the tool has no such flag.
func contextArgs(d registry.Descriptor, files []string, workdir string) ([]string, string) {
	var args []string
	for _, f := range ResolveFiles(files, workdir) {
		args = append(args, d.FileFlag, f)
	}
	workdir = strings.TrimSpace(workdir)
	if workdir == "" {
		return args, ""
	}
	if d.WorkdirFlag != "" {
		return append(args, d.WorkdirFlag, workdir), ""
	}
	return args, workdir
}

// ResolveFiles returns the context files that exist and are regular files.
// Relative paths resolve inside workdir and may not escape it.
func ResolveFiles(files []string, workdir string) []string {
	var out []string
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		p := f
		if !filepath.IsAbs(f) && workdir != "" {
			joined, err := securejoin.SecureJoin(workdir, f)
			if err != nil {
				continue
			}
			p = joined
		}
		st, err := os.Stat(p)
		if err != nil || st.IsDir() {
			continue
		}
		out = append(out, p)
	}
	return out
}
