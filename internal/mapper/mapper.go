// Package mapper translates parameters between tools that collaborate on a
// request (e.g. a request originating in claude forwarded to gemini).
package mapper

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"clirouter/internal/errs"
)

// Kind selects how a rule produces its target value.
type Kind string

const (
	// KindDirect copies the source value unchanged.
	KindDirect Kind = "direct"
	// KindTransform applies a named transform to the source value.
	KindTransform Kind = "transform"
	// KindIgnore drops the source key.
	KindIgnore Kind = "ignore"
	// KindCustom computes the target from all parameters with a named function.
	KindCustom Kind = "custom"
)

// Rule maps one source key onto one target key.
type Rule struct {
	Source string `json:"source"`
	// Target defaults to Source.
	Target string `json:"target,omitempty"`
	Kind   Kind   `json:"kind"`
	// Transform names a transform (KindTransform) or custom function (KindCustom).
	Transform string `json:"transform,omitempty"`
	Default   string `json:"default,omitempty"`
	Required  bool   `json:"required,omitempty"`
}

func (r Rule) target() string {
	if r.Target != "" {
		return r.Target
	}
	return r.Source
}

// Pattern describes how a source tool's request is forwarded to a target tool.
type Pattern struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Description string `json:"description,omitempty"`
	// Template is rendered by command.BuildFromTemplate with the translated parameters.
	Template string `json:"template"`
	Rules    []Rule `json:"rules"`
}

// Key is the "source->target" lookup key.
func (p Pattern) Key() string { return key(p.Source, p.Target) }

func key(source, target string) string {
	return strings.ToLower(strings.TrimSpace(source)) + "->" + strings.ToLower(strings.TrimSpace(target))
}

// TransformFunc rewrites a single value.
type TransformFunc func(string) string

// CustomFunc derives a value from the full parameter set.
type CustomFunc func(params map[string]string) string

// Mapper holds the transform and custom-function tables plus the known patterns.
// Both tables are fixed at construction.
type Mapper struct {
	transforms map[string]TransformFunc
	customs    map[string]CustomFunc
	patterns   map[string]Pattern
}

// New builds a mapper with the standard transforms and the given patterns.
// Every pattern is validated; an unknown transform name is an error here, not
// at translation time.
func New(patterns ...Pattern) (*Mapper, error) {
	m := &Mapper{
		transforms: defaultTransforms(),
		customs:    defaultCustoms(),
		patterns:   map[string]Pattern{},
	}
	for _, p := range patterns {
		if err := m.Validate(p); err != nil {
			return nil, err
		}
		m.patterns[p.Key()] = p
	}
	return m, nil
}

// Default returns the mapper holding the builtin collaboration patterns.
func Default() *Mapper {
	m, err := New(builtinPatterns...)
	if err != nil {
		panic("invalid builtin pattern table: " + err.Error())
	}
	return m
}

// Validate checks p against the mapper's tables.
func (m *Mapper) Validate(p Pattern) error {
	if strings.TrimSpace(p.Source) == "" || strings.TrimSpace(p.Target) == "" {
		return fmt.Errorf("pattern %q: source and target are required", p.Key())
	}
	if strings.TrimSpace(p.Template) == "" {
		return fmt.Errorf("pattern %s: empty template", p.Key())
	}
	for _, r := range p.Rules {
		if strings.TrimSpace(r.Source) == "" {
			return fmt.Errorf("pattern %s: rule without source", p.Key())
		}
		switch r.Kind {
		case KindDirect, KindIgnore:
		case KindTransform:
			if _, ok := m.transforms[r.Transform]; !ok {
				return fmt.Errorf("pattern %s: unknown transform %q", p.Key(), r.Transform)
			}
		case KindCustom:
			if _, ok := m.customs[r.Transform]; !ok {
				return fmt.Errorf("pattern %s: unknown custom function %q", p.Key(), r.Transform)
			}
		default:
			return fmt.Errorf("pattern %s: unknown rule kind %q", p.Key(), r.Kind)
		}
	}
	return nil
}

// Lookup returns the pattern for source->target.
func (m *Mapper) Lookup(source, target string) (Pattern, bool) {
	p, ok := m.patterns[key(source, target)]
	return p, ok
}

// Patterns returns all patterns sorted by key.
func (m *Mapper) Patterns() []Pattern {
	out := make([]Pattern, 0, len(m.patterns))
	for _, p := range m.patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Translate applies p's rules to params. A required key that is absent and
// has no default yields a missing_parameter error.
func (m *Mapper) Translate(p Pattern, params map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(p.Rules))
	for _, r := range p.Rules {
		if r.Kind == KindIgnore {
			continue
		}
		v := strings.TrimSpace(params[r.Source])
		if v == "" {
			v = r.Default
		}
		if v == "" && r.Required {
			return nil, errs.MissingParameter(p.Target, r.Source)
		}
		switch r.Kind {
		case KindDirect:
			if v != "" {
				out[r.target()] = v
			}
		case KindTransform:
			if v != "" {
				out[r.target()] = m.transforms[r.Transform](v)
			}
		case KindCustom:
			in := make(map[string]string, len(params)+1)
			for k, pv := range params {
				in[k] = pv
			}
			in[r.Source] = v
			if s := m.customs[r.Transform](in); s != "" {
				out[r.target()] = s
			}
		}
	}
	return out, nil
}

const maxPromptRunes = 4096

func defaultTransforms() map[string]TransformFunc {
	return map[string]TransformFunc{
		"lower":       strings.ToLower,
		"upper":       strings.ToUpper,
		"trim":        strings.TrimSpace,
		"single_line": singleLine,
		"join_files":  joinFiles,
		"truncate_4k": func(s string) string { return truncate(s, maxPromptRunes) },
	}
}

func defaultCustoms() map[string]CustomFunc {
	return map[string]CustomFunc{
		"claude_to_gemini_prompt": claudeToGeminiPrompt,
		"context_summary":         contextSummary,
	}
}

func singleLine(s string) string { return strings.Join(strings.Fields(s), " ") }

// joinFiles normalizes a comma or newline separated file list to "a, b".
func joinFiles(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// claudeToGeminiPrompt folds the forwarding tool, context and files into a
// single prompt since gemini takes one --prompt argument.
func claudeToGeminiPrompt(p map[string]string) string {
	prompt := strings.TrimSpace(p["prompt"])
	if prompt == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(prompt)
	if ctx := strings.TrimSpace(p["context"]); ctx != "" {
		b.WriteString("\n\nContext:\n")
		b.WriteString(ctx)
	}
	if files := joinFiles(p["files"]); files != "" {
		b.WriteString("\n\nRelevant files: ")
		b.WriteString(files)
	}
	return truncate(b.String(), maxPromptRunes)
}

// contextSummary produces a one-line description of where a request came from.
func contextSummary(p map[string]string) string {
	var parts []string
	if src := strings.TrimSpace(p["source"]); src != "" {
		parts = append(parts, "forwarded from "+src)
	}
	if files := joinFiles(p["files"]); files != "" {
		parts = append(parts, "files: "+files)
	}
	if ctx := singleLine(p["context"]); ctx != "" {
		parts = append(parts, truncate(ctx, 200))
	}
	return strings.Join(parts, "; ")
}
