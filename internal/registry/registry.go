// Package registry holds the static table of external AI CLIs clirouter knows about.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"clirouter/internal/errs"
)

// Registry is an immutable name -> Descriptor lookup.
type Registry struct {
	tools []Descriptor
	index map[string]int
}

// New validates ds and builds a registry. Names and aliases are case-insensitive.
func New(ds ...Descriptor) (*Registry, error) {
	r := &Registry{index: map[string]int{}}
	for _, d := range ds {
		d = d.clone().withDefaults()
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", d.Name)
		}
		r.index[d.Name] = len(r.tools)
		r.tools = append(r.tools, d)
	}
	for i, d := range r.tools {
		for _, a := range d.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if _, taken := r.index[a]; a == "" || taken {
				continue
			}
			r.index[a] = i
		}
	}
	return r, nil
}

// Describe returns the descriptor for name or an UnknownTool error naming
// the closest known tools.
func (r *Registry) Describe(name string) (Descriptor, error) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		e := errs.UnknownTool(strings.TrimSpace(name))
		if s := r.Suggest(name); len(s) > 0 {
			e.Message = fmt.Sprintf("unknown tool (did you mean %s?)", strings.Join(s, ", "))
		}
		return Descriptor{}, e
	}
	return r.tools[i].clone(), nil
}

// Has reports whether name resolves.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names returns canonical tool names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d.Name)
	}
	return out
}

// All returns copies of every descriptor in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d.clone())
	}
	return out
}

// Suggest returns up to three known names close to name, best first.
func (r *Registry) Suggest(name string) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	keys := make([]string, 0, len(r.index))
	for k := range r.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	seen := map[string]bool{}
	var out []string
	for _, m := range fuzzy.Find(name, keys) {
		canonical := r.tools[r.index[m.Str]].Name
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// Without returns a registry lacking the named tools.
func (r *Registry) Without(disabled map[string]bool) *Registry {
	if len(disabled) == 0 {
		return r
	}
	keep := make([]Descriptor, 0, len(r.tools))
	for _, d := range r.tools {
		if !disabled[d.Name] {
			keep = append(keep, d)
		}
	}
	out, err := New(keep...)
	if err != nil {
		// a subset of a valid registry is valid
		return r
	}
	return out
}
