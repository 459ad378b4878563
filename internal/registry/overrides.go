package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// OverrideFile is the shape of tools.yaml / tools.toml.
type OverrideFile struct {
	Tools []Override `json:"tools" yaml:"tools" toml:"tools"`
}

// Override adds a tool or replaces the non-empty fields of a builtin one.
type Override struct {
	Name          string     `json:"name" yaml:"name" toml:"name" jsonschema:"required"`
	DisplayName   string     `json:"display_name,omitempty" yaml:"display_name,omitempty" toml:"display_name,omitempty"`
	Aliases       []string   `json:"aliases,omitempty" yaml:"aliases,omitempty" toml:"aliases,omitempty"`
	Candidates    []string   `json:"candidates,omitempty" yaml:"candidates,omitempty" toml:"candidates,omitempty"`
	Package       *Package   `json:"package,omitempty" yaml:"package,omitempty" toml:"package,omitempty"`
	CredentialEnv string     `json:"credential_env,omitempty" yaml:"credential_env,omitempty" toml:"credential_env,omitempty"`
	Timeout       string     `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty" jsonschema:"example=90s"`
	ArgStyle      ArgStyle   `json:"arg_style,omitempty" yaml:"arg_style,omitempty" toml:"arg_style,omitempty" jsonschema:"enum=positional,enum=flag,enum=trailing"`
	PromptFlag    string     `json:"prompt_flag,omitempty" yaml:"prompt_flag,omitempty" toml:"prompt_flag,omitempty"`
	FileFlag      string     `json:"file_flag,omitempty" yaml:"file_flag,omitempty" toml:"file_flag,omitempty"`
	WorkdirFlag   string     `json:"workdir_flag,omitempty" yaml:"workdir_flag,omitempty" toml:"workdir_flag,omitempty"`
	VersionArgs   [][]string `json:"version_args,omitempty" yaml:"version_args,omitempty" toml:"version_args,omitempty"`
	Strengths     []Class    `json:"strengths,omitempty" yaml:"strengths,omitempty" toml:"strengths,omitempty"`
	Install       string     `json:"install,omitempty" yaml:"install,omitempty" toml:"install,omitempty"`
}

// LoadOverrides reads tools.yaml or tools.toml (by extension). Missing file yields nil.
func LoadOverrides(path string) ([]Override, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var f OverrideFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(b), &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return f.Tools, nil
}

// WithOverrides returns a new registry with ov applied on top of r.
func (r *Registry) WithOverrides(ov []Override) (*Registry, error) {
	if len(ov) == 0 {
		return r, nil
	}
	ds := r.All()
	pos := map[string]int{}
	for i, d := range ds {
		pos[d.Name] = i
	}
	for _, o := range ov {
		name := strings.ToLower(strings.TrimSpace(o.Name))
		if name == "" {
			return nil, fmt.Errorf("override without name")
		}
		if i, ok := r.index[name]; ok {
			name = r.tools[i].Name
		}
		var base Descriptor
		i, exists := pos[name]
		if exists {
			base = ds[i]
		} else {
			base = Descriptor{Name: name, Timeout: defaultTimeout}
		}
		d, err := o.apply(base)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", name, err)
		}
		if exists {
			ds[i] = d
		} else {
			pos[name] = len(ds)
			ds = append(ds, d)
		}
	}
	return New(ds...)
}

func (o Override) apply(d Descriptor) (Descriptor, error) {
	if o.DisplayName != "" {
		d.DisplayName = o.DisplayName
	}
	if len(o.Aliases) > 0 {
		d.Aliases = o.Aliases
	}
	if len(o.Candidates) > 0 {
		d.Candidates = o.Candidates
	}
	if o.Package != nil {
		p := *o.Package
		d.Package = &p
	}
	if o.CredentialEnv != "" {
		d.CredentialEnv = o.CredentialEnv
	}
	if o.Timeout != "" {
		t, err := time.ParseDuration(o.Timeout)
		if err != nil {
			return d, fmt.Errorf("invalid timeout %q: %w", o.Timeout, err)
		}
		d.Timeout = t
	}
	if o.ArgStyle != "" {
		d.ArgStyle = o.ArgStyle
	}
	if o.PromptFlag != "" {
		d.PromptFlag = o.PromptFlag
	}
	if o.FileFlag != "" {
		d.FileFlag = o.FileFlag
	}
	if o.WorkdirFlag != "" {
		d.WorkdirFlag = o.WorkdirFlag
	}
	if len(o.VersionArgs) > 0 {
		d.VersionArgs = o.VersionArgs
	}
	if len(o.Strengths) > 0 {
		d.Strengths = o.Strengths
	}
	if o.Install != "" {
		d.Install = o.Install
	}
	return d, nil
}
