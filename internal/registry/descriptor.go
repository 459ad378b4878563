package registry

import (
	"fmt"
	"strings"
	"time"
)

// Ecosystem names a package manager used for authoritative install detection.
type Ecosystem string

const (
	EcosystemNPM Ecosystem = "npm"
	EcosystemPip Ecosystem = "pip"
)

// Package identifies a tool inside its package manager.
type Package struct {
	Ecosystem Ecosystem `json:"ecosystem" yaml:"ecosystem" toml:"ecosystem"`
	Name      string    `json:"name" yaml:"name" toml:"name"`
}

// InstallCommand returns the global install command line for the package.
func (p Package) InstallCommand() string {
	switch p.Ecosystem {
	case EcosystemNPM:
		return "npm install -g " + p.Name
	case EcosystemPip:
		return "pip install " + p.Name
	}
	return ""
}

// ArgStyle is how a tool expects the request text.
type ArgStyle string

const (
	// ArgPositional puts the request right after the invocation.
	ArgPositional ArgStyle = "positional"
	// ArgFlag puts PromptFlag then the request right after the invocation.
	ArgFlag ArgStyle = "flag"
	// ArgTrailing puts file/workdir flags first and the request last.
	ArgTrailing ArgStyle = "trailing"
)

// Class is a coarse request classification.
type Class string

const (
	ClassGeneration    Class = "generation"
	ClassAnalysis      Class = "analysis"
	ClassDebugging     Class = "debugging"
	ClassTesting       Class = "testing"
	ClassDocumentation Class = "documentation"
	ClassOptimization  Class = "optimization"
	ClassGeneral       Class = "general"
)

// Classes lists every Class in classification priority order.
var Classes = []Class{
	ClassGeneration, ClassAnalysis, ClassDebugging, ClassTesting,
	ClassDocumentation, ClassOptimization, ClassGeneral,
}

// Descriptor describes one supported external CLI.
type Descriptor struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Aliases     []string `json:"aliases,omitempty"`
	// Candidates are invocation templates in preference order; never empty.
	Candidates    []string      `json:"candidates"`
	Package       *Package      `json:"package,omitempty"`
	CredentialEnv string        `json:"credential_env,omitempty"`
	Timeout       time.Duration `json:"timeout"`
	ArgStyle      ArgStyle      `json:"arg_style"`
	// PromptFlag is the token placed before the request for ArgFlag/ArgTrailing.
	PromptFlag  string     `json:"prompt_flag,omitempty"`
	FileFlag    string     `json:"file_flag"`
	WorkdirFlag string     `json:"workdir_flag,omitempty"`
	VersionArgs [][]string `json:"version_args"`
	Strengths   []Class    `json:"strengths,omitempty"`
	Install     string     `json:"install,omitempty"`
}

// InstallCommand returns the declared install command or one derived from Package.
func (d Descriptor) InstallCommand() string {
	if strings.TrimSpace(d.Install) != "" {
		return d.Install
	}
	if d.Package != nil {
		return d.Package.InstallCommand()
	}
	return ""
}

// HasStrength reports whether d declares c (or general, which matches anything).
func (d Descriptor) HasStrength(c Class) bool {
	for _, s := range d.Strengths {
		if s == c || s == ClassGeneral {
			return true
		}
	}
	return false
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("descriptor without name")
	}
	if len(d.Candidates) == 0 {
		return fmt.Errorf("%s: no invocation candidates", d.Name)
	}
	for _, c := range d.Candidates {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%s: empty invocation candidate", d.Name)
		}
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("%s: timeout must be positive", d.Name)
	}
	switch d.ArgStyle {
	case ArgPositional, ArgTrailing:
	case ArgFlag:
		if strings.TrimSpace(d.PromptFlag) == "" {
			return fmt.Errorf("%s: flag style requires prompt_flag", d.Name)
		}
	default:
		return fmt.Errorf("%s: unknown arg style %q", d.Name, d.ArgStyle)
	}
	if d.Package != nil {
		switch d.Package.Ecosystem {
		case EcosystemNPM, EcosystemPip:
		default:
			return fmt.Errorf("%s: unknown package ecosystem %q", d.Name, d.Package.Ecosystem)
		}
		if strings.TrimSpace(d.Package.Name) == "" {
			return fmt.Errorf("%s: package without name", d.Name)
		}
	}
	return nil
}

// clone returns a deep copy so callers cannot mutate registry state.
func (d Descriptor) clone() Descriptor {
	out := d
	out.Aliases = append([]string(nil), d.Aliases...)
	out.Candidates = append([]string(nil), d.Candidates...)
	out.Strengths = append([]Class(nil), d.Strengths...)
	if d.Package != nil {
		p := *d.Package
		out.Package = &p
	}
	out.VersionArgs = make([][]string, 0, len(d.VersionArgs))
	for _, a := range d.VersionArgs {
		out.VersionArgs = append(out.VersionArgs, append([]string(nil), a...))
	}
	return out
}

// withDefaults fills the optional fields every descriptor needs at run time.
func (d Descriptor) withDefaults() Descriptor {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	if d.DisplayName == "" {
		d.DisplayName = d.Name
	}
	if d.ArgStyle == "" {
		d.ArgStyle = ArgPositional
	}
	if d.FileFlag == "" {
		d.FileFlag = "--file"
	}
	if len(d.VersionArgs) == 0 {
		d.VersionArgs = [][]string{{"--version"}}
	}
	if len(d.Strengths) == 0 {
		d.Strengths = []Class{ClassGeneral}
	}
	return d
}
