package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when config.yaml leaves a field empty.
const (
	DefaultProbeTimeout = 10 * time.Second
	DefaultHistoryLimit = 1000
	DefaultServerAddr   = "127.0.0.1:8788"
	DefaultRefresh      = "@every 10m"
)

// File is the on-disk shape of config.yaml.
type File struct {
	ProbeTimeout  Duration `yaml:"probe_timeout,omitempty" json:"probe_timeout,omitempty"`
	ExecTimeout   Duration `yaml:"exec_timeout,omitempty" json:"exec_timeout,omitempty"`
	HistoryLimit  int      `yaml:"history_limit,omitempty" json:"history_limit,omitempty"`
	DisabledTools []string `yaml:"disabled_tools,omitempty" json:"disabled_tools,omitempty"`
	LogLevel      string   `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	ToolsFile     string   `yaml:"tools_file,omitempty" json:"tools_file,omitempty"`
	Server        Server   `yaml:"server,omitempty" json:"server,omitempty"`
}

// Server configures `clirouter serve`.
type Server struct {
	Addr    string `yaml:"addr,omitempty" json:"addr,omitempty"`
	Refresh string `yaml:"refresh,omitempty" json:"refresh,omitempty"`
}

// Duration is a time.Duration that reads "90s"/"2m" strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	if d == 0 {
		return "", nil
	}
	return time.Duration(d).String(), nil
}

// Runtime is the explicit configuration handed to the prober and dispatcher.
// Nothing below the CLI reads the environment directly; credential presence
// is resolved once here.
type Runtime struct {
	Dir          string
	ProbeTimeout time.Duration
	// ExecTimeout overrides every descriptor timeout when non-zero.
	ExecTimeout  time.Duration
	HistoryLimit int
	Disabled     map[string]bool
	ToolsFile    string
	LogLevel     string
	Server       Server
	Now          func() time.Time
	Getenv       func(string) string
}

// HasCredential reports whether the named environment variable is set.
func (r Runtime) HasCredential(env string) bool {
	if env == "" || r.Getenv == nil {
		return false
	}
	return strings.TrimSpace(r.Getenv(env)) != ""
}

// Path joins name onto the runtime directory.
func (r Runtime) Path(name string) string { return filepath.Join(r.Dir, name) }

// Clock returns r.Now or time.Now.
func (r Runtime) Clock() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// LoadFile reads config.yaml from path. A missing file yields an empty File.
func LoadFile(path string) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, err
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// SaveFile writes config.yaml, creating the parent directory.
func SaveFile(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Load resolves Dir(), reads config.yaml and applies defaults.
func Load() (Runtime, error) {
	dir, err := Dir()
	if err != nil {
		return Runtime{}, err
	}
	f, err := LoadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		return Runtime{}, err
	}
	return FromFile(dir, f), nil
}

// FromFile builds a Runtime from a parsed File rooted at dir.
func FromFile(dir string, f File) Runtime {
	rt := Runtime{
		Dir:          dir,
		ProbeTimeout: time.Duration(f.ProbeTimeout),
		ExecTimeout:  time.Duration(f.ExecTimeout),
		HistoryLimit: f.HistoryLimit,
		Disabled:     map[string]bool{},
		ToolsFile:    strings.TrimSpace(f.ToolsFile),
		LogLevel:     f.LogLevel,
		Server:       f.Server,
		Now:          time.Now,
		Getenv:       os.Getenv,
	}
	if rt.ProbeTimeout <= 0 || rt.ProbeTimeout > DefaultProbeTimeout {
		rt.ProbeTimeout = DefaultProbeTimeout
	}
	if rt.HistoryLimit <= 0 {
		rt.HistoryLimit = DefaultHistoryLimit
	}
	for _, name := range f.DisabledTools {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			rt.Disabled[name] = true
		}
	}
	if rt.Server.Addr == "" {
		rt.Server.Addr = DefaultServerAddr
	}
	if rt.Server.Refresh == "" {
		rt.Server.Refresh = DefaultRefresh
	}
	if rt.ToolsFile == "" {
		rt.ToolsFile = DetectToolsFile(dir)
	} else if !filepath.IsAbs(rt.ToolsFile) {
		rt.ToolsFile = filepath.Join(dir, rt.ToolsFile)
	}
	return rt
}

// DetectToolsFile returns tools.yaml or tools.toml inside dir, whichever
// exists first, or "".
func DetectToolsFile(dir string) string {
	for _, name := range []string{ToolsFileYAML, ToolsFileTOML} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
