// Package app wires configuration, the tool registry, the runner and the
// dispatcher together for the CLI and the HTTP server.
package app

import (
	"fmt"

	"clirouter/internal/config"
	"clirouter/internal/dispatch"
	"clirouter/internal/registry"
	"clirouter/internal/runner"
	"clirouter/internal/system"
)

// Env is everything a command needs, built once per process.
type Env struct {
	Config     config.Runtime
	Runner     runner.Runner
	Dispatcher *dispatch.Dispatcher
}

// Registry returns the registry currently used by the dispatcher.
func (e *Env) Registry() *registry.Registry { return e.Dispatcher.Registry() }

// LoadRegistry returns the builtin registry with cfg's tool overrides applied
// and its disabled tools removed.
func LoadRegistry(cfg config.Runtime) (*registry.Registry, error) {
	reg := registry.Builtin()
	ov, err := registry.LoadOverrides(cfg.ToolsFile)
	if err != nil {
		return nil, err
	}
	if len(ov) > 0 {
		reg, err = reg.WithOverrides(ov)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.ToolsFile, err)
		}
		system.Logger.Debug("applied tool overrides", "file", cfg.ToolsFile, "count", len(ov))
	}
	return reg.Without(cfg.Disabled), nil
}

// New wires an Env from cfg executing through rn.
func New(cfg config.Runtime, rn runner.Runner, opts ...dispatch.Option) (*Env, error) {
	reg, err := LoadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	d, err := dispatch.New(reg, rn, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Env{Config: cfg, Runner: rn, Dispatcher: d}, nil
}

// Load reads the user configuration and wires the real process runner.
func Load(opts ...dispatch.Option) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.LogLevel != "" {
		system.SetLevel(cfg.LogLevel)
	}
	return New(cfg, runner.New(), opts...)
}
