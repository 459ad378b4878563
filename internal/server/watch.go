package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"clirouter/internal/app"
	"clirouter/internal/config"
	"clirouter/internal/system"
)

const reloadDebounce = 150 * time.Millisecond

// watchTools reloads the registry whenever the tools override file in the
// config directory is written, created or removed. A broken file keeps the
// previous registry.
func (s *Server) watchTools(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := s.Env.Config.Dir
	if s.Env.Config.ToolsFile != "" {
		dir = filepath.Dir(s.Env.Config.ToolsFile)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer w.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !s.isToolsFile(ev.Name) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				system.Logger.Warn("watcher error", "err", err)
			case <-fire:
				fire = nil
				s.reloadTools()
			}
		}
	}()
	return nil
}

func (s *Server) isToolsFile(name string) bool {
	if s.Env.Config.ToolsFile != "" {
		return filepath.Clean(name) == filepath.Clean(s.Env.Config.ToolsFile)
	}
	base := filepath.Base(name)
	return base == config.ToolsFileYAML || base == config.ToolsFileTOML
}

func (s *Server) reloadTools() {
	cfg := s.Env.Config
	if cfg.ToolsFile == "" {
		cfg.ToolsFile = config.DetectToolsFile(cfg.Dir)
	}
	reg, err := app.LoadRegistry(cfg)
	if err != nil {
		system.Logger.Warn("keeping previous tool registry", "err", err)
		return
	}
	s.Env.Dispatcher.SetRegistry(reg)
	system.Logger.Info("tool registry reloaded", "tools", len(reg.Names()))
}
