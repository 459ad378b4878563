package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"clirouter/internal/system"
)

// startRefresher re-probes every tool on the cron schedule spec so the
// status snapshot stays current. The returned func stops the scheduler.
func (s *Server) startRefresher(ctx context.Context) (func(), error) {
	spec := strings.TrimSpace(s.Refresh)
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.refreshStatus(ctx) }); err != nil {
		return nil, err
	}
	c.Start()
	system.Logger.Info("status refresh scheduled", "spec", spec)
	return func() { <-c.Stop().Done() }, nil
}

func (s *Server) refreshStatus(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res := s.Env.Dispatcher.Prober().ProbeAll(ctx, s.Env.Registry().All())
	installed := 0
	for _, r := range res {
		if r.Exists {
			installed++
		}
	}
	system.Logger.Debug("status refreshed", "tools", len(res), "installed", installed)
}
