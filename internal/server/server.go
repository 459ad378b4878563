// Package server exposes probing and dispatching over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clirouter/internal/app"
	"clirouter/internal/system"
)

type Server struct {
	Addr string
	Env  *app.Env
	// Refresh is a cron spec for re-probing every tool; empty disables it.
	Refresh string
	// Watch reloads tool overrides when tools.yaml / tools.toml change.
	Watch bool
}

// Handler returns the gin engine serving /api.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	s.mountAPI(r)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.Watch {
		if err := s.watchTools(ctx); err != nil {
			system.Logger.Warn("tool overrides watcher disabled", "err", err)
		}
	}
	if s.Refresh != "" {
		stop, err := s.startRefresher(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	srv := &http.Server{Addr: s.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	system.Logger.Info("api server listening", "addr", s.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
