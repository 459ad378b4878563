package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"clirouter/internal/dispatch"
	"clirouter/internal/errs"
	"clirouter/internal/probe"
	"clirouter/internal/registry"
	appver "clirouter/internal/version"
)

// toolView is a descriptor plus its last known probe result.
type toolView struct {
	registry.Descriptor
	Status *probe.Result `json:"status,omitempty"`
}

func (s *Server) mountAPI(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": appver.AppVersion})
	})

	api.GET("/tools", s.toolsHandler)
	api.GET("/tools/:name", s.toolHandler)
	api.POST("/tools/:name/probe", s.probeHandler)
	api.POST("/dispatch", s.dispatchHandler)

	api.GET("/history", s.historyHandler)
	api.GET("/stats", s.statsHandler)
}

func (s *Server) toolsHandler(c *gin.Context) {
	status, _ := probe.LastStatus(s.Env.Config)
	all := s.Env.Registry().All()
	out := make([]toolView, 0, len(all))
	for _, d := range all {
		v := toolView{Descriptor: d}
		if st, ok := status[d.Name]; ok {
			v.Status = &st
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) describe(c *gin.Context) (registry.Descriptor, bool) {
	reg := s.Env.Registry()
	d, err := reg.Describe(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":       err.Error(),
			"error_kind":  errs.KindOf(err),
			"suggestions": reg.Suggest(c.Param("name")),
		})
		return d, false
	}
	return d, true
}

func (s *Server) toolHandler(c *gin.Context) {
	d, ok := s.describe(c)
	if !ok {
		return
	}
	v := toolView{Descriptor: d}
	status, _ := probe.LastStatus(s.Env.Config)
	if st, ok := status[d.Name]; ok {
		v.Status = &st
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) probeHandler(c *gin.Context) {
	d, ok := s.describe(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Env.Dispatcher.Prober().Probe(c.Request.Context(), d))
}

func (s *Server) dispatchHandler(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		c.JSON(http.StatusBadRequest, errJSON(err))
		return
	}
	if strings.TrimSpace(req.Target) == "" {
		c.JSON(http.StatusBadRequest, errJSON(errors.New("target is required")))
		return
	}
	res, err := s.Env.Dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		code := http.StatusInternalServerError
		if errs.IsKind(err, errs.KindUnknownTool) {
			code = http.StatusNotFound
		}
		c.JSON(code, gin.H{"error": err.Error(), "error_kind": errs.KindOf(err)})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) historyHandler(c *gin.Context) {
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errJSON(errors.New("limit must be a non-negative integer")))
			return
		}
		limit = n
	}
	recs, err := s.Env.Dispatcher.History().Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) statsHandler(c *gin.Context) {
	f, err := s.Env.Dispatcher.History().Read()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": f.Patterns, "order": f.PatternKeys(), "records": len(f.Records)})
}

func errJSON(err error) gin.H { return gin.H{"error": err.Error()} }
