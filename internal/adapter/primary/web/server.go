package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamvol/internal/config"
	"streamvol/internal/domain"
	"streamvol/internal/metrics"
	"streamvol/internal/usecase"
)

// Server is a primary adapter that exposes the HTTP API + UI.
// It depends on the use case (primary port).
type Server struct {
	usecase usecase.VolumeUseCase
	metrics *metrics.Metrics
	engine  *gin.Engine
	server  *http.Server
}

// NewServer creates the HTTP server described by cfg. gatherer backs /metrics
// when monitoring is enabled.
func NewServer(uc usecase.VolumeUseCase, cfg *config.Config, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), loggingMiddleware())
	srv := &Server{usecase: uc, metrics: m, engine: engine}
	if m != nil {
		engine.Use(metricsMiddleware(m))
	}

	engine.GET("/", srv.handleRoot)
	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.Monitoring.PrometheusEnabled && gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")
	api.Use(newRateLimitMiddleware(cfg))
	{
		api.GET("/status", srv.handleStatus)
		api.GET("/streams", srv.handleStreams)
		api.GET("/streams/:stream/curves", srv.handleCurves)
		api.GET("/streams/:stream/db", srv.handleDB)
		api.POST("/apply", srv.handleApply)
		api.POST("/reload", srv.handleReload)
	}

	srv.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return srv
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start blocks and serves HTTP traffic.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotToView(s.usecase.Snapshot()))
}

func (s *Server) handleStreams(c *gin.Context) {
	streams := s.usecase.Streams()
	out := make([]streamView, 0, len(streams))
	for _, info := range streams {
		out = append(out, toStreamView(info))
	}
	c.JSON(http.StatusOK, gin.H{"streams": out})
}

func (s *Server) handleCurves(c *gin.Context) {
	info, curves, err := s.usecase.Curves(c.Param("stream"))
	if err != nil {
		respondError(c, err)
		return
	}
	view := make(map[string]domain.CurvePoints, len(curves))
	for cat, points := range curves {
		view[cat.String()] = points
	}
	c.JSON(http.StatusOK, gin.H{"stream": toStreamView(info), "curves": view})
}

func (s *Server) handleDB(c *gin.Context) {
	category, err := s.category(c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	index, err := strconv.Atoi(c.Query("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	res, err := s.usecase.Resolve(c.Param("stream"), category, index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResolutionView(res))
}

// category parses name, or picks the policy's default category when it is empty.
func (s *Server) category(name string) (domain.DeviceCategory, error) {
	if name == "" {
		return s.usecase.DefaultCategory(), nil
	}
	return domain.ParseDeviceCategory(name)
}

type applyPayload struct {
	Stream   string `json:"stream" binding:"required"`
	Category string `json:"category"`
	Index    *int   `json:"index" binding:"required"`
}

func (s *Server) handleApply(c *gin.Context) {
	var req applyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := s.category(req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := s.usecase.Apply(c.Request.Context(), req.Stream, category, *req.Index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResolutionView(res))
}

func (s *Server) handleReload(c *gin.Context) {
	if err := s.usecase.Reload(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotToView(s.usecase.Snapshot()))
}

type streamView struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Strategy   string   `json:"strategy"`
	IndexMin   int      `json:"indexMin"`
	IndexMax   int      `json:"indexMax"`
	Categories []string `json:"categories"`
}

func toStreamView(info domain.StreamInfo) streamView {
	cats := make([]string, 0, len(info.Categories))
	for _, c := range info.Categories {
		cats = append(cats, c.String())
	}
	return streamView{
		Name:       info.Name,
		Type:       info.Type.String(),
		Strategy:   info.Strategy.String(),
		IndexMin:   info.IndexMin,
		IndexMax:   info.IndexMax,
		Categories: cats,
	}
}

type resolutionView struct {
	Stream    string  `json:"stream"`
	Requested string  `json:"requestedCategory"`
	Category  string  `json:"category"`
	Fallback  bool    `json:"fallback"`
	Index     int     `json:"index"`
	Clamped   int     `json:"clampedIndex"`
	DB        float64 `json:"db"`
}

func toResolutionView(res domain.Resolution) resolutionView {
	return resolutionView{
		Stream:    res.Stream,
		Requested: res.Requested.String(),
		Category:  res.Category.String(),
		Fallback:  res.Fallback,
		Index:     res.Index,
		Clamped:   res.Clamped,
		DB:        res.DB,
	}
}

func snapshotToView(snap usecase.Snapshot) map[string]any {
	streams := make([]streamView, 0, len(snap.Streams))
	for _, info := range snap.Streams {
		streams = append(streams, toStreamView(info))
	}
	applied := make(map[string]resolutionView, len(snap.Applied))
	for name, res := range snap.Applied {
		applied[name] = toResolutionView(res)
	}
	return map[string]any{
		"defaultCategory": snap.DefaultCategory.String(),
		"loadedAt":        snap.LoadedAt.Format(time.RFC3339),
		"streams":         streams,
		"applied":         applied,
	}
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnsupportedProperty):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
