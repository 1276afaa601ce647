// Package server wires the HTTP surface (component C: HTTP envelope
// ingestion, plus health/metrics/WS upgrade) of the LRI runtime, grounded
// on the teacher's echo v5 Server (pkg/api/server.go): a thin Echo
// wrapper with an explicit setupRoutes and Start/Shutdown pair for
// graceful shutdown from cmd/lrid.
package server

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeready-toolchain/lri/pkg/config"
	"github.com/codeready-toolchain/lri/pkg/httpx"
	"github.com/codeready-toolchain/lri/pkg/lss"
	"github.com/codeready-toolchain/lri/pkg/version"
	"github.com/codeready-toolchain/lri/pkg/wsx"
)

// Server is the LRI HTTP API: health, metrics, LCE-over-HTTP ingestion, and
// the WebSocket upgrade endpoint that hands connections to a wsx.Server.
type Server struct {
	echo          *echo.Echo
	httpServer    *http.Server
	metricsServer *http.Server

	cfg            config.Options
	controller     *lss.Controller
	ws             *wsx.Server
	metricsHandler http.Handler
	startedAt      time.Time
}

// New builds a Server. metricsHandler may be nil, in which case /metrics
// serves the default Prometheus registry.
func New(cfg config.Options, controller *lss.Controller, ws *wsx.Server, metricsHandler http.Handler) *Server {
	s := &Server{
		echo:           echo.New(),
		cfg:            cfg,
		controller:     controller,
		ws:             ws,
		metricsHandler: metricsHandler,
		startedAt:      time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))

	s.echo.GET("/health", s.healthHandler)

	// MetricsAddr relocates /metrics onto its own listener (see
	// StartMetrics); the main router only serves it when unset, per
	// SPEC_FULL.md §6's metrics-listen-address framing.
	if s.cfg.MetricsAddr == "" {
		s.echo.GET("/metrics", echo.WrapHandler(s.resolvedMetricsHandler()))
	}

	extractor := httpx.New(httpx.Options{HeaderName: s.cfg.HeaderName, Validate: s.cfg.ValidateHeader(), Required: true})
	v1 := s.echo.Group("/v1", httpx.Middleware(extractor))
	v1.POST("/envelopes/:thread_id", s.storeEnvelopeHandler)
	v1.GET("/sessions/:thread_id", s.getSessionHandler)
	v1.GET("/sessions/:thread_id/coherence", s.getCoherenceHandler)
	v1.GET("/stats", s.statsHandler)

	if s.ws != nil {
		s.echo.GET("/ws", s.wsHandler)
	}
}

func (s *Server) resolvedMetricsHandler() http.Handler {
	if s.metricsHandler != nil {
		return s.metricsHandler
	}
	return promhttp.Handler()
}

// healthHandler reports storage backend reachability and process uptime
// (spec §6), grounded on the teacher's pkg/api/handler_health.go, which
// pings its database and worker pool rather than returning a fixed payload.
func (s *Server) healthHandler(c *echo.Context) error {
	body := map[string]any{
		"version":        version.Full(),
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
	}

	if err := s.controller.Ping(c.Request().Context()); err != nil {
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		return c.JSON(http.StatusServiceUnavailable, body)
	}

	body["status"] = "healthy"
	return c.JSON(http.StatusOK, body)
}

// Start starts the HTTP server on addr. Blocks until Shutdown is called or
// the listener fails.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartMetrics starts a standalone HTTP server exposing only /metrics, bound
// to cfg.MetricsAddr. Returns immediately with nil if MetricsAddr is unset —
// callers only need to invoke this in a goroutine when it is. Blocks until
// Shutdown is called or the listener fails.
func (s *Server) StartMetrics() error {
	if s.cfg.MetricsAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.resolvedMetricsHandler())
	s.metricsServer = &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux}
	return s.metricsServer.ListenAndServe()
}

// Shutdown gracefully shuts the HTTP server(s) down.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	if s.metricsServer != nil {
		return s.metricsServer.Shutdown(ctx)
	}
	return nil
}
