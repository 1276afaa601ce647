package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/lri/pkg/httpx"
)

// errorBody matches spec §6's required shape for every non-2xx response:
// {detail: {error: "<message>"}}.
func errorBody(msg string) map[string]any {
	return map[string]any{"detail": map[string]any{"error": msg}}
}

// storeEnvelopeHandler handles POST /v1/envelopes/:thread_id. The envelope
// itself arrives via the LCE header — httpx.Middleware already extracted
// and validated it before this handler runs.
func (s *Server) storeEnvelopeHandler(c *echo.Context) error {
	result, ok := httpx.FromContext(c)
	if !ok || !result.Present {
		return c.JSON(http.StatusPreconditionRequired, errorBody("LCE header required"))
	}

	threadID := c.Param("thread_id")
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := s.controller.Store(ctx, threadID, *result.Envelope)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, session)
}

// getSessionHandler handles GET /v1/sessions/:thread_id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	threadID := c.Param("thread_id")
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, found, err := s.controller.GetSession(ctx, threadID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	if !found {
		return c.JSON(http.StatusNotFound, errorBody("session not found"))
	}
	return c.JSON(http.StatusOK, session)
}

// getCoherenceHandler handles GET /v1/sessions/:thread_id/coherence.
func (s *Server) getCoherenceHandler(c *echo.Context) error {
	threadID := c.Param("thread_id")
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	metrics, found, err := s.controller.GetMetrics(ctx, threadID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	if !found {
		return c.JSON(http.StatusNotFound, errorBody("session not found"))
	}
	return c.JSON(http.StatusOK, metrics)
}

// statsHandler handles GET /v1/stats.
func (s *Server) statsHandler(c *echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := s.controller.GetStats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, stats)
}

// wsHandler upgrades the request to a WebSocket and delegates the LHS
// handshake and frame loop to wsx.Server, grounded on the teacher's
// pkg/api/handler_ws.go.
func (s *Server) wsHandler(c *echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}
	s.ws.HandleConnection(c.Request().Context(), conn)
	return nil
}
