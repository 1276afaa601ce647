package server

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/lri/pkg/config"
	"github.com/codeready-toolchain/lri/pkg/lss"
	"github.com/codeready-toolchain/lri/pkg/lss/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	controller := lss.NewController(storage.NewMemory(), lss.NewEngine(5, 0.6, 0.15), 0, nil, nil)
	return New(config.Defaults(), controller, nil, nil)
}

// brokenStore fails every Get, used to drive the health endpoint unhealthy.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend unreachable")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (brokenStore) Delete(context.Context, string) (int, error)              { return 0, nil }
func (brokenStore) Scan(context.Context, string) ([]string, error)           { return nil, nil }

func TestHealthEndpointHealthy(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), "uptime_seconds")
}

func TestHealthEndpointReportsUnhealthyStoreBackend(t *testing.T) {
	controller := lss.NewController(brokenStore{}, lss.NewEngine(5, 0.6, 0.15), 0, nil, nil)
	s := New(config.Defaults(), controller, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointRelocatedOffMainRouterWhenConfigured(t *testing.T) {
	cfg := config.Defaults()
	cfg.MetricsAddr = "127.0.0.1:0"
	controller := lss.NewController(storage.NewMemory(), lss.NewEngine(5, 0.6, 0.15), 0, nil, nil)
	s := New(cfg, controller, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics should not be on the main router once MetricsAddr is set")
}

func TestStoreEnvelopeRequiresHeader(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/envelopes/t1", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "LCE header required")
}

func TestStoreEnvelopeHappyPath(t *testing.T) {
	s := newTestServer(t)
	wire := base64.StdEncoding.EncodeToString([]byte(`{"v":1,"intent":{"type":"ask"},"policy":{"consent":"private"}}`))
	req := httptest.NewRequest(http.MethodPost, "/v1/envelopes/t1", nil)
	req.Header.Set("LCE", wire)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"thread_id":"t1"`)
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/nope", nil)
	req.Header.Set("LCE", base64.StdEncoding.EncodeToString([]byte(`{"v":1,"intent":{"type":"ask"},"policy":{"consent":"private"}}`)))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsEmpty(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	req.Header.Set("LCE", base64.StdEncoding.EncodeToString([]byte(`{"v":1,"intent":{"type":"ask"},"policy":{"consent":"private"}}`)))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_count":0`)
}
