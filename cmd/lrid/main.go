// lrid is the LRI runtime server: HTTP envelope ingestion, LSS coherence
// tracking, and the LHS WebSocket endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeready-toolchain/lri/pkg/config"
	"github.com/codeready-toolchain/lri/pkg/lce"
	"github.com/codeready-toolchain/lri/pkg/lhs"
	"github.com/codeready-toolchain/lri/pkg/lss"
	"github.com/codeready-toolchain/lri/pkg/lss/storage"
	"github.com/codeready-toolchain/lri/pkg/masking"
	"github.com/codeready-toolchain/lri/pkg/metrics"
	"github.com/codeready-toolchain/lri/pkg/server"
	"github.com/codeready-toolchain/lri/pkg/wsx"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}
	opts := cfg.Options

	store, err := buildStore(opts)
	if err != nil {
		log.Fatalf("failed to build session store: %v", err)
	}

	masker := masking.NewService()
	engine := lss.NewEngine(opts.CoherenceWindow, opts.DriftMinCoherence, opts.DriftDropThreshold)
	controller := lss.NewController(store, engine, opts.SessionTTL(), slog.Default(), masker).WithKeyPrefix(opts.RedisPrefix)

	registry := prometheus.NewRegistry()
	m, err := metrics.New("lri", registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	controller.On("drift", m.ObserveDrift)

	supported := []lhs.Encoding{lhs.EncodingJSON}
	if opts.AllowCBOR() {
		supported = []lhs.Encoding{lhs.EncodingJSON, lhs.EncodingCBOR}
	}
	ws := wsx.NewServer(supported, 5*time.Second, slog.Default())
	ws.OnMessage(func(env *lce.Envelope, sessionID, threadID string) {
		if _, err := controller.Store(context.Background(), threadID, *env); err != nil {
			slog.Error("failed to store envelope from websocket",
				append(masker.LogAttrs(env), "session_id", sessionID, "thread_id", threadID, "error", err)...)
		}
	})

	httpSrv := server.New(opts, controller, ws, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("lrid listening", "addr", getEnv("HTTP_ADDR", ":8080"))
		if err := httpSrv.Start(getEnv("HTTP_ADDR", ":8080")); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if opts.MetricsAddr != "" {
		go func() {
			slog.Info("lrid metrics listening", "addr", opts.MetricsAddr)
			if err := httpSrv.StartMetrics(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func buildStore(opts config.Options) (lss.Store, error) {
	switch opts.Storage {
	case config.StorageRedis:
		return storage.NewRedis(opts.RedisAddr, 0), nil
	default:
		return storage.NewMemory(), nil
	}
}
