// Package metrics exposes Prometheus instrumentation for the LRI runtime
// (component M of SPEC_FULL.md), grounded on the pack's
// luxfi-consensus/api/metrics style of a small constructor building a
// namespaced set of collectors over an injected prometheus.Registerer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codeready-toolchain/lri/pkg/lss"
)

// Metrics holds every collector the LRI runtime reports.
type Metrics struct {
	DriftEvents      *prometheus.CounterVec
	SessionsActive   prometheus.Gauge
	WSConnections    prometheus.Gauge
	EnvelopesStored  prometheus.Counter
	HandshakeFailure prometheus.Counter
}

// New registers and returns a Metrics set under namespace, using registerer
// (typically prometheus.NewRegistry() or prometheus.DefaultRegisterer).
func New(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		DriftEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drift_events_total",
			Help:      "Drift events emitted by the coherence engine, by type.",
		}, []string{"type", "severity"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Current number of LSS sessions with stored history.",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Current number of live LHS-negotiated WebSocket connections.",
		}),
		EnvelopesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelopes_stored_total",
			Help:      "Total LCE envelopes appended to session history.",
		}),
		HandshakeFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "Total LHS handshakes that ended in a protocol error.",
		}),
	}

	collectors := []prometheus.Collector{
		m.DriftEvents, m.SessionsActive, m.WSConnections, m.EnvelopesStored, m.HandshakeFailure,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveDrift records a drift event by type and severity.
func (m *Metrics) ObserveDrift(ev lss.DriftEvent) {
	m.DriftEvents.WithLabelValues(string(ev.Type), string(ev.Severity)).Inc()
}
