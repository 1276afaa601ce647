package lss

import "time"

// Options is the constructor-time configuration surface named in spec §6,
// narrowed to the fields the coherence engine and controller consume
// directly (HTTP-facing options live in pkg/httpx.Options).
type Options struct {
	// CoherenceWindow is W in spec §4.F. Zero uses DefaultCoherenceWindow.
	CoherenceWindow int

	// DriftMinCoherence is the threshold below which a coherence_drop may
	// fire. Zero uses DefaultDriftMinCoherence.
	DriftMinCoherence float64

	// DriftDropThreshold is the minimum Δ for a coherence_drop. Zero uses
	// DefaultDriftDropThreshold.
	DriftDropThreshold float64

	// SessionTTL is the duration after which an idle session expires. Zero
	// disables expiry.
	SessionTTL time.Duration

	// Storage is the session backend. A nil Storage must be filled in by
	// the caller (e.g. storage.NewMemory()) before constructing a
	// Controller; lss itself does not default it, to keep the storage
	// choice explicit at the wiring site.
	Storage Store
}

// NewControllerFromOptions is a convenience constructor matching the
// config-surface table in spec §6.
func NewControllerFromOptions(opts Options) *Controller {
	engine := NewEngine(opts.CoherenceWindow, opts.DriftMinCoherence, opts.DriftDropThreshold)
	return NewController(opts.Storage, engine, opts.SessionTTL, nil, nil)
}
