package config

import "time"

// StorageKind names a pluggable lss.Store backend.
type StorageKind string

const (
	StorageMemory StorageKind = "memory"
	StorageRedis  StorageKind = "redis"
)

// Options is the runtime configuration surface, spec §6's Configuration
// Surface table extended with the Redis/metrics/CBOR additions SPEC_FULL.md
// adds. YAML is the on-disk form; every field also has an env var override
// applied after YAML load (see loader.go).
type Options struct {
	// HeaderName is the HTTP header LCE envelopes travel in.
	HeaderName string `yaml:"header_name,omitempty"`

	// Validate is passed to httpx.Options.Validate; the extractor does not
	// consult it, so it does not change which envelopes are accepted.
	Validate *bool `yaml:"validate,omitempty"`

	// CoherenceWindow is W in the sliding-window coherence computation.
	CoherenceWindow int `yaml:"coherence_window,omitempty" validate:"omitempty,min=1"`

	// DriftMinCoherence is the overall-coherence threshold below which a
	// coherence_drop may fire.
	DriftMinCoherence float64 `yaml:"drift_min_coherence,omitempty"`

	// DriftDropThreshold is the minimum Δ between consecutive overall
	// coherence scores required to emit coherence_drop.
	DriftDropThreshold float64 `yaml:"drift_drop_threshold,omitempty"`

	// SessionTTL is seconds; 0 disables expiry.
	SessionTTLSeconds int `yaml:"session_ttl,omitempty" validate:"omitempty,min=0"`

	// Storage selects the lss.Store backend.
	Storage StorageKind `yaml:"storage,omitempty"`

	// RedisAddr is the go-redis connection address, required when
	// Storage == StorageRedis.
	RedisAddr string `yaml:"redis_addr,omitempty"`

	// RedisPrefix overrides the default "lss:session:" key prefix.
	RedisPrefix string `yaml:"redis_prefix,omitempty"`

	// MetricsAddr, if set, moves the Prometheus /metrics endpoint off the
	// main HTTP listener onto its own server bound to this address. Empty
	// leaves /metrics on the main listener alongside the LCE/LHS routes.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	// CBOREnabled controls whether the LHS Mirror step may select cbor as
	// the negotiated encoding, independent of what a client offers.
	CBOREnabled *bool `yaml:"cbor_enabled,omitempty"`
}

// SessionTTL returns SessionTTLSeconds as a time.Duration.
func (o Options) SessionTTL() time.Duration {
	return time.Duration(o.SessionTTLSeconds) * time.Second
}

// ValidateHeader reports whether soft validation runs at the HTTP boundary,
// defaulting to true when unset.
func (o Options) ValidateHeader() bool {
	if o.Validate == nil {
		return true
	}
	return *o.Validate
}

// AllowCBOR reports whether cbor may be negotiated, defaulting to true.
func (o Options) AllowCBOR() bool {
	if o.CBOREnabled == nil {
		return true
	}
	return *o.CBOREnabled
}
