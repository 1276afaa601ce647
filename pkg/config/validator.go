package config

import "fmt"

// Validate checks invariants Defaults()+merge don't already guarantee:
// cross-field constraints the YAML schema can't express.
func Validate(opts Options) error {
	switch opts.Storage {
	case StorageMemory, StorageRedis, "":
	default:
		return NewValidationError("storage", fmt.Errorf("unknown backend %q", opts.Storage))
	}

	if opts.Storage == StorageRedis && opts.RedisAddr == "" {
		return NewValidationError("redis_addr", ErrMissingRedisAddr)
	}

	if opts.CoherenceWindow < 1 {
		return NewValidationError("coherence_window", fmt.Errorf("must be >= 1, got %d", opts.CoherenceWindow))
	}

	if opts.DriftMinCoherence < 0 || opts.DriftMinCoherence > 1 {
		return NewValidationError("drift_min_coherence", fmt.Errorf("must be in [0,1], got %v", opts.DriftMinCoherence))
	}

	if opts.DriftDropThreshold < 0 || opts.DriftDropThreshold > 1 {
		return NewValidationError("drift_drop_threshold", fmt.Errorf("must be in [0,1], got %v", opts.DriftDropThreshold))
	}

	if opts.SessionTTLSeconds < 0 {
		return NewValidationError("session_ttl", fmt.Errorf("must be >= 0, got %d", opts.SessionTTLSeconds))
	}

	return nil
}
