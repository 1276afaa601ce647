package config

// Defaults returns the Options baseline applied before YAML/env overrides,
// matching the engine/controller defaults in pkg/lss.
func Defaults() Options {
	validate := true
	cborEnabled := true
	return Options{
		HeaderName:         "LCE",
		Validate:           &validate,
		CoherenceWindow:    5,
		DriftMinCoherence:  0.6,
		DriftDropThreshold: 0.15,
		SessionTTLSeconds:  0,
		Storage:            StorageMemory,
		RedisPrefix:        "lss:session:",
		CBOREnabled:        &cborEnabled,
	}
}
