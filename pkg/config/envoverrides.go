package config

import (
	"os"
	"strconv"
)

// envPrefix namespaces every override so they cannot collide with an
// unrelated process's environment.
const envPrefix = "LRI_"

// applyEnvOverrides layers LRI_*-prefixed environment variables on top of
// the YAML-loaded opts, one override per Options field. Only variables
// that are actually set are applied, so an absent variable never zeroes
// out a YAML value.
func applyEnvOverrides(opts Options) Options {
	if v, ok := os.LookupEnv(envPrefix + "HEADER_NAME"); ok {
		opts.HeaderName = v
	}
	if v, ok := lookupBool(envPrefix + "VALIDATE"); ok {
		opts.Validate = &v
	}
	if v, ok := lookupInt(envPrefix + "COHERENCE_WINDOW"); ok {
		opts.CoherenceWindow = v
	}
	if v, ok := lookupFloat(envPrefix + "DRIFT_MIN_COHERENCE"); ok {
		opts.DriftMinCoherence = v
	}
	if v, ok := lookupFloat(envPrefix + "DRIFT_DROP_THRESHOLD"); ok {
		opts.DriftDropThreshold = v
	}
	if v, ok := lookupInt(envPrefix + "SESSION_TTL"); ok {
		opts.SessionTTLSeconds = v
	}
	if v, ok := os.LookupEnv(envPrefix + "STORAGE"); ok {
		opts.Storage = StorageKind(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "REDIS_ADDR"); ok {
		opts.RedisAddr = v
	}
	if v, ok := os.LookupEnv(envPrefix + "REDIS_PREFIX"); ok {
		opts.RedisPrefix = v
	}
	if v, ok := os.LookupEnv(envPrefix + "METRICS_ADDR"); ok {
		opts.MetricsAddr = v
	}
	if v, ok := lookupBool(envPrefix + "CBOR_ENABLED"); ok {
		opts.CBOREnabled = &v
	}
	return opts
}

func lookupInt(name string) (int, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupFloat(name string) (float64, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func lookupBool(name string) (bool, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}
