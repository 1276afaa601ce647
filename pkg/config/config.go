// Package config loads the LRI runtime's Options (component J of
// SPEC_FULL.md): a YAML file plus environment-variable overrides and a
// .env file, merged over Defaults() and validated, grounded on the
// teacher's pkg/config load→merge→validate pipeline (pkg/config/loader.go).
package config

// Config is the umbrella object Initialize returns: validated Options plus
// the directory they were loaded from, for logging.
type Config struct {
	Options   Options
	configDir string
}

// ConfigDir returns the directory configuration was loaded from.
func (c *Config) ConfigDir() string { return c.configDir }
