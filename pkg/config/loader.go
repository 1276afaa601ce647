package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// yamlFile is the config file name loadYAML looks for under configDir.
const yamlFile = "lri.yaml"

// Initialize loads, merges, validates, and returns ready-to-use
// configuration. Primary entry point for cmd/lrid.
//
// Steps:
//  1. Load .env (if present) into the process environment
//  2. Read lri.yaml from configDir, if present
//  3. Expand ${VAR}/$VAR references against the environment
//  4. Parse into Options
//  5. Apply environment-variable overrides
//  6. Merge over Defaults()
//  7. Validate
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env", "error", err)
	}

	yamlOpts, err := loadYAML(configDir)
	if err != nil {
		return nil, err
	}

	withEnv := applyEnvOverrides(yamlOpts)

	merged, err := mergeOptions(Defaults(), withEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}

	if err := Validate(merged); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized",
		"storage", merged.Storage,
		"coherence_window", merged.CoherenceWindow,
		"session_ttl", merged.SessionTTL())

	return &Config{Options: merged, configDir: configDir}, nil
}

func loadYAML(configDir string) (Options, error) {
	path := filepath.Join(configDir, yamlFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Options{}, nil
		}
		return Options{}, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}
	return opts, nil
}
