// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package config loads drspec's process-wide tuning knobs. The on-disk
// seed is a YAML file (`_drspec/config.yaml`); values are reconciled into
// the config key-value table at startup and can be overridden
// per-process via DRSPEC_* environment variables.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultConfidenceThreshold is the default status-transition
// threshold, on the [0,100] display scale.
const DefaultConfidenceThreshold = 70

// DefaultMaxAttempts mirrors domain.DefaultMaxAttempts; duplicated here
// (rather than imported) so config stays dependency-free and loadable
// before the rest of the core initializes.
const DefaultMaxAttempts = 3

// DefaultVerificationTimeoutSeconds bounds a verification subprocess's
// wall time unless overridden.
const DefaultVerificationTimeoutSeconds = 1

// Config holds the tunables a fresh project starts with. Fields map
// 1:1 onto rows of the Config key-value table; AsKeyValues() keys match
// the table's key column exactly.
type Config struct {
	ConfidenceThreshold        int `yaml:"confidence_threshold"`
	MaxAttempts                int `yaml:"max_attempts"`
	VerificationTimeoutSeconds int `yaml:"verification_timeout_seconds"`
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		ConfidenceThreshold:        DefaultConfidenceThreshold,
		MaxAttempts:                DefaultMaxAttempts,
		VerificationTimeoutSeconds: DefaultVerificationTimeoutSeconds,
	}
}

// Load reads a YAML config file at path, falling back to Default() for
// any field the file omits or if the file does not exist. Environment
// variables DRSPEC_CONFIDENCE_THRESHOLD, DRSPEC_MAX_ATTEMPTS, and
// DRSPEC_VERIFICATION_TIMEOUT_SECONDS override whatever was loaded.
func Load(path string) (Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	if v := envInt("DRSPEC_CONFIDENCE_THRESHOLD"); v != nil {
		cfg.ConfidenceThreshold = *v
	}
	if v := envInt("DRSPEC_MAX_ATTEMPTS"); v != nil {
		cfg.MaxAttempts = *v
	}
	if v := envInt("DRSPEC_VERIFICATION_TIMEOUT_SECONDS"); v != nil {
		cfg.VerificationTimeoutSeconds = *v
	}

	return cfg, nil
}

// Save writes cfg back to path as YAML, creating the file if needed.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func envInt(name string) *int {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// AsKeyValues flattens cfg into the string->string rows the config
// table stores.
func (c Config) AsKeyValues() map[string]string {
	return map[string]string{
		"confidence_threshold":         strconv.Itoa(c.ConfidenceThreshold),
		"max_attempts":                 strconv.Itoa(c.MaxAttempts),
		"verification_timeout_seconds": strconv.Itoa(c.VerificationTimeoutSeconds),
	}
}
