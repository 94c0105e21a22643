// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultConfidenceThreshold, cfg.ConfidenceThreshold)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultVerificationTimeoutSeconds, cfg.VerificationTimeoutSeconds)
}

func TestLoad_MissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, Config{
		ConfidenceThreshold:        85,
		MaxAttempts:                5,
		VerificationTimeoutSeconds: 10,
	}))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 85, cfg.ConfidenceThreshold)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 10, cfg.VerificationTimeoutSeconds)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, Config{ConfidenceThreshold: 85, MaxAttempts: 5, VerificationTimeoutSeconds: 10}))

	t.Setenv("DRSPEC_CONFIDENCE_THRESHOLD", "60")
	t.Setenv("DRSPEC_MAX_ATTEMPTS", "1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.ConfidenceThreshold)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 10, cfg.VerificationTimeoutSeconds)
}

func TestLoad_IgnoresMalformedEnv(t *testing.T) {
	t.Setenv("DRSPEC_CONFIDENCE_THRESHOLD", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfidenceThreshold, cfg.ConfidenceThreshold)
}

func TestAsKeyValues(t *testing.T) {
	cfg := Config{ConfidenceThreshold: 70, MaxAttempts: 3, VerificationTimeoutSeconds: 1}
	kv := cfg.AsKeyValues()
	assert.Equal(t, "70", kv["confidence_threshold"])
	assert.Equal(t, "3", kv["max_attempts"])
	assert.Equal(t, "1", kv["verification_timeout_seconds"])
}
