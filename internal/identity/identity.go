// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package identity generates random surrogate identifiers for things
// that have no natural key; internal/verify tags each verification
// run's log events with one. Unlike internal/hashing's content-derived fingerprints, these ids
// carry no meaning; they only have to be unique.
package identity

import "github.com/google/uuid"

// New returns a fresh random (v4) identifier as a string.
func New() string {
	return uuid.NewString()
}
