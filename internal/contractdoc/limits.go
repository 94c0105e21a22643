// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package contractdoc

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultSoftLimitBytes is the baseline soft limit for a submitted
// contract document.
const DefaultSoftLimitBytes = 1 << 20 // 1 MiB

// SoftLimitBytes returns the effective size limit for a contract
// document. Controlled via env DRSPEC_SOFT_LIMIT_BYTES; falls back to
// DefaultSoftLimitBytes.
func SoftLimitBytes() int {
	if v := os.Getenv("DRSPEC_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// CheckSize rejects a raw document that exceeds the soft limit before
// any JSON decoding happens, so a pathological submission can't balloon
// memory.
func CheckSize(raw []byte) error {
	if limit := SoftLimitBytes(); len(raw) > limit {
		return &ValidationError{
			Kind:    ErrInvalidSchema,
			Message: fmt.Sprintf("contract document is %d bytes, over the %d-byte limit", len(raw), limit),
		}
	}
	return nil
}
