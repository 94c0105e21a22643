// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// progressEnabled reports whether progress output should be shown:
// disabled by --json, -q, and non-TTY stderr (pipes, CI).
func progressEnabled(globals GlobalFlags) bool {
	return !globals.Quiet && isatty.IsTerminal(os.Stderr.Fd())
}

// NewSpinner returns an indeterminate spinner for work with no known
// total, or nil when progress is disabled. Callers pass the result to
// FinishSpinner unconditionally.
func NewSpinner(globals GlobalFlags, description string) *progressbar.ProgressBar {
	if !progressEnabled(globals) {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionEnableColorCodes(!globals.NoColor),
	)
}

// FinishSpinner clears a spinner created by NewSpinner. nil-safe.
func FinishSpinner(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}
	_ = bar.Finish()
	_ = bar.Clear()
}
