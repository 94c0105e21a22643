// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides terminal output helpers for the drspec CLI.
//
// This package offers color output helpers that respect the --no-color flag
// and NO_COLOR environment variable. Colors are automatically disabled when
// the output is not a TTY (e.g., when piped).
//
// Color usage guidelines:
//   - Red: errors, BROKEN artifacts, FAILED queue entries, LOW confidence
//   - Yellow: warnings, NEEDS_REVIEW and STALE artifacts
//   - Green: success, VERIFIED artifacts, COMPLETED queue entries
//   - Cyan: info, PENDING/PROCESSING work still in flight
//   - Bold: headers, important labels
//   - Dim: less important details, paths, UNKNOWN statuses
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/kraklabs/drspec/internal/confidence"
	"github.com/kraklabs/drspec/internal/domain"
)

// Pre-configured color instances for consistent CLI output.
//
// These are initialized at package load time and respect the global
// color.NoColor setting when called.
var (
	// Red is used for error messages and failures.
	Red = color.New(color.FgRed)

	// Yellow is used for warnings and cautions.
	Yellow = color.New(color.FgYellow)

	// Green is used for success messages and completions.
	Green = color.New(color.FgGreen)

	// Cyan is used for informational messages.
	Cyan = color.New(color.FgCyan)

	// Bold is used for headers and important labels.
	Bold = color.New(color.Bold)

	// Dim is used for less important details like paths.
	Dim = color.New(color.Faint)
)

// InitColors configures global color output based on the noColor flag.
//
// This should be called early in main() after parsing flags to ensure
// all color output respects the --no-color flag and NO_COLOR environment variable.
//
// The fatih/color library already respects NO_COLOR automatically, but this
// function provides explicit control via the CLI flag.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints a green success message with a checkmark prefix.
//
// Example output: "✓ Indexed 42 functions"
func Success(msg string) {
	_, _ = Green.Println("✓ " + msg)
}

// Successf prints a formatted green success message with a checkmark prefix.
func Successf(format string, args ...any) {
	_, _ = Green.Printf("✓ "+format+"\n", args...)
}

// Warning prints a yellow warning message with a warning symbol prefix.
//
// Example output: "⚠ Skipped 3 files with errors"
func Warning(msg string) {
	_, _ = Yellow.Println("⚠ " + msg)
}

// Warningf prints a formatted yellow warning message with a warning symbol prefix.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Printf("⚠ "+format+"\n", args...)
}

// Error prints a red error message with an X prefix.
//
// Example output: "✗ Failed to open the project database"
func Error(msg string) {
	_, _ = Red.Println("✗ " + msg)
}

// Errorf prints a formatted red error message with an X prefix.
func Errorf(format string, args ...any) {
	_, _ = Red.Printf("✗ "+format+"\n", args...)
}

// Info prints a cyan informational message with an info symbol prefix.
//
// Example output: "ℹ Queue is empty"
func Info(msg string) {
	_, _ = Cyan.Println("ℹ " + msg)
}

// Infof prints a formatted cyan informational message with an info symbol prefix.
func Infof(format string, args ...any) {
	_, _ = Cyan.Printf("ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline separator.
//
// Example output:
//
//	drspec status
//	=============
func Header(text string) {
	_, _ = Bold.Println(text)
	fmt.Println(strings.Repeat("=", len(text)))
}

// SubHeader prints a bold sub-header without an underline.
//
// Example output: "Most called"
func SubHeader(text string) {
	_, _ = Bold.Println(text)
}

// Label returns a bold-formatted label string for inline use.
//
// Example: fmt.Printf("%s %s\n", ui.Label("Index:"), summary)
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for less important text.
//
// Example: fmt.Printf("Data stored in: %s\n", ui.DimText(dataDir))
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan-formatted count value for statistics display.
//
// Example: fmt.Printf("  Functions: %s\n", ui.CountText(42))
func CountText(count int) string {
	return Cyan.Sprint(count)
}

// StatusText renders an artifact lifecycle status in its conventional
// color: VERIFIED green, NEEDS_REVIEW and STALE yellow (both mean "a
// human or an agent owes this function another look"), BROKEN red,
// PENDING cyan, UNKNOWN dim.
func StatusText(status domain.ArtifactStatus) string {
	switch status {
	case domain.StatusVerified:
		return Green.Sprint(string(status))
	case domain.StatusNeedsReview, domain.StatusStale:
		return Yellow.Sprint(string(status))
	case domain.StatusBroken:
		return Red.Sprint(string(status))
	case domain.StatusPending:
		return Cyan.Sprint(string(status))
	default:
		return Dim.Sprint(string(status))
	}
}

// QueueStatusText renders a queue entry's status: COMPLETED green,
// FAILED red, PENDING/PROCESSING cyan (work still in flight).
func QueueStatusText(status domain.QueueStatus) string {
	switch status {
	case domain.QueueCompleted:
		return Green.Sprint(string(status))
	case domain.QueueFailed:
		return Red.Sprint(string(status))
	default:
		return Cyan.Sprint(string(status))
	}
}

// ConfidenceText renders a display-scale confidence percent colored by
// its bucket: HIGH/GOOD green, MODERATE yellow, LOW red.
//
// Example: fmt.Printf("confidence %s\n", ui.ConfidenceText(85))
func ConfidenceText(percent int) string {
	text := fmt.Sprintf("%d%%", percent)
	switch confidence.BucketFor(float64(percent) / 100) {
	case confidence.BucketHigh, confidence.BucketGood:
		return Green.Sprint(text)
	case confidence.BucketModerate:
		return Yellow.Sprint(text)
	default:
		return Red.Sprint(text)
	}
}
