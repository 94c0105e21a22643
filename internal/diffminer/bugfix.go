// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package diffminer

import (
	"regexp"
	"strings"
)

// BugFixThreshold is the message score at or above which a commit is
// treated as a bug fix worth mining.
const BugFixThreshold = 0.3

var bugFixKeywords = regexp.MustCompile(`(?i)\b(fix(e[sd]|ing)?|bug(fix)?|hotfix|patch(ed)?|repair(ed)?|resolve[sd]?|issue|close[sd]?|error|crash|failure|broken|broke)\b`)

var issueRefs = regexp.MustCompile(`(?i)(#\d+|\bGH-\d+|\b[A-Z]{2,}-\d+|\b(issue|bug|fix(es)?)\s*:?\s*#?\d+)`)

var explicitBugWords = regexp.MustCompile(`(?i)\b(bug|error)\b`)

// ScoreBugFix rates how strongly a commit message reads as a bug fix,
// on [0,1]. Keyword hits contribute up to 0.5 (0.2 each), an issue
// reference adds 0.3, a message that opens with "fix" adds 0.2, and an
// explicit "bug" or "error" adds another 0.15.
func ScoreBugFix(message string) float64 {
	score := 0.0

	if n := len(bugFixKeywords.FindAllString(message, -1)); n > 0 {
		kw := 0.2 * float64(n)
		if kw > 0.5 {
			kw = 0.5
		}
		score += kw
	}
	if issueRefs.MatchString(message) {
		score += 0.3
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(message)), "fix") {
		score += 0.2
	}
	if explicitBugWords.MatchString(message) {
		score += 0.15
	}

	if score > 1 {
		return 1
	}
	return score
}

// IsLikelyBugFix reports whether the message's score clears
// BugFixThreshold.
func IsLikelyBugFix(message string) bool {
	return ScoreBugFix(message) >= BugFixThreshold
}
