// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package diffminer mines bug-fix commits for contract-relevant
// patterns: it parses a commit's unified diff, scores the commit
// message for bug-fix likelihood, categorizes what each hunk guards
// against, maps changed line ranges back to the functions they touch,
// and suggests how an existing contract should be strengthened.
package diffminer

import (
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	coreerrors "github.com/kraklabs/drspec/internal/errors"
)

// FileChange is one file's worth of hunks from a parsed commit diff.
// NewPath is empty for a deleted file, OldPath for a brand-new one.
type FileChange struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
}

// Hunk is a single unified-diff hunk, reduced to the added/removed
// line text and the line ranges they occupy in each version.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Added              []string
	Removed            []string
}

// ParseDiff parses a unified diff (as produced by `git show <sha>` or
// `git diff`) into per-file hunks.
func ParseDiff(diffText string) ([]FileChange, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, coreerrors.Validation(coreerrors.CodeParseError, "diffminer: malformed unified diff", map[string]any{"error": err.Error()})
	}

	var out []FileChange
	for _, fd := range fileDiffs {
		fc := FileChange{OldPath: cleanPath(fd.OrigName), NewPath: cleanPath(fd.NewName)}
		for _, h := range fd.Hunks {
			hunk := Hunk{
				OldStart: int(h.OrigStartLine), OldLines: int(h.OrigLines),
				NewStart: int(h.NewStartLine), NewLines: int(h.NewLines),
			}
			for _, line := range strings.Split(string(h.Body), "\n") {
				if line == "" {
					continue
				}
				switch line[0] {
				case '+':
					hunk.Added = append(hunk.Added, line[1:])
				case '-':
					hunk.Removed = append(hunk.Removed, line[1:])
				}
			}
			fc.Hunks = append(fc.Hunks, hunk)
		}
		out = append(out, fc)
	}
	return out, nil
}

// cleanPath strips git's a/ and b/ prefixes and normalizes /dev/null
// (a created or deleted side) to the empty string.
func cleanPath(p string) string {
	if p == "/dev/null" {
		return ""
	}
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	return p
}

// whitespaceOnly reports whether the hunk's added and removed lines
// differ only in whitespace, in which case no pattern is mined from
// it.
func (h Hunk) whitespaceOnly() bool {
	return squash(h.Added) == squash(h.Removed)
}

func squash(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		for _, r := range line {
			if r != ' ' && r != '\t' && r != '\r' {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
