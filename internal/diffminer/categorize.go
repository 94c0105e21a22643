// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package diffminer

import (
	"regexp"
)

// PatternCategory classifies what kind of defect a hunk's added lines
// appear to guard against.
type PatternCategory string

const (
	CategoryNullCheck          PatternCategory = "null_check"
	CategoryBoundsCheck        PatternCategory = "bounds_check"
	CategoryTypeCheck          PatternCategory = "type_check"
	CategoryEmptyCheck         PatternCategory = "empty_check"
	CategoryDuplicateCheck     PatternCategory = "duplicate_check"
	CategoryRangeCheck         PatternCategory = "range_check"
	CategoryFormatCheck        PatternCategory = "format_check"
	CategoryExceptionHandling  PatternCategory = "exception_handling"
	CategoryOffByOne           PatternCategory = "off_by_one"
	CategoryInitialization     PatternCategory = "initialization"
	CategoryResourceManagement PatternCategory = "resource_management"
	CategoryConcurrency        PatternCategory = "concurrency"
	CategoryUnknown            PatternCategory = "unknown"
)

// categoryRegexes holds the per-category signals counted against a
// hunk's added lines. Order is fixed so ties resolve deterministically.
var categoryRegexes = []struct {
	category PatternCategory
	patterns []*regexp.Regexp
}{
	{CategoryNullCheck, compileAll(
		`\bis\s+(not\s+)?None\b`,
		`[=!]==?\s*(null|nil|None|nullptr|undefined|NULL)\b`,
		`(null|nil|None|nullptr|undefined|NULL)\s*[=!]==?`,
		`\bif\s*\(\s*!\s*\w+\s*\)`,
		`\?\.`,
		`\?\?`,
	)},
	{CategoryBoundsCheck, compileAll(
		`\blen\s*\(\s*\w+\s*\)\s*[<>]`,
		`[<>]=?\s*len\s*\(`,
		`\.\s*length\s*[<>]`,
		`[<>]=?\s*\w+\.\s*length\b`,
		`\.size\s*\(\s*\)\s*[<>]`,
		`\bout\s+of\s+(range|bounds)\b`,
		`\bIndexError\b`,
	)},
	{CategoryTypeCheck, compileAll(
		`\bisinstance\s*\(`,
		`\btypeof\b`,
		`\binstanceof\b`,
		`\bdynamic_cast\s*<`,
		`\btype\s*\(\s*\w+\s*\)\s*(is|==)`,
		`\bTypeError\b`,
	)},
	{CategoryEmptyCheck, compileAll(
		`\blen\s*\(\s*\w+\s*\)\s*==\s*0\b`,
		`\.\s*length\s*===?\s*0\b`,
		`\.empty\s*\(\s*\)`,
		`[=!]==?\s*(''|"")`,
		`\bif\s+not\s+\w+\s*:`,
		`\bis\s+empty\b`,
	)},
	{CategoryDuplicateCheck, compileAll(
		`\bin\s+seen\b`,
		`\bseen\s*\.\s*(add|insert|has)\b`,
		`\.has\s*\(`,
		`\.contains\s*\(`,
		`\bduplicate`,
		`\balready\s+(exists|seen|present)\b`,
	)},
	{CategoryRangeCheck, compileAll(
		`[<>]=?\s*-?\d+(\.\d+)?\b`,
		`\bmin\s*\(`,
		`\bmax\s*\(`,
		`\bclamp`,
		`\bbetween\b`,
	)},
	{CategoryFormatCheck, compileAll(
		`\bre\.(match|fullmatch|search)\s*\(`,
		`\.match\s*\(`,
		`\bregex`,
		`\.isdigit\s*\(\s*\)`,
		`\.isalpha\s*\(\s*\)`,
		`\bstartswith\s*\(|\bendswith\s*\(`,
		`\bValueError\b.*format`,
	)},
	{CategoryExceptionHandling, compileAll(
		`\btry\s*[:{]`,
		`\bexcept\b`,
		`\bcatch\s*\(`,
		`\bfinally\b`,
		`\braise\b`,
		`\bthrow\b`,
		`\berr\s*!=\s*nil\b`,
	)},
	{CategoryOffByOne, compileAll(
		`\[\s*\w+\s*[-+]\s*1\s*\]`,
		`\blen\s*\(\s*\w+\s*\)\s*-\s*1\b`,
		`\.\s*length\s*-\s*1\b`,
		`\.size\s*\(\s*\)\s*-\s*1\b`,
		`\brange\s*\(\s*\w+\s*[-+]\s*1`,
	)},
	{CategoryInitialization, compileAll(
		`=\s*(None|null|nullptr|0|0\.0|\[\s*\]|\{\s*\}|''|"")\s*$`,
		`\binit(ial(ize[sd]?)?)?\b`,
		`\bdefault\b`,
		`\bsetdefault\s*\(`,
	)},
	{CategoryResourceManagement, compileAll(
		`\bwith\s+open\s*\(`,
		`\.close\s*\(\s*\)`,
		`\bdefer\b`,
		`\bfree\s*\(`,
		`\bdelete\s+\w+`,
		`\brelease\s*\(`,
		`\bdispose\b`,
		`\bunique_ptr\b|\bshared_ptr\b`,
	)},
	{CategoryConcurrency, compileAll(
		`\block\b|\bLock\b`,
		`\bmutex\b|\bMutex\b`,
		`\bsemaphore\b`,
		`\batomic\b`,
		`\bsynchronized\b`,
		`\bthreading\.`,
		`\basyncio\.`,
		`\brace\s+condition\b`,
	)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Pattern is one mined fix pattern for a single hunk.
type Pattern struct {
	Category    PatternCategory
	Confidence  float64
	Description string
	FilePath    string
	Hunk        Hunk
}

// CategorizeHunk scores every category against the hunk's added
// lines: one point per matching regex occurrence, plus a half-point
// bonus when the category matches the added lines but not the removed
// ones (the guard is genuinely new, not shuffled). The highest
// non-zero scorer wins; confidence is best/3 capped at 1. A hunk whose
// change is pure whitespace yields no pattern.
func CategorizeHunk(h Hunk) (Pattern, bool) {
	if len(h.Added) == 0 || h.whitespaceOnly() {
		return Pattern{}, false
	}

	added := joinLines(h.Added)
	removed := joinLines(h.Removed)

	best := CategoryUnknown
	bestScore := 0.0
	for _, cr := range categoryRegexes {
		score := 0.0
		newSignal := false
		for _, re := range cr.patterns {
			n := len(re.FindAllString(added, -1))
			if n == 0 {
				continue
			}
			score += float64(n)
			if !re.MatchString(removed) {
				newSignal = true
			}
		}
		if score > 0 && newSignal {
			score += 0.5
		}
		if score > bestScore {
			bestScore = score
			best = cr.category
		}
	}

	if best == CategoryUnknown {
		return Pattern{Category: CategoryUnknown, Confidence: 0, Description: describeCategory(CategoryUnknown), Hunk: h}, true
	}
	conf := bestScore / 3.0
	if conf > 1 {
		conf = 1
	}
	return Pattern{Category: best, Confidence: conf, Description: describeCategory(best), Hunk: h}, true
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// ExtractPatterns categorizes every hunk of every changed file.
func ExtractPatterns(files []FileChange) []Pattern {
	var out []Pattern
	for _, fc := range files {
		path := fc.NewPath
		if path == "" {
			continue
		}
		for _, h := range fc.Hunks {
			p, ok := CategorizeHunk(h)
			if !ok {
				continue
			}
			p.FilePath = path
			out = append(out, p)
		}
	}
	return out
}

func describeCategory(c PatternCategory) string {
	switch c {
	case CategoryNullCheck:
		return "Added a null/None/nil guard the original code was missing."
	case CategoryBoundsCheck:
		return "Added a bounds or length check before an indexed access."
	case CategoryTypeCheck:
		return "Added an explicit type check before operating on a value."
	case CategoryEmptyCheck:
		return "Added a guard against empty input."
	case CategoryDuplicateCheck:
		return "Added a duplicate-detection guard."
	case CategoryRangeCheck:
		return "Added a numeric range constraint."
	case CategoryFormatCheck:
		return "Added input format validation."
	case CategoryExceptionHandling:
		return "Added or strengthened error/exception handling."
	case CategoryOffByOne:
		return "Corrected an off-by-one boundary."
	case CategoryInitialization:
		return "Added explicit initialization of a value used later."
	case CategoryResourceManagement:
		return "Ensured a resource is released on every path."
	case CategoryConcurrency:
		return "Added synchronization around shared state."
	default:
		return "No recognized defensive pattern in the added lines."
	}
}
