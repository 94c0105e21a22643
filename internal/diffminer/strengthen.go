// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package diffminer

import (
	"fmt"
	"strings"

	"github.com/kraklabs/drspec/internal/contractdoc"
)

// boostPerValidation is added to the suggested confidence boost for
// every existing invariant a mined pattern corroborates.
const boostPerValidation = 0.05

// maxBoost caps the total suggested confidence boost per commit.
const maxBoost = 0.25

// categoryKeywords match a pattern category against the name/logic
// text of existing invariants; a hit means the bug fix corroborates an
// invariant the contract already states.
var categoryKeywords = map[PatternCategory][]string{
	CategoryNullCheck:          {"null", "none", "nil", "nullptr", "undefined"},
	CategoryBoundsCheck:        {"bound", "length", "index", "size"},
	CategoryTypeCheck:          {"type", "instance", "isinstance"},
	CategoryEmptyCheck:         {"empty", "blank", "non-empty", "nonempty"},
	CategoryDuplicateCheck:     {"duplicate", "unique", "distinct", "seen"},
	CategoryRangeCheck:         {"range", "minimum", "maximum", "min", "max", "clamp"},
	CategoryFormatCheck:        {"format", "pattern", "regex", "valid"},
	CategoryExceptionHandling:  {"error", "exception", "raise", "throw", "fail"},
	CategoryOffByOne:           {"boundary", "off-by-one", "inclusive", "exclusive"},
	CategoryInitialization:     {"initial", "default", "uninitialized"},
	CategoryResourceManagement: {"resource", "close", "release", "leak", "cleanup"},
	CategoryConcurrency:        {"lock", "concurrent", "race", "atomic", "thread"},
}

// criticalityFor ranks how severe a violation of the suggested
// invariant would be: guards against crashes and corruption are HIGH,
// shape/validity guards are MEDIUM, the rest LOW.
func criticalityFor(c PatternCategory) contractdoc.Criticality {
	switch c {
	case CategoryNullCheck, CategoryBoundsCheck, CategoryExceptionHandling,
		CategoryOffByOne, CategoryResourceManagement, CategoryConcurrency:
		return contractdoc.CriticalityHigh
	case CategoryTypeCheck, CategoryEmptyCheck, CategoryDuplicateCheck,
		CategoryRangeCheck, CategoryInitialization:
		return contractdoc.CriticalityMedium
	default:
		return contractdoc.CriticalityLow
	}
}

// suggestionTemplates yields up to two starter invariants per
// category, phrased for a reviewer to accept or edit.
var suggestionTemplates = map[PatternCategory][]struct {
	name  string
	logic string
}{
	CategoryNullCheck: {
		{"input_not_null", "%s must reject null/None input before dereferencing it"},
		{"null_result_handled", "callers of %s must receive a defined value, never an unguarded null"},
	},
	CategoryBoundsCheck: {
		{"index_within_bounds", "%s must validate indices against the collection length before access"},
	},
	CategoryTypeCheck: {
		{"input_type_checked", "%s must verify its argument types before operating on them"},
	},
	CategoryEmptyCheck: {
		{"empty_input_handled", "%s must handle empty input without raising"},
	},
	CategoryDuplicateCheck: {
		{"duplicates_rejected", "%s must detect and handle duplicate entries"},
	},
	CategoryRangeCheck: {
		{"value_in_range", "%s must constrain numeric inputs to their documented range"},
	},
	CategoryFormatCheck: {
		{"input_format_valid", "%s must validate input format before parsing it"},
	},
	CategoryExceptionHandling: {
		{"errors_propagated", "%s must catch or propagate errors from fallible calls"},
		{"no_silent_failure", "%s must not swallow an error without recording it"},
	},
	CategoryOffByOne: {
		{"boundary_inclusive_correct", "%s must treat its range boundaries consistently (no off-by-one)"},
	},
	CategoryInitialization: {
		{"state_initialized", "%s must initialize every value before first use"},
	},
	CategoryResourceManagement: {
		{"resources_released", "%s must release acquired resources on every exit path"},
	},
	CategoryConcurrency: {
		{"shared_state_synchronized", "%s must hold the appropriate lock while touching shared state"},
	},
}

// SuggestedInvariant is one proposed contract addition derived from a
// mined pattern.
type SuggestedInvariant struct {
	Category  PatternCategory       `json:"category"`
	Invariant contractdoc.Invariant `json:"invariant"`
}

// Strengthening is the outcome of weighing mined patterns against an
// existing contract.
type Strengthening struct {
	ValidatedInvariants []string             `json:"validated_invariants"`
	ConfidenceBoost     float64              `json:"confidence_boost"`
	Suggestions         []SuggestedInvariant `json:"suggestions"`
}

// Strengthen matches each pattern's category keywords against the
// existing contract's invariants — corroborated invariants earn a
// confidence boost — and proposes new invariants from per-category
// templates, dropping any whose name the contract already carries.
// existing may be nil for a function with no contract yet.
func Strengthen(patterns []Pattern, functionName string, existing *contractdoc.Document) Strengthening {
	var result Strengthening

	existingNames := make(map[string]bool)
	if existing != nil {
		for _, inv := range existing.Invariants {
			existingNames[inv.Name] = true
		}
	}

	validated := make(map[string]bool)
	for _, p := range patterns {
		if existing == nil {
			break
		}
		for _, inv := range existing.Invariants {
			if validated[inv.Name] {
				continue
			}
			if invariantMatchesCategory(inv, p.Category) {
				validated[inv.Name] = true
				result.ValidatedInvariants = append(result.ValidatedInvariants, inv.Name)
				result.ConfidenceBoost += boostPerValidation
			}
		}
	}
	if result.ConfidenceBoost > maxBoost {
		result.ConfidenceBoost = maxBoost
	}

	suggested := make(map[string]bool)
	for _, p := range patterns {
		crit := criticalityFor(p.Category)
		onFail := contractdoc.OnFailWarn
		if crit == contractdoc.CriticalityHigh {
			onFail = contractdoc.OnFailError
		}
		for i, tmpl := range suggestionTemplates[p.Category] {
			if i >= 2 {
				break
			}
			if existingNames[tmpl.name] || suggested[tmpl.name] {
				continue
			}
			suggested[tmpl.name] = true
			result.Suggestions = append(result.Suggestions, SuggestedInvariant{
				Category: p.Category,
				Invariant: contractdoc.Invariant{
					Name:        tmpl.name,
					Logic:       fmt.Sprintf(tmpl.logic, functionName),
					Criticality: crit,
					OnFail:      onFail,
				},
			})
		}
	}
	return result
}

func invariantMatchesCategory(inv contractdoc.Invariant, c PatternCategory) bool {
	haystack := strings.ToLower(inv.Name + " " + inv.Logic)
	for _, kw := range categoryKeywords[c] {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
