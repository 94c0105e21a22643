// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package repository

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	coreerrors "github.com/kraklabs/drspec/internal/errors"
)

// maxSuggestions caps how many near-miss function_ids an absence error
// carries.
const maxSuggestions = 5

var fold = cases.Fold()

// SuggestFunctionIDs finds up to limit function_ids resembling target,
// for decorating FUNCTION_NOT_FOUND/CONTRACT_NOT_FOUND errors. First
// pass: case-insensitive substring match of the target's name segment
// against each artifact's short name. Fallback: artifacts whose
// function_id starts with the target's path segment. Case-insensitive
// comparison uses Unicode case folding rather than ASCII lowering so
// non-ASCII identifiers match too.
func (r *Repository) SuggestFunctionIDs(ctx context.Context, target string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT function_id, name FROM artifacts ORDER BY function_id`)
	if err != nil {
		return nil, coreerrors.Internal("suggest_function_ids: query", err)
	}
	defer rows.Close()

	type candidate struct {
		id   string
		name string
	}
	var all []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.name); err != nil {
			return nil, coreerrors.Internal("suggest_function_ids: scan", err)
		}
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal("suggest_function_ids: rows", err)
	}

	pathPart, namePart := splitTarget(target)
	foldedName := fold.String(namePart)

	var out []string
	if foldedName != "" {
		for _, c := range all {
			if strings.Contains(fold.String(c.name), foldedName) {
				out = append(out, c.id)
				if len(out) == limit {
					return out, nil
				}
			}
		}
	}
	if len(out) > 0 {
		return out, nil
	}

	if pathPart != "" {
		foldedPath := fold.String(pathPart)
		for _, c := range all {
			if strings.HasPrefix(fold.String(c.id), foldedPath) {
				out = append(out, c.id)
				if len(out) == limit {
					break
				}
			}
		}
	}
	return out, nil
}

// splitTarget separates a (possibly malformed) function_id into its
// path and name segments on the first "::". A bare name with no
// separator is treated as the name segment.
func splitTarget(target string) (path, name string) {
	if idx := strings.Index(target, "::"); idx >= 0 {
		name = target[idx+2:]
		if dot := strings.LastIndexAny(name, "."); dot >= 0 {
			name = name[dot+1:]
		}
		if sep := strings.LastIndex(name, "::"); sep >= 0 {
			name = name[sep+2:]
		}
		return target[:idx], name
	}
	return "", target
}
