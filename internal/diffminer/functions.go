// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package diffminer

import (
	"github.com/kraklabs/drspec/internal/parse"
	"github.com/kraklabs/drspec/internal/scan"
)

// ModifiedFunction pairs a function from a changed file's post-image
// with the hunks that touched its line range.
type ModifiedFunction struct {
	FunctionID string
	FilePath   string
	Function   parse.Function
	Hunks      []Hunk
}

// FileLoader reads a changed file's post-image content. The learning
// miner passes a closure over the working tree (or `git show
// <sha>:<path>` for historical commits).
type FileLoader func(path string) ([]byte, error)

// ModifiedFunctions re-parses the post-image of every changed file
// whose language the parsers support and matches each hunk to the
// functions whose line range intersects the hunk's new-file range.
// Unreadable or unparseable files are skipped — a commit touching one
// broken file still yields the functions of the others.
func ModifiedFunctions(files []FileChange, load FileLoader) []ModifiedFunction {
	var out []ModifiedFunction
	for _, fc := range files {
		path := fc.NewPath
		if path == "" || len(fc.Hunks) == 0 {
			continue
		}
		lang, ok := scan.DetectLanguage(path)
		if !ok {
			continue
		}
		content, err := load(path)
		if err != nil {
			continue
		}
		parsed, err := parse.Parse(lang, content, path, false)
		if err != nil {
			continue
		}

		for _, fn := range parsed.Functions {
			var touching []Hunk
			for _, h := range fc.Hunks {
				hunkEnd := h.NewStart + h.NewLines
				if h.NewStart <= fn.EndLine && hunkEnd >= fn.StartLine {
					touching = append(touching, h)
				}
			}
			if len(touching) == 0 {
				continue
			}
			out = append(out, ModifiedFunction{
				FunctionID: scan.FunctionID(path, fn.QualifiedName),
				FilePath:   path,
				Function:   fn,
				Hunks:      touching,
			})
		}
	}
	return out
}
