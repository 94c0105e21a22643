// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package scan walks a project's file tree, routes each recognized
// source file to the matching internal/parse language walker, and
// assembles the resulting functions into function_id-keyed records the
// repository can upsert. Ignore rules match directory names only; a
// matched directory is skipped without descending.
package scan

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/drspec/internal/hashing"
	"github.com/kraklabs/drspec/internal/parse"
)

// DefaultIgnoreGlobs is the built-in directory-name ignore list. A
// directory is skipped (and never descended into) if any path segment
// matches one of these patterns.
var DefaultIgnoreGlobs = []string{
	".git", "node_modules", "__pycache__", "venv", ".venv", "dist",
	"build", ".pytest_cache", ".mypy_cache", "*.egg-info", ".tox",
	".nox", ".coverage", "htmlcov", ".eggs",
}

// extensionLanguage maps a file extension to the language tag the
// parser dispatcher understands.
var extensionLanguage = map[string]string{
	".py":  parse.LangPython,
	".pyw": parse.LangPython,

	".js":  parse.LangJavaScript,
	".jsx": parse.LangJavaScript,
	".mjs": parse.LangJavaScript,
	".cjs": parse.LangJavaScript,
	".ts":  parse.LangJavaScript,
	".tsx": parse.LangJavaScript,

	".c":   parse.LangCPP,
	".cpp": parse.LangCPP,
	".cc":  parse.LangCPP,
	".cxx": parse.LangCPP,
	".h":   parse.LangCPP,
	".hpp": parse.LangCPP,
	".hxx": parse.LangCPP,
	".hh":  parse.LangCPP,
	".H":   parse.LangCPP,
}

var headerExtensions = map[string]bool{
	".h": true, ".hpp": true, ".hxx": true, ".hh": true, ".H": true,
}

// DetectLanguage returns the language tag for path's extension and
// whether the extension is recognized at all.
func DetectLanguage(path string) (string, bool) {
	ext := filepath.Ext(path)
	if lang, ok := extensionLanguage[ext]; ok {
		return lang, true
	}
	// filepath.Ext lowercases nothing; ".H" is deliberately kept
	// case-sensitive above (a common C++ header convention) but other
	// extensions are matched case-insensitively.
	lower := strings.ToLower(ext)
	if lower == ext {
		return "", false
	}
	if lang, ok := extensionLanguage[lower]; ok {
		return lang, true
	}
	return "", false
}

func isHeaderFile(path string) bool {
	return headerExtensions[filepath.Ext(path)]
}

// ScannedFunction is one function_id-keyed extraction ready to be
// upserted as an Artifact.
type ScannedFunction struct {
	FunctionID    string
	FilePath      string
	Name          string
	QualifiedName string
	Signature     string
	Body          string
	CodeHash      string
	Language      string
	StartLine     int
	EndLine       int
	Parent        string
	IsMethod      bool
	IsAsync       bool
	Tags          []string
}

// FileError records a single file's parse/read failure; one bad file
// never aborts the rest of the scan.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ScannedCall is a same-file caller -> callee edge with both ends
// resolved to function_ids, ready for the dependency table.
type ScannedCall struct {
	CallerID string
	CalleeID string
}

// Result is everything one Scan call produced.
type Result struct {
	Functions  []ScannedFunction
	Calls      []ScannedCall
	FileErrors []FileError
}

// FunctionID assembles the stable identifier
// "<relative_file_path>::<qualified_name>".
func FunctionID(relPath, qualifiedName string) string {
	return relPath + "::" + qualifiedName
}

// Scan walks root (recursing into subdirectories unless recursive is
// false, in which case only files directly under root are visited),
// skipping any directory whose name matches DefaultIgnoreGlobs, and
// parses every recognized source file it finds.
func Scan(root string, recursive bool, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var result Result

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("scan.walk.error", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if ignoredDir(d.Name()) {
				return filepath.SkipDir
			}
			if !recursive && strings.Contains(relPath, "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !recursive && strings.Contains(relPath, "/") {
			return nil
		}

		lang, ok := DetectLanguage(path)
		if !ok {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			result.FileErrors = append(result.FileErrors, FileError{Path: relPath, Message: readErr.Error()})
			return nil
		}

		parsed, parseErr := parse.Parse(lang, content, path, isHeaderFile(path))
		if parseErr != nil {
			result.FileErrors = append(result.FileErrors, FileError{Path: relPath, Message: parseErr.Error()})
			return nil
		}
		for _, synErr := range parsed.Errors {
			logger.Warn("scan.parse.syntax_error", "path", relPath, "line", synErr.Line, "message", synErr.Message)
		}

		for _, call := range parsed.Calls {
			result.Calls = append(result.Calls, ScannedCall{
				CallerID: FunctionID(relPath, call.CallerQualifiedName),
				CalleeID: FunctionID(relPath, call.CalleeQualifiedName),
			})
		}

		for _, fn := range parsed.Functions {
			result.Functions = append(result.Functions, ScannedFunction{
				FunctionID:    FunctionID(relPath, fn.QualifiedName),
				FilePath:      relPath,
				Name:          fn.Name,
				QualifiedName: fn.QualifiedName,
				Signature:     fn.Signature,
				Body:          fn.Body,
				CodeHash:      hashing.CodeHash(fn.Body, lang),
				Language:      lang,
				StartLine:     fn.StartLine,
				EndLine:       fn.EndLine,
				Parent:        fn.Parent,
				IsMethod:      fn.IsMethod,
				IsAsync:       fn.IsAsync,
				Tags:          fn.Tags,
			})
		}
		return nil
	})
	if walkErr != nil {
		return result, walkErr
	}
	return result, nil
}

func ignoredDir(name string) bool {
	for _, pattern := range DefaultIgnoreGlobs {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
