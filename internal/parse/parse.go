// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import "fmt"

// Language tags, duplicated from internal/domain to keep this package
// free of a dependency on the persistence layer (domain imports time
// only today, but parse is meant to be usable standalone, e.g. from a
// future `drspec parse` debug subcommand).
const (
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangCPP        = "cpp"
)

// Parse dispatches to the language-specific tree-sitter walker named
// by language (one of LangPython, LangJavaScript, LangCPP). isHeader
// only matters for LangCPP, where header files additionally emit
// declarations.
func Parse(language string, content []byte, filePath string, isHeader bool) (*Result, error) {
	switch language {
	case LangPython:
		return parsePython(content, filePath)
	case LangJavaScript:
		return parseJavaScript(content, filePath)
	case LangCPP:
		return parseCPP(content, filePath, isHeader)
	default:
		return nil, fmt.Errorf("parse: unsupported language %q", language)
	}
}
