// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseTree runs lang's grammar over content and returns the tree so
// the caller can defer tree.Close() before walking the root node.
func parseTree(lang *sitter.Language, content []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return p.ParseCtx(context.Background(), nil, content)
}

// text slices the node's source text out of content using tree-sitter's
// byte offsets.
func text(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

// collectSyntaxErrors walks the tree collecting ERROR and MISSING
// nodes; extraction of the valid functions around them continues.
func collectSyntaxErrors(node *sitter.Node) []SyntaxError {
	var out []SyntaxError
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.IsError() || n.IsMissing() {
			pt := n.StartPoint()
			msg := "syntax error"
			if n.IsMissing() {
				msg = "missing token"
			}
			out = append(out, SyntaxError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Message: msg})
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return out
}

// signatureLine reduces a function's full text down to its first
// logical line up to the body opener: everything before the block/body
// node's own text begins.
func signatureLine(fullText, bodyText string) string {
	if bodyText != "" {
		if idx := indexOf(fullText, bodyText); idx >= 0 {
			fullText = fullText[:idx]
		}
	}
	return trimTrailingOpeners(firstLine(fullText))
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func indexOf(haystack, needle string) int {
	if needle == "" {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func trimTrailingOpeners(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		if last == ' ' || last == '\t' || last == ':' || last == '{' {
			s = s[:len(s)-1]
			continue
		}
		break
	}
	return s
}

// callNodeTypes are the grammar node types each supported language uses
// for a function/method invocation; "function" is the field carrying
// the callee expression in every one of them.
var callNodeTypes = map[string]bool{
	"call":            true, // python
	"call_expression": true, // javascript, typescript, cpp
}

// extractCallsFromFunctions builds the same-file CallEdge list the
// dependency graph consumes, by re-walking the whole tree for call
// sites and resolving each callee's textual name against the set of
// qualified names this file actually defines. No cross-file resolution
// is attempted.
func extractCallsFromFunctions(root *sitter.Node, content []byte, fns []Function, sep string) []CallEdge {
	if len(fns) == 0 {
		return nil
	}
	bySimpleName := make(map[string][]string) // simple name -> qualified names defining it
	for _, f := range fns {
		bySimpleName[f.Name] = append(bySimpleName[f.Name], f.QualifiedName)
	}

	// enclosingFunction finds which extracted function (by line range)
	// contains a given node, used to attribute a call site to its caller.
	enclosingFunction := func(line int) string {
		best := ""
		bestSpan := -1
		for _, f := range fns {
			if line < f.StartLine || line > f.EndLine {
				continue
			}
			span := f.EndLine - f.StartLine
			if bestSpan == -1 || span < bestSpan {
				bestSpan = span
				best = f.QualifiedName
			}
		}
		return best
	}

	var edges []CallEdge
	seen := make(map[CallEdge]bool)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if callNodeTypes[n.Type()] {
			callee := calleeSimpleName(n, content)
			if callee != "" {
				caller := enclosingFunction(int(n.StartPoint().Row) + 1)
				if caller != "" {
					for _, qn := range bySimpleName[callee] {
						if qn == caller {
							continue
						}
						e := CallEdge{CallerQualifiedName: caller, CalleeQualifiedName: qn}
						if !seen[e] {
							seen[e] = true
							edges = append(edges, e)
						}
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return edges
}

// calleeSimpleName extracts the bare identifier a call site invokes,
// stripping any attribute/member access down to its last segment
// (e.g. `self.helper(x)` -> "helper", `obj.method()` -> "method").
func calleeSimpleName(callNode *sitter.Node, content []byte) string {
	fn := callNode.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier", "field_identifier":
		return text(fn, content)
	case "attribute", "member_expression":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return text(attr, content)
		}
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return text(prop, content)
		}
	case "field_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return text(field, content)
		}
	}
	return ""
}
