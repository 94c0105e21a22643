// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// jsWalker mirrors pythonWalker; the grammar differs but the shape
// (content bytes, accumulating set, class-name stack) is identical.
type jsWalker struct {
	content []byte
	set     *functionSet
	stack   []string
}

// grammarForJS picks the tree-sitter grammar by extension: plain JS/JSX
// source parses with the javascript grammar, .ts with typescript, .tsx
// with the tsx grammar. All of these share the single "javascript"
// language tag; only the grammar selection needs the extension.
func grammarForJS(filePath string) *sitter.Language {
	lower := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lower, ".tsx"):
		return tsx.GetLanguage()
	case strings.HasSuffix(lower, ".ts"):
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

func parseJavaScript(content []byte, filePath string) (*Result, error) {
	tree, err := parseTree(grammarForJS(filePath), content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &jsWalker{content: content, set: newFunctionSet()}
	w.walk(root, nil)

	fns := w.set.list()
	calls := extractCallsFromFunctions(root, content, fns, ".")
	return &Result{Functions: fns, Calls: calls, Errors: collectSyntaxErrors(root)}, nil
}

// walk recursively visits statements. exportTag is non-nil (and equal
// to []string{"export"}) while inside an export_statement, so any
// function/class definition found underneath picks up the "export"
// tag.
func (w *jsWalker) walk(node *sitter.Node, exportTag []string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "export_statement":
		decl := node.ChildByFieldName("declaration")
		if decl != nil {
			w.walk(decl, []string{"export"})
			return
		}
		w.walkChildren(node, nil)
		return

	case "function_declaration", "generator_function_declaration", "function_signature":
		w.addFunction(node, node.ChildByFieldName("name"), exportTag, false, false)
		if body := node.ChildByFieldName("body"); body != nil {
			w.walkChildren(body, nil)
		}
		return

	case "class_declaration", "class":
		w.walkClass(node, exportTag)
		return

	case "lexical_declaration", "variable_declaration":
		w.walkVariableDeclaration(node, exportTag)
		return

	case "expression_statement":
		w.walkChildren(node, exportTag)
		return
	}
	w.walkChildren(node, nil)
}

func (w *jsWalker) walkChildren(node *sitter.Node, tag []string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), tag)
	}
}

func (w *jsWalker) walkClass(node *sitter.Node, exportTag []string) {
	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = text(n, w.content)
	}
	w.stack = append(w.stack, name)
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "method_definition":
				w.addMethod(child, exportTag)
				if mb := child.ChildByFieldName("body"); mb != nil {
					w.walkChildren(mb, nil)
				}
			case "public_field_definition", "field_definition":
				w.walkClassField(child, exportTag)
			default:
				w.walk(child, nil)
			}
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// addMethod handles a class_body's method_definition, which in the
// tree-sitter JS/TS grammars carries its own "get"/"set"/"async"/"*"
// tokens as plain children rather than named fields.
func (w *jsWalker) addMethod(node *sitter.Node, exportTag []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, w.content)
	isAsync := false
	accessor := ""
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "async":
			isAsync = true
		case "get":
			accessor = "get_"
		case "set":
			accessor = "set_"
		}
	}

	parent := joinQualified(".", w.stack...)
	qualified := joinQualified(".", parent, accessor+name)
	w.emit(node, name, qualified, parent, exportTag, true, isAsync)
}

// walkClassField covers TS/ESNext class fields bound to an arrow
// function or function expression, e.g. `handler = (x) => x + 1`.
func (w *jsWalker) walkClassField(node *sitter.Node, exportTag []string) {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return
	}
	if valueNode.Type() != "arrow_function" && valueNode.Type() != "function" && valueNode.Type() != "function_expression" {
		return
	}
	name := text(nameNode, w.content)
	parent := joinQualified(".", w.stack...)
	qualified := joinQualified(".", parent, name)
	isAsync := hasAsyncChild(valueNode)
	w.emitWithBody(node, valueNode, name, qualified, parent, exportTag, true, isAsync)
	if body := valueNode.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, nil)
	}
}

// walkVariableDeclaration covers top-level/function-scoped
// `const f = (x) => ...` and `const g = function() {...}` bindings.
func (w *jsWalker) walkVariableDeclaration(node *sitter.Node, exportTag []string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		decl := node.Child(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		valueNode := decl.ChildByFieldName("value")
		if nameNode == nil || valueNode == nil {
			continue
		}
		if valueNode.Type() != "arrow_function" && valueNode.Type() != "function" && valueNode.Type() != "function_expression" {
			continue
		}
		name := text(nameNode, w.content)
		parent := joinQualified(".", w.stack...)
		qualified := joinQualified(".", parent, name)
		isAsync := hasAsyncChild(valueNode)
		w.emitWithBody(decl, valueNode, name, qualified, parent, exportTag, false, isAsync)
		if body := valueNode.ChildByFieldName("body"); body != nil {
			w.walkChildren(body, nil)
		}
	}
}

func hasAsyncChild(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "async" {
			return true
		}
	}
	return false
}

func (w *jsWalker) emit(node *sitter.Node, name, qualified, parent string, tags []string, isMethod, isAsync bool) {
	w.emitWithBody(node, node, name, qualified, parent, tags, isMethod, isAsync)
}

// emitWithBody records a function whose declared span (outerNode, used
// for start/end lines and signature text) may differ from the node that
// actually carries the body (bodyNode), as happens for
// `const f = (x) => x` where outerNode is the variable_declarator.
func (w *jsWalker) emitWithBody(outerNode, bodyNode *sitter.Node, name, qualified, parent string, tags []string, isMethod, isAsync bool) {
	full := text(outerNode, w.content)
	var bodyText string
	if b := bodyNode.ChildByFieldName("body"); b != nil {
		bodyText = text(b, w.content)
	}
	w.set.add(Function{
		Name:          name,
		QualifiedName: qualified,
		Signature:     signatureLine(full, bodyText),
		Body:          full,
		StartLine:     int(outerNode.StartPoint().Row) + 1,
		EndLine:       int(outerNode.EndPoint().Row) + 1,
		Parent:        parent,
		IsMethod:      isMethod,
		IsAsync:       isAsync,
		Tags:          tags,
	})
}

func (w *jsWalker) addFunction(node *sitter.Node, nameNode *sitter.Node, tags []string, isMethod, forceAsync bool) {
	if nameNode == nil {
		return
	}
	name := text(nameNode, w.content)
	isAsync := forceAsync || hasAsyncChild(node)
	parent := joinQualified(".", w.stack...)
	qualified := joinQualified(".", parent, name)
	w.emit(node, name, qualified, parent, tags, isMethod, isAsync)
}
