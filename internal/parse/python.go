// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// pyScope is one enclosing class or function on the walker's stack.
// Both kinds contribute to qualified names; only classes make the
// functions under them methods.
type pyScope struct {
	name    string
	isClass bool
}

// pythonWalker carries the state needed while recursing through a
// module body: the source bytes, the accumulating function set, and a
// stack of enclosing class/function names joined with ".".
type pythonWalker struct {
	content []byte
	set     *functionSet
	stack   []pyScope
}

func parsePython(content []byte, filePath string) (*Result, error) {
	tree, err := parseTree(python.GetLanguage(), content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &pythonWalker{content: content, set: newFunctionSet()}
	w.walk(root)

	fns := w.set.list()
	calls := extractCallsFromFunctions(root, content, fns, ".")

	return &Result{Functions: fns, Calls: calls, Errors: collectSyntaxErrors(root)}, nil
}

func (w *pythonWalker) walk(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_definition":
		w.walkClass(node)
		return
	case "decorated_definition":
		w.walkDecorated(node)
		return
	case "function_definition":
		w.walkFunction(node, nil)
		return
	}
	w.walkChildren(node)
}

func (w *pythonWalker) walkChildren(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i))
	}
}

func (w *pythonWalker) walkClass(node *sitter.Node) {
	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = text(n, w.content)
	}
	w.stack = append(w.stack, pyScope{name: name, isClass: true})
	if body := node.ChildByFieldName("body"); body != nil {
		w.walkChildren(body)
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// walkDecorated handles `decorated_definition`, collecting the textual
// form of each `@decorator` line as a tag before delegating to the
// wrapped function/class definition.
func (w *pythonWalker) walkDecorated(node *sitter.Node) {
	var tags []string
	var inner *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorator":
			tags = append(tags, decoratorText(child, w.content))
		case "function_definition", "class_definition":
			inner = child
		}
	}
	if inner == nil {
		return
	}
	if inner.Type() == "class_definition" {
		w.walkClass(inner)
		return
	}
	w.walkFunction(inner, tags)
}

func decoratorText(node *sitter.Node, content []byte) string {
	t := text(node, content)
	// strip the leading '@'
	for len(t) > 0 && (t[0] == '@' || t[0] == ' ') {
		t = t[1:]
	}
	return t
}

// walkFunction emits the function and then recurses into its body with
// the function's own name on the scope stack, so nested definitions
// come out as "outer.inner".
func (w *pythonWalker) walkFunction(node *sitter.Node, tags []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, w.content)
	isAsync := false
	if first := node.Child(0); first != nil && first.Type() == "async" {
		isAsync = true
	}

	parent := w.qualifiedScope()
	qualified := joinQualified(".", parent, name)
	isMethod := len(w.stack) > 0 && w.stack[len(w.stack)-1].isClass
	body := node.ChildByFieldName("body")
	full := text(node, w.content)
	bodyText := text(body, w.content)

	w.set.add(Function{
		Name:          name,
		QualifiedName: qualified,
		Signature:     signatureLine(full, bodyText),
		Body:          full,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Parent:        parent,
		IsMethod:      isMethod,
		IsAsync:       isAsync,
		Tags:          tags,
	})

	if body != nil {
		w.stack = append(w.stack, pyScope{name: name})
		w.walkChildren(body)
		w.stack = w.stack[:len(w.stack)-1]
	}
}

func (w *pythonWalker) qualifiedScope() string {
	parts := make([]string, 0, len(w.stack))
	for _, s := range w.stack {
		parts = append(parts, s.name)
	}
	return joinQualified(".", parts...)
}
