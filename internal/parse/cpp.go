// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// cppWalker accumulates C/C++ functions with "prefer the definition"
// dedup semantics: when a declaration and a definition share a
// qualified name in one translation unit, only the definition is kept.
// That is subtly different from the last-write-wins rule Python/JS
// use, so it keeps its own bookkeeping instead of functionSet.
type cppWalker struct {
	content      []byte
	filePath     string
	isHeader     bool
	index        map[string]int
	functions    []Function
	hasDefRecord map[string]bool

	// scopeStack holds enclosing namespace/class names; accessStack
	// holds the current access-specifier tag in effect for the
	// matching class scope ("" for a namespace/free-function scope).
	scopeStack  []string
	accessStack []string
}

func parseCPP(content []byte, filePath string, isHeader bool) (*Result, error) {
	tree, err := parseTree(cpp.GetLanguage(), content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &cppWalker{
		content:      content,
		filePath:     filePath,
		isHeader:     isHeader,
		index:        make(map[string]int),
		hasDefRecord: make(map[string]bool),
	}
	w.walk(root, nil)

	calls := extractCallsFromFunctions(root, content, w.functions, "::")
	return &Result{Functions: w.functions, Calls: calls, Errors: collectSyntaxErrors(root)}, nil
}

func (w *cppWalker) walk(node *sitter.Node, extraTags []string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "namespace_definition":
		w.walkNamespace(node)
		return

	case "class_specifier", "struct_specifier":
		w.walkClass(node, node.Type() == "struct_specifier")
		return

	case "template_declaration":
		w.walkChildren(node, append(append([]string{}, extraTags...), "template"))
		return

	case "function_definition":
		w.addFunction(node, extraTags)
		if body := node.ChildByFieldName("body"); body != nil {
			w.walkChildren(body, nil)
		}
		return

	case "declaration", "field_declaration":
		if w.isHeader {
			w.addDeclaration(node, append(append([]string{}, extraTags...), "declaration"))
		}
		return

	case "access_specifier":
		if len(w.accessStack) > 0 {
			w.accessStack[len(w.accessStack)-1] = accessKind(text(node, w.content))
		}
		return
	}
	w.walkChildren(node, nil)
}

func (w *cppWalker) walkChildren(node *sitter.Node, tags []string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), tags)
	}
}

func accessKind(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	switch s {
	case "public", "private", "protected":
		return s
	}
	return ""
}

func (w *cppWalker) walkNamespace(node *sitter.Node) {
	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = text(n, w.content)
	}
	w.scopeStack = append(w.scopeStack, name)
	w.accessStack = append(w.accessStack, "")
	if body := node.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, nil)
	}
	w.scopeStack = w.scopeStack[:len(w.scopeStack)-1]
	w.accessStack = w.accessStack[:len(w.accessStack)-1]
}

func (w *cppWalker) walkClass(node *sitter.Node, isStruct bool) {
	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = text(n, w.content)
	}
	defaultAccess := "private"
	if isStruct {
		defaultAccess = "public"
	}
	w.scopeStack = append(w.scopeStack, name)
	w.accessStack = append(w.accessStack, defaultAccess)
	if body := node.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, nil)
	}
	w.scopeStack = w.scopeStack[:len(w.scopeStack)-1]
	w.accessStack = w.accessStack[:len(w.accessStack)-1]
}

func (w *cppWalker) currentAccessTag() []string {
	if len(w.accessStack) == 0 {
		return nil
	}
	a := w.accessStack[len(w.accessStack)-1]
	if a == "" {
		return nil
	}
	return []string{a}
}

// declaratorInfo describes what a function_declarator (possibly nested
// under pointer/reference declarators) names: an out-of-class
// definition's explicit scope (e.g. `Foo::Bar::method`), the bare name,
// and whether it's a destructor or operator overload.
type declaratorInfo struct {
	scope        []string
	name         string
	isDestructor bool
	isOperator   bool
}

func (w *cppWalker) extractDeclarator(node *sitter.Node) (declaratorInfo, bool) {
	if node == nil {
		return declaratorInfo{}, false
	}
	switch node.Type() {
	case "pointer_declarator", "reference_declarator", "abstract_pointer_declarator":
		if d := node.ChildByFieldName("declarator"); d != nil {
			return w.extractDeclarator(d)
		}
		return declaratorInfo{}, false

	case "function_declarator":
		d := node.ChildByFieldName("declarator")
		return w.extractDeclaratorName(d)
	}
	return declaratorInfo{}, false
}

func (w *cppWalker) extractDeclaratorName(node *sitter.Node) (declaratorInfo, bool) {
	if node == nil {
		return declaratorInfo{}, false
	}
	switch node.Type() {
	case "identifier", "field_identifier":
		return declaratorInfo{name: text(node, w.content)}, true

	case "destructor_name":
		return declaratorInfo{name: text(node, w.content), isDestructor: true}, true

	case "operator_name":
		return declaratorInfo{name: text(node, w.content), isOperator: true}, true

	case "qualified_identifier":
		scopeNode := node.ChildByFieldName("scope")
		nameNode := node.ChildByFieldName("name")
		inner, ok := w.extractDeclaratorName(nameNode)
		if !ok {
			return declaratorInfo{}, false
		}
		if scopeNode != nil {
			inner.scope = append([]string{text(scopeNode, w.content)}, inner.scope...)
		}
		return inner, true
	}
	return declaratorInfo{}, false
}

func (w *cppWalker) addFunction(node *sitter.Node, extraTags []string) {
	declNode := node.ChildByFieldName("declarator")
	info, ok := w.extractDeclarator(declNode)
	if !ok {
		return
	}

	parent := joinQualified("::", w.scopeStack...)
	scopePrefix := joinQualified("::", info.scope...)
	effectiveParent := parent
	if scopePrefix != "" {
		// out-of-class definition, e.g. `void Foo::bar() {}`: the
		// explicit scope is appended to the lexical enclosing
		// namespace to form the qualified name.
		effectiveParent = joinQualified("::", parent, scopePrefix)
	}
	name := info.name
	if info.isDestructor {
		name = "~" + name
	}
	qualified := joinQualified("::", effectiveParent, name)

	tags := append(append([]string{}, extraTags...), w.currentAccessTag()...)

	full := text(node, w.content)
	body := node.ChildByFieldName("body")
	w.record(Function{
		Name:          name,
		QualifiedName: qualified,
		Signature:     signatureLine(full, text(body, w.content)),
		Body:          full,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Parent:        effectiveParent,
		IsMethod:      len(w.scopeStack) > 0 || scopePrefix != "",
		Tags:          tags,
	}, true)
}

func (w *cppWalker) addDeclaration(node *sitter.Node, extraTags []string) {
	declNode := node.ChildByFieldName("declarator")
	info, ok := w.extractDeclarator(declNode)
	if !ok {
		return
	}
	parent := joinQualified("::", w.scopeStack...)
	name := info.name
	if info.isDestructor {
		name = "~" + name
	}
	qualified := joinQualified("::", parent, name)

	tags := append(append([]string{}, extraTags...), w.currentAccessTag()...)
	full := text(node, w.content)
	w.record(Function{
		Name:          name,
		QualifiedName: qualified,
		Signature:     strings.TrimSuffix(strings.TrimSpace(full), ";"),
		Body:          "",
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Parent:        parent,
		IsMethod:      len(w.scopeStack) > 0,
		Tags:          tags,
	}, false)
}

// record applies the declaration/definition dedup rule: a definition
// always wins and replaces any prior declaration; a declaration is
// dropped if a definition for the same qualified name already exists.
func (w *cppWalker) record(f Function, isDefinition bool) {
	if idx, exists := w.index[f.QualifiedName]; exists {
		if !isDefinition && w.hasDefRecord[f.QualifiedName] {
			return
		}
		w.functions[idx] = f
		w.hasDefRecord[f.QualifiedName] = isDefinition || w.hasDefRecord[f.QualifiedName]
		return
	}
	w.index[f.QualifiedName] = len(w.functions)
	w.functions = append(w.functions, f)
	w.hasDefRecord[f.QualifiedName] = isDefinition
}
