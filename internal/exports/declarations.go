package exports

import (
	sitter "github.com/smacker/go-tree-sitter"

	"tsprune/internal/tsparse"
)

// Kind is the declaration kind shown in reports.
type Kind string

const (
	KindFunction  Kind = "Function"
	KindClass     Kind = "Class"
	KindVariable  Kind = "Variable"
	KindInterface Kind = "Interface"
	KindTypeAlias Kind = "TypeAlias"
	KindEnum      Kind = "Enum"
	KindNamespace Kind = "Namespace"
)

// declarationKinds maps declaration node types to report kinds.
var declarationKinds = map[string]Kind{
	"function_declaration":           KindFunction,
	"generator_function_declaration": KindFunction,
	"function_signature":             KindFunction,
	"class_declaration":              KindClass,
	"abstract_class_declaration":     KindClass,
	"interface_declaration":          KindInterface,
	"type_alias_declaration":         KindTypeAlias,
	"enum_declaration":               KindEnum,
	"internal_module":                KindNamespace,
	"module":                         KindNamespace,
	"variable_declarator":            KindVariable,
}

// bearerLevels is how far above a declaration node its export_statement sits.
// A declarator is wrapped by its lexical/variable declaration, which is what
// the export keyword attaches to.
var bearerLevels = map[string]int{
	"function_declaration":           1,
	"generator_function_declaration": 1,
	"function_signature":             1,
	"class_declaration":              1,
	"abstract_class_declaration":     1,
	"interface_declaration":          1,
	"type_alias_declaration":         1,
	"enum_declaration":               1,
	"internal_module":                1,
	"module":                         1,
	"variable_declarator":            2,
}

// KindOf returns the report kind of a declaration node.
func KindOf(decl *sitter.Node) (Kind, bool) {
	if decl == nil {
		return "", false
	}
	k, ok := declarationKinds[decl.Type()]
	return k, ok
}

// ExportBearingNode returns the export_statement that carries the export
// keyword for decl, or false when decl is not directly under one.
func ExportBearingNode(decl *sitter.Node) (*sitter.Node, bool) {
	if decl == nil {
		return nil, false
	}
	levels, ok := bearerLevels[decl.Type()]
	if !ok {
		return nil, false
	}
	n := decl
	for i := 0; i < levels && n != nil; i++ {
		n = n.Parent()
	}
	if n == nil || n.Type() != "export_statement" {
		return nil, false
	}
	return n, true
}

// Declaration is one top-level binding introduced by a file.
type Declaration struct {
	// Node is the declaration node; a variable_declarator for variables.
	Node *sitter.Node
	// NameNode is the identifier that introduces the binding.
	NameNode *sitter.Node
	Name     string
	Kind     Kind
	// Ambient is set for "declare" declarations.
	Ambient bool
	// Destructured is set when the binding comes from a destructuring pattern.
	Destructured bool
	// StringNamed is set for `module "name" {}` declarations.
	StringNamed bool
	// Exported is set when the declaration sits under an export keyword.
	Exported bool
}

// Declarations returns the top-level bindings of a program, keyed by local
// name, in document order. Imports are not included.
func Declarations(root *sitter.Node, source []byte) map[string][]*Declaration {
	out := make(map[string][]*Declaration)
	add := func(d *Declaration) {
		out[d.Name] = append(out[d.Name], d)
	}
	for _, stmt := range tsparse.NamedChildren(root) {
		exported := false
		node := stmt
		if stmt.Type() == "export_statement" {
			node = stmt.ChildByFieldName("declaration")
			exported = true
			if node == nil {
				continue
			}
		}
		for _, d := range DeclarationsOf(node, source, false) {
			d.Exported = exported
			add(d)
		}
	}
	return out
}

// DeclarationsOf expands one statement into the bindings it declares.
// Ambient marks the results as coming from a "declare" context.
func DeclarationsOf(node *sitter.Node, source []byte, ambient bool) []*Declaration {
	switch node.Type() {
	case "lexical_declaration", "variable_declaration":
		var out []*Declaration
		for _, declarator := range tsparse.NamedChildren(node) {
			if declarator.Type() != "variable_declarator" {
				continue
			}
			pattern := declarator.ChildByFieldName("name")
			for _, id := range tsparse.BindingIdentifiers(pattern) {
				out = append(out, &Declaration{
					Node:         declarator,
					NameNode:     id,
					Name:         tsparse.Text(id, source),
					Kind:         KindVariable,
					Ambient:      ambient,
					Destructured: pattern.Type() != "identifier",
				})
			}
		}
		return out
	case "ambient_declaration":
		var out []*Declaration
		for _, inner := range tsparse.NamedChildren(node) {
			out = append(out, DeclarationsOf(inner, source, true)...)
		}
		return out
	case "expression_statement":
		// A bare top-level `namespace A {}` parses as an expression statement.
		if node.NamedChildCount() == 1 && node.NamedChild(0).Type() == "internal_module" {
			return DeclarationsOf(node.NamedChild(0), source, ambient)
		}
		return nil
	}

	kind, ok := KindOf(node)
	if !ok {
		return nil
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	d := &Declaration{
		Node:     node,
		NameNode: nameNode,
		Kind:     kind,
		Ambient:  ambient,
	}
	switch nameNode.Type() {
	case "string":
		d.Name = tsparse.StringValue(nameNode, source)
		d.StringNamed = true
	case "nested_identifier":
		// namespace A.B.C binds A
		first := nameNode
		for first.Type() == "nested_identifier" && first.NamedChildCount() > 0 {
			first = first.NamedChild(0)
		}
		d.NameNode = first
		d.Name = tsparse.Text(first, source)
	default:
		d.Name = tsparse.Text(nameNode, source)
	}
	return []*Declaration{d}
}
