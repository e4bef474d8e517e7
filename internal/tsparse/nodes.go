package tsparse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Text returns the source text covered by node.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Line returns the 1-based start line of node.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// Column returns the 1-based start column of node.
func Column(node *sitter.Node) int {
	return int(node.StartPoint().Column) + 1
}

// Same reports whether a and b denote the same node of one tree.
// Node values are re-materialized on every traversal, so pointer equality is useless.
func Same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// Children returns all children of node, named and anonymous.
func Children(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.ChildCount())
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children of node.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfType returns the first direct child (named or not) of the given type.
func FirstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for _, c := range Children(node) {
		if c.Type() == typ {
			return c
		}
	}
	return nil
}

// HasChildOfType reports whether node has a direct child of the given type.
func HasChildOfType(node *sitter.Node, typ string) bool {
	return FirstChildOfType(node, typ) != nil
}

// Walk visits node and its descendants in document order.
// Returning false from visit skips the node's subtree.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(i), visit)
	}
}

// FindNodes finds all nodes of the given types under root.
func FindNodes(root *sitter.Node, types ...string) []*sitter.Node {
	if len(types) == 0 {
		return nil
	}

	var result []*sitter.Node
	Walk(root, func(n *sitter.Node) bool {
		for _, t := range types {
			if n.Type() == t {
				result = append(result, n)
				break
			}
		}
		return true
	})
	return result
}

// StringValue returns the contents of a string literal node without its quotes.
func StringValue(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if frag := FirstChildOfType(node, "string_fragment"); frag != nil {
		return Text(frag, source)
	}
	return strings.Trim(Text(node, source), "\"'`")
}

// ModuleExportName returns the text of an identifier, keyword or string used as
// an import/export name.
func ModuleExportName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if node.Type() == "string" {
		return StringValue(node, source)
	}
	return Text(node, source)
}

// BindingIdentifiers returns the identifiers bound by a binding pattern:
// a plain identifier, or the leaves of object/array destructuring.
func BindingIdentifiers(pattern *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "identifier", "shorthand_property_identifier_pattern":
			out = append(out, n)
		case "object_pattern", "array_pattern", "rest_pattern":
			for _, c := range NamedChildren(n) {
				visit(c)
			}
		case "pair_pattern":
			visit(n.ChildByFieldName("value"))
		case "object_assignment_pattern", "assignment_pattern":
			visit(n.ChildByFieldName("left"))
		}
	}
	visit(pattern)
	return out
}
