package refs

import (
	sitter "github.com/smacker/go-tree-sitter"

	"tsprune/internal/exports"
	"tsprune/internal/tsparse"
)

// nameTypes are the node types that can refer to a binding by name.
var nameTypes = map[string]bool{
	"identifier":                    true,
	"type_identifier":               true,
	"shorthand_property_identifier": true,
}

// bindingParents are node types whose "name" child introduces a binding
// instead of referring to one.
var bindingParents = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_signature":             true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"class":                          true,
	"interface_declaration":          true,
	"type_alias_declaration":         true,
	"enum_declaration":               true,
	"internal_module":                true,
	"module":                         true,
	"variable_declarator":            true,
	"type_parameter":                 true,
	"import_specifier":               true,
	"export_specifier":               true,
	"nested_type_identifier":         true,
}

// patternParents wrap destructured bindings.
var patternParents = map[string]bool{
	"object_pattern":            true,
	"array_pattern":             true,
	"pair_pattern":              true,
	"rest_pattern":              true,
	"assignment_pattern":        true,
	"object_assignment_pattern": true,
}

// importParents hold the identifiers of import and export bookkeeping.
var importParents = map[string]bool{
	"import_clause":         true,
	"namespace_import":      true,
	"import_require_clause": true,
	"import_alias":          true,
	"namespace_export":      true,
}

// uses returns the nodes of m that refer to its top-level binding name.
func (m *module) uses(name string) []*sitter.Node {
	if m.names == nil {
		m.names = indexNames(m.file.Root(), m.source)
	}
	var out []*sitter.Node
	for _, n := range m.names[name] {
		if resolvesToTopLevel(n, name, m.source) {
			out = append(out, n)
		}
	}
	return out
}

// indexNames collects every name node in reference position, keyed by text.
func indexNames(root *sitter.Node, source []byte) map[string][]*sitter.Node {
	out := make(map[string][]*sitter.Node)
	tsparse.Walk(root, func(n *sitter.Node) bool {
		if nameTypes[n.Type()] && isReferencePosition(n) {
			text := tsparse.Text(n, source)
			out[text] = append(out[text], n)
		}
		return true
	})
	return out
}

func isReferencePosition(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	pt := p.Type()
	switch {
	case bindingParents[pt]:
		if name := p.ChildByFieldName("name"); name != nil && tsparse.Same(name, n) {
			return false
		}
		if pt == "import_specifier" || pt == "export_specifier" {
			return false
		}
	case patternParents[pt], importParents[pt]:
		return false
	case pt == "required_parameter" || pt == "optional_parameter":
		if pat := p.ChildByFieldName("pattern"); pat != nil && tsparse.Same(pat, n) {
			return false
		}
	case pt == "formal_parameters" || pt == "catch_clause":
		return false
	case pt == "arrow_function":
		if param := p.ChildByFieldName("parameter"); param != nil && tsparse.Same(param, n) {
			return false
		}
	case pt == "nested_identifier":
		// only the leftmost identifier of A.B.C refers to a binding
		if first := p.NamedChild(0); first != nil && !tsparse.Same(first, n) {
			return false
		}
	}
	return true
}

// resolvesToTopLevel walks the scopes enclosing n and reports whether none of
// them declares name before the program scope is reached. Declarations the
// walk does not recognize leave n attributed to the top-level binding.
func resolvesToTopLevel(n *sitter.Node, name string, source []byte) bool {
	for scope := n.Parent(); scope != nil; scope = scope.Parent() {
		if scope.Type() == "program" {
			return true
		}
		if declaresLocally(scope, name, source) {
			return false
		}
	}
	return true
}

func declaresLocally(scope *sitter.Node, name string, source []byte) bool {
	if tp := scope.ChildByFieldName("type_parameters"); tp != nil {
		for _, p := range tsparse.NamedChildren(tp) {
			if p.Type() == "type_parameter" && tsparse.Text(p.ChildByFieldName("name"), source) == name {
				return true
			}
		}
	}

	switch scope.Type() {
	case "statement_block", "switch_case", "switch_default":
		for _, stmt := range tsparse.NamedChildren(scope) {
			if stmt.Type() == "export_statement" {
				if decl := stmt.ChildByFieldName("declaration"); decl != nil {
					stmt = decl
				}
			}
			for _, d := range exports.DeclarationsOf(stmt, source, false) {
				if d.Name == name {
					return true
				}
			}
		}

	case "function_declaration", "generator_function_declaration", "function_expression",
		"function", "generator_function", "arrow_function", "method_definition",
		"function_signature", "method_signature", "abstract_method_signature":
		if scope.Type() != "function_declaration" && scope.Type() != "generator_function_declaration" {
			if fname := scope.ChildByFieldName("name"); fname != nil && tsparse.Text(fname, source) == name {
				return true
			}
		}
		if param := scope.ChildByFieldName("parameter"); param != nil && tsparse.Text(param, source) == name {
			return true
		}
		if params := scope.ChildByFieldName("parameters"); params != nil {
			for _, p := range tsparse.NamedChildren(params) {
				pattern := p
				if p.Type() == "required_parameter" || p.Type() == "optional_parameter" {
					pattern = p.ChildByFieldName("pattern")
				}
				if bindsName(pattern, name, source) {
					return true
				}
			}
		}

	case "class", "class_declaration", "abstract_class_declaration":
		if scope.Type() == "class" {
			if cname := scope.ChildByFieldName("name"); cname != nil && tsparse.Text(cname, source) == name {
				return true
			}
		}

	case "catch_clause":
		return bindsName(scope.ChildByFieldName("parameter"), name, source)

	case "for_statement":
		if init := scope.ChildByFieldName("initializer"); init != nil {
			for _, d := range exports.DeclarationsOf(init, source, false) {
				if d.Name == name {
					return true
				}
			}
		}

	case "for_in_statement":
		if scope.ChildByFieldName("kind") != nil {
			return bindsName(scope.ChildByFieldName("left"), name, source)
		}
	}
	return false
}

func bindsName(pattern *sitter.Node, name string, source []byte) bool {
	for _, id := range tsparse.BindingIdentifiers(pattern) {
		if tsparse.Text(id, source) == name {
			return true
		}
	}
	return false
}
