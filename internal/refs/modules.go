package refs

import (
	sitter "github.com/smacker/go-tree-sitter"

	"tsprune/internal/exports"
	"tsprune/internal/project"
	"tsprune/internal/tsparse"
)

// namespaceName marks a binding or re-export that stands for a whole module.
const namespaceName = "*"

// target is one entry of a module's export table.
type target struct {
	// local is the binding exported from this module when from is nil.
	local string
	// from and name describe a re-export; name is namespaceName for `export * as ns`.
	from *module
	name string
	node *sitter.Node
}

// binding is a local name introduced by an import.
type binding struct {
	// from is nil when the specifier does not resolve to a loaded file.
	from *module
	// name is the imported name, namespaceName for namespace imports.
	name string
	node *sitter.Node
}

// reexport is one `export ... from` edge that counts as a reference.
type reexport struct {
	node *sitter.Node
	from *module
	name string
}

type dynamicImport struct {
	node *sitter.Node
	from *module
}

// augmentation is a declaration inside `declare module "./x" {}` that merges
// with the export of the same name in x.
type augmentation struct {
	node *sitter.Node
	from *module
	name string
}

// module is the resolver's view of one source file.
type module struct {
	file   *project.SourceFile
	source []byte

	exports   map[string]target
	stars     []*module
	imports   map[string]binding
	locals    map[string][]*exports.Declaration
	reexports []reexport
	dynamic   []dynamicImport
	augments  []augmentation

	// names is built lazily by uses.
	names map[string][]*sitter.Node
}

func (r *Resolver) scan(m *module) {
	root := m.file.Root()
	m.locals = exports.Declarations(root, m.source)

	for _, stmt := range tsparse.NamedChildren(root) {
		switch stmt.Type() {
		case "import_statement":
			r.scanImport(m, stmt)
		case "export_statement":
			r.scanExport(m, stmt)
		case "ambient_declaration":
			r.scanAugmentation(m, stmt)
		}
	}

	for _, call := range tsparse.FindNodes(root, "call_expression") {
		if spec, ok := dynamicSpecifier(call, m.source); ok {
			if from := r.resolveModule(m, spec); from != nil {
				m.dynamic = append(m.dynamic, dynamicImport{node: call, from: from})
			}
		}
	}
}

func (r *Resolver) scanImport(m *module, stmt *sitter.Node) {
	if req := tsparse.FirstChildOfType(stmt, "import_require_clause"); req != nil {
		id := tsparse.FirstChildOfType(req, "identifier")
		src := req.ChildByFieldName("source")
		if id != nil && src != nil {
			m.imports[tsparse.Text(id, m.source)] = binding{
				from: r.resolveModule(m, tsparse.StringValue(src, m.source)),
				name: namespaceName,
				node: req,
			}
		}
		return
	}

	clause := tsparse.FirstChildOfType(stmt, "import_clause")
	src := stmt.ChildByFieldName("source")
	if clause == nil || src == nil {
		return
	}
	from := r.resolveModule(m, tsparse.StringValue(src, m.source))
	for _, b := range exports.ImportClauseBindings(clause) {
		name := exports.DefaultName
		switch {
		case b.Namespace:
			name = namespaceName
		case b.Imported != nil:
			name = tsparse.ModuleExportName(b.Imported, m.source)
		}
		m.imports[tsparse.Text(b.Local, m.source)] = binding{from: from, name: name, node: b.Node}
	}
}

func (r *Resolver) scanExport(m *module, stmt *sitter.Node) {
	if src := stmt.ChildByFieldName("source"); src != nil {
		from := r.resolveModule(m, tsparse.StringValue(src, m.source))
		switch {
		case tsparse.HasChildOfType(stmt, "export_clause"):
			clause := tsparse.FirstChildOfType(stmt, "export_clause")
			for _, spec := range tsparse.NamedChildren(clause) {
				if spec.Type() != "export_specifier" {
					continue
				}
				name, external := specifierNames(spec, m.source)
				m.exports[external] = target{from: from, name: name, node: spec}
				if from != nil {
					m.reexports = append(m.reexports, reexport{node: spec, from: from, name: name})
				}
			}
		case tsparse.HasChildOfType(stmt, "namespace_export"):
			ns := tsparse.FirstChildOfType(stmt, "namespace_export")
			if id := ns.NamedChild(0); id != nil {
				m.exports[tsparse.ModuleExportName(id, m.source)] = target{from: from, name: namespaceName, node: ns}
			}
			if from != nil {
				m.reexports = append(m.reexports, reexport{node: ns, from: from, name: namespaceName})
			}
		default:
			if from != nil {
				m.stars = append(m.stars, from)
			}
		}
		return
	}

	isDefault := tsparse.HasChildOfType(stmt, "default")
	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		decls := exports.DeclarationsOf(decl, m.source, false)
		if isDefault {
			local := ""
			if len(decls) > 0 {
				local = decls[0].Name
			}
			m.exports[exports.DefaultName] = target{local: local, node: decl}
			return
		}
		for _, d := range decls {
			m.exports[d.Name] = target{local: d.Name, node: d.NameNode}
		}
		return
	}
	if isDefault {
		value := stmt.ChildByFieldName("value")
		local := ""
		if value != nil && value.Type() == "identifier" {
			local = tsparse.Text(value, m.source)
		}
		m.exports[exports.DefaultName] = target{local: local, node: stmt}
		return
	}
	if clause := tsparse.FirstChildOfType(stmt, "export_clause"); clause != nil {
		for _, spec := range tsparse.NamedChildren(clause) {
			if spec.Type() != "export_specifier" {
				continue
			}
			name, external := specifierNames(spec, m.source)
			m.exports[external] = target{local: name, node: spec}
		}
	}
}

// scanAugmentation records the declarations of a module augmentation whose
// name resolves to a loaded file.
func (r *Resolver) scanAugmentation(m *module, stmt *sitter.Node) {
	mod := tsparse.FirstChildOfType(stmt, "module")
	if mod == nil {
		return
	}
	name := mod.ChildByFieldName("name")
	body := mod.ChildByFieldName("body")
	if name == nil || body == nil || name.Type() != "string" {
		return
	}
	from := r.resolveModule(m, tsparse.StringValue(name, m.source))
	if from == nil {
		return
	}
	for _, inner := range tsparse.NamedChildren(body) {
		node := inner
		if inner.Type() == "export_statement" {
			if node = inner.ChildByFieldName("declaration"); node == nil {
				continue
			}
		}
		for _, d := range exports.DeclarationsOf(node, m.source, true) {
			m.augments = append(m.augments, augmentation{node: d.NameNode, from: from, name: d.Name})
		}
	}
}

func (r *Resolver) resolveModule(m *module, specifier string) *module {
	f, ok := r.project.ResolveModule(m.file, specifier)
	if !ok {
		return nil
	}
	return r.modules[f.Path]
}

func specifierNames(spec *sitter.Node, source []byte) (name, external string) {
	name = tsparse.ModuleExportName(spec.ChildByFieldName("name"), source)
	external = name
	if alias := spec.ChildByFieldName("alias"); alias != nil {
		external = tsparse.ModuleExportName(alias, source)
	}
	return name, external
}

// dynamicSpecifier returns the module of `import("x")` or `require("x")`
// when the argument is a string literal.
func dynamicSpecifier(call *sitter.Node, source []byte) (string, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch {
	case fn.Type() == "import":
	case fn.Type() == "identifier" && tsparse.Text(fn, source) == "require":
	default:
		return "", false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return "", false
	}
	arg := args.NamedChild(0)
	if arg.Type() != "string" {
		return "", false
	}
	return tsparse.StringValue(arg, source), true
}
