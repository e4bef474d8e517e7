// Package exports enumerates the exported top-level declarations of a file.
package exports

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"tsprune/internal/project"
	"tsprune/internal/tsparse"
)

// DefaultName is the external name of a default export.
const DefaultName = "default"

// Reasons a symbol is not reference-resolvable.
const (
	ReasonDeclarationFile  = "declaration file"
	ReasonAmbient          = "ambient declaration"
	ReasonAnonymousDefault = "anonymous default export"
	ReasonExportAssignment = "file uses export assignment"
	ReasonGlobalNamespace  = "file declares a UMD global namespace"
	ReasonMergedKinds      = "declaration merged across kinds"
	ReasonStringModule     = "string-named module"
)

// Site is one declaration contributing to an exported name.
type Site struct {
	File *project.SourceFile
	// Decl is the declaration node; a variable_declarator for variables.
	Decl *sitter.Node
	// NameNode is the binding identifier, nil for anonymous defaults.
	NameNode *sitter.Node
	// Local is the binding name in the defining file, empty for anonymous defaults.
	Local string
	Kind  Kind
	// Bearer is the node carrying the export marker: the export_statement
	// for keyword exports, the export_specifier for clause exports, or the
	// `export default x;` statement.
	Bearer *sitter.Node
	// Clause is set when Bearer is separate from the declaration.
	Clause bool
	// Destructured is set when the binding comes from a destructuring pattern.
	Destructured bool
}

// Line returns the 1-based line of the declaration.
func (s *Site) Line() int {
	return tsparse.Line(s.Decl)
}

// Symbol is an exported name of a file with every declaration behind it.
type Symbol struct {
	File  *project.SourceFile
	Name  string
	Sites []*Site
	// Kind and Line come from the first site.
	Kind Kind
	Line int
	// Resolvable is false when references to the symbol cannot be computed
	// soundly; Reason says why.
	Resolvable bool
	Reason     string
}

func (s *Symbol) markUnresolvable(reason string) {
	if s.Resolvable {
		s.Resolvable = false
		s.Reason = reason
	}
}

type enumerator struct {
	file       *project.SourceFile
	source     []byte
	locals     map[string][]*Declaration
	imported   map[string]bool
	byName     map[string]*Symbol
	symbols    []*Symbol
	fileReason string
}

// Of returns the exported symbols of f in declaration order. Names declared
// more than once (overloads, merged interfaces) become one symbol with
// several sites. Re-exports are not declarations of f and are omitted.
func Of(f *project.SourceFile) []*Symbol {
	root := f.Root()
	e := &enumerator{
		file:     f,
		source:   f.Source(),
		locals:   Declarations(root, f.Source()),
		imported: importedNames(root, f.Source()),
		byName:   make(map[string]*Symbol),
	}
	if f.IsDeclarationFile() {
		e.fileReason = ReasonDeclarationFile
	}

	for _, stmt := range tsparse.NamedChildren(root) {
		if stmt.Type() == "export_statement" {
			e.exportStatement(stmt)
		}
	}
	return e.finish()
}

func (e *enumerator) exportStatement(stmt *sitter.Node) {
	if stmt.ChildByFieldName("source") != nil {
		return
	}
	if tsparse.HasChildOfType(stmt, "=") {
		e.fileReason = ReasonExportAssignment
		return
	}
	if tsparse.HasChildOfType(stmt, "namespace") && tsparse.HasChildOfType(stmt, "as") {
		e.fileReason = ReasonGlobalNamespace
		return
	}

	isDefault := tsparse.HasChildOfType(stmt, "default")
	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		e.declaration(stmt, decl, isDefault)
		return
	}
	if isDefault {
		e.defaultValue(stmt, stmt.ChildByFieldName("value"))
		return
	}
	if clause := tsparse.FirstChildOfType(stmt, "export_clause"); clause != nil {
		for _, spec := range tsparse.NamedChildren(clause) {
			if spec.Type() == "export_specifier" {
				e.specifier(spec)
			}
		}
	}
}

// declaration handles `export <declaration>` and `export default <named declaration>`.
func (e *enumerator) declaration(stmt, decl *sitter.Node, isDefault bool) {
	decls := DeclarationsOf(decl, e.source, false)
	if len(decls) == 0 {
		if isDefault {
			e.anonymousDefault(stmt, decl)
		}
		return
	}
	for _, d := range decls {
		name := d.Name
		if isDefault {
			name = DefaultName
		}
		e.add(name, &Site{
			File:         e.file,
			Decl:         d.Node,
			NameNode:     d.NameNode,
			Local:        d.Name,
			Kind:         d.Kind,
			Bearer:       stmt,
			Destructured: d.Destructured,
		}, declarationReason(d))
	}
}

// defaultValue handles `export default <expression>;`.
func (e *enumerator) defaultValue(stmt, value *sitter.Node) {
	if value != nil && value.Type() == "identifier" {
		local := tsparse.Text(value, e.source)
		if e.imported[local] {
			return
		}
		if decls := e.locals[local]; len(decls) > 0 {
			for _, d := range decls {
				e.add(DefaultName, e.clauseSite(stmt, d), declarationReason(d))
			}
			return
		}
	}
	e.anonymousDefault(stmt, value)
}

func (e *enumerator) anonymousDefault(stmt, value *sitter.Node) {
	decl := value
	if decl == nil {
		decl = stmt
	}
	e.add(DefaultName, &Site{
		File:   e.file,
		Decl:   decl,
		Kind:   valueKind(decl),
		Bearer: stmt,
	}, ReasonAnonymousDefault)
}

// specifier handles one `name as alias` entry of a local export clause.
func (e *enumerator) specifier(spec *sitter.Node) {
	local := tsparse.ModuleExportName(spec.ChildByFieldName("name"), e.source)
	external := local
	if alias := spec.ChildByFieldName("alias"); alias != nil {
		external = tsparse.ModuleExportName(alias, e.source)
	}
	if e.imported[local] {
		return
	}
	for _, d := range e.locals[local] {
		e.add(external, e.clauseSite(spec, d), declarationReason(d))
	}
}

func (e *enumerator) clauseSite(bearer *sitter.Node, d *Declaration) *Site {
	return &Site{
		File:         e.file,
		Decl:         d.Node,
		NameNode:     d.NameNode,
		Local:        d.Name,
		Kind:         d.Kind,
		Bearer:       bearer,
		Clause:       true,
		Destructured: d.Destructured,
	}
}

func (e *enumerator) add(name string, site *Site, reason string) {
	sym, ok := e.byName[name]
	if !ok {
		sym = &Symbol{File: e.file, Name: name, Resolvable: true}
		e.byName[name] = sym
		e.symbols = append(e.symbols, sym)
	}
	sym.Sites = append(sym.Sites, site)
	if reason != "" {
		sym.markUnresolvable(reason)
	}
}

func (e *enumerator) finish() []*Symbol {
	for _, sym := range e.symbols {
		sort.SliceStable(sym.Sites, func(i, j int) bool {
			return sym.Sites[i].Decl.StartByte() < sym.Sites[j].Decl.StartByte()
		})
		first := sym.Sites[0]
		sym.Kind = first.Kind
		sym.Line = first.Line()

		if e.fileReason != "" {
			sym.markUnresolvable(e.fileReason)
		}
		if e.mergedAcrossKinds(sym) {
			sym.markUnresolvable(ReasonMergedKinds)
		}
	}
	sort.SliceStable(e.symbols, func(i, j int) bool {
		return e.symbols[i].Sites[0].Decl.StartByte() < e.symbols[j].Sites[0].Decl.StartByte()
	})
	return e.symbols
}

// mergedAcrossKinds reports whether the symbol's sites, or other top-level
// declarations sharing a local name with them, differ in kind.
func (e *enumerator) mergedAcrossKinds(sym *Symbol) bool {
	kind := sym.Sites[0].Kind
	for _, s := range sym.Sites {
		if s.Kind != kind {
			return true
		}
		if s.Local == "" {
			continue
		}
		for _, d := range e.locals[s.Local] {
			if d.Kind != kind {
				return true
			}
		}
	}
	return false
}

func declarationReason(d *Declaration) string {
	switch {
	case d.StringNamed:
		return ReasonStringModule
	case d.Ambient:
		return ReasonAmbient
	}
	return ""
}

func valueKind(n *sitter.Node) Kind {
	switch n.Type() {
	case "function", "function_expression", "arrow_function", "generator_function",
		"function_declaration", "generator_function_declaration":
		return KindFunction
	case "class", "class_declaration", "abstract_class_declaration":
		return KindClass
	}
	return KindVariable
}

// importedNames returns the local names bound by the file's import statements.
func importedNames(root *sitter.Node, source []byte) map[string]bool {
	out := make(map[string]bool)
	for _, stmt := range tsparse.NamedChildren(root) {
		switch stmt.Type() {
		case "import_statement":
			clause := tsparse.FirstChildOfType(stmt, "import_clause")
			if clause == nil {
				if req := tsparse.FirstChildOfType(stmt, "import_require_clause"); req != nil {
					if id := tsparse.FirstChildOfType(req, "identifier"); id != nil {
						out[tsparse.Text(id, source)] = true
					}
				}
				continue
			}
			for _, id := range ImportClauseBindings(clause) {
				out[tsparse.Text(id.Local, source)] = true
			}
		case "import_alias":
			if id := tsparse.FirstChildOfType(stmt, "identifier"); id != nil {
				out[tsparse.Text(id, source)] = true
			}
		}
	}
	return out
}

// ImportBinding is one local binding introduced by an import clause.
type ImportBinding struct {
	// Local is the bound identifier.
	Local *sitter.Node
	// Imported is the imported name node; nil for default and namespace imports.
	Imported *sitter.Node
	// Node is the specifier, identifier or namespace_import node.
	Node      *sitter.Node
	Default   bool
	Namespace bool
}

// ImportClauseBindings returns the bindings of an import_clause.
func ImportClauseBindings(clause *sitter.Node) []ImportBinding {
	var out []ImportBinding
	for _, c := range tsparse.NamedChildren(clause) {
		switch c.Type() {
		case "identifier":
			out = append(out, ImportBinding{Local: c, Node: c, Default: true})
		case "namespace_import":
			if id := tsparse.FirstChildOfType(c, "identifier"); id != nil {
				out = append(out, ImportBinding{Local: id, Node: c, Namespace: true})
			}
		case "named_imports":
			for _, spec := range tsparse.NamedChildren(c) {
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				local := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = alias
				}
				out = append(out, ImportBinding{Local: local, Imported: name, Node: spec})
			}
		}
	}
	return out
}
