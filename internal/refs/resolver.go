// Package refs resolves references to exported declarations across a project.
//
// The resolver builds a global index once: every import, re-export, namespace
// member access and dynamic import is followed through the export chains of
// the loaded files to the top-level binding it denotes, and every identifier
// that refers to a top-level binding is confirmed by walking its enclosing
// scopes. Queries are then lookups in that index.
package refs

import (
	"log/slog"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	tserrors "tsprune/internal/errors"
	"tsprune/internal/exports"
	"tsprune/internal/project"
	"tsprune/internal/tsparse"
)

// Form is the syntactic shape of a reference.
type Form string

const (
	// FormImport is an import specifier, default import binding or require clause.
	FormImport Form = "import"
	// FormReExport is an `export { x } from` specifier or `export * as ns from`.
	FormReExport Form = "re-export"
	// FormUse is an identifier that resolves to the binding.
	FormUse Form = "use"
	// FormNamespaceMember is `ns.x` on a namespace import.
	FormNamespaceMember Form = "namespace-member"
	// FormNamespace is a namespace binding used as a whole value.
	FormNamespace Form = "namespace"
	// FormDynamic is `import("./m")` or `require("./m")`.
	FormDynamic Form = "dynamic-import"
	// FormAugmentation is a declaration inside `declare module "./m" {}`
	// that merges with the export of the same name.
	FormAugmentation Form = "augmentation"
)

// Reference is a located use of a declaration.
type Reference struct {
	File *project.SourceFile
	Node *sitter.Node
	// Line and Col are 1-based.
	Line int
	Col  int
	Form Form
}

// key identifies a top-level binding: the file defining it and its local name.
// Anonymous default exports use the empty name.
type key struct {
	path  string
	local string
}

// Resolver answers reference queries for one snapshot of a project.
// Edits invalidate it; build a new resolver after files change.
type Resolver struct {
	project *project.Project
	logger  *slog.Logger
	modules map[string]*module
	order   []*module
	index   map[key][]Reference
}

// NewResolver scans every file of p and builds the reference index.
func NewResolver(p *project.Project, logger *slog.Logger) *Resolver {
	r := &Resolver{
		project: p,
		logger:  logger,
		modules: make(map[string]*module, len(p.Files())),
		index:   make(map[key][]Reference),
	}
	for _, f := range p.Files() {
		m := &module{
			file:    f,
			source:  f.Source(),
			exports: make(map[string]target),
			imports: make(map[string]binding),
		}
		r.modules[f.Path] = m
		r.order = append(r.order, m)
	}
	for _, m := range r.order {
		r.scan(m)
	}
	for _, m := range r.order {
		r.indexModule(m)
	}
	for k, refs := range r.index {
		r.index[k] = sortReferences(refs)
	}

	logger.Debug("Reference index built",
		"files", len(r.order),
		"bindings", len(r.index))
	return r
}

// ReferencesOf returns every reference to the binding introduced by site,
// ordered by file path and position.
func (r *Resolver) ReferencesOf(site *exports.Site) []Reference {
	refs := r.index[key{site.File.Path, site.Local}]
	out := make([]Reference, len(refs))
	copy(out, refs)
	return out
}

// HasExternalReference reports whether any site of sym is referenced from a
// file other than the one defining sym.
func (r *Resolver) HasExternalReference(sym *exports.Symbol) bool {
	for _, site := range sym.Sites {
		for _, ref := range r.index[key{site.File.Path, site.Local}] {
			if ref.File.Path != sym.File.Path {
				return true
			}
		}
	}
	return false
}

// Check returns an UnresolvableReference error when the references of sym
// cannot be computed soundly.
func (r *Resolver) Check(sym *exports.Symbol) error {
	if sym.Resolvable {
		return nil
	}
	return tserrors.Errorf(tserrors.UnresolvableReference, "%s: %s", sym.Name, sym.Reason)
}

func (r *Resolver) indexModule(m *module) {
	for _, local := range sortedNames(m.imports) {
		b := m.imports[local]
		if b.from == nil {
			continue
		}
		if b.name == namespaceName {
			r.indexNamespace(m, local, b)
			continue
		}
		keys := r.resolveExport(b.from, b.name, map[key]bool{})
		r.add(keys, m, b.node, FormImport)
		for _, use := range m.uses(local) {
			r.add(keys, m, use, FormUse)
		}
	}

	for _, re := range m.reexports {
		var keys []key
		if re.name == namespaceName {
			keys = r.allExports(re.from, map[key]bool{}, true)
		} else {
			keys = r.resolveExport(re.from, re.name, map[key]bool{})
		}
		r.add(keys, m, re.node, FormReExport)
	}

	// `export { ns }` of a namespace import hands the whole module on.
	for _, name := range sortedNames(m.exports) {
		t := m.exports[name]
		if t.from != nil {
			continue
		}
		if b, ok := m.imports[t.local]; ok && b.name == namespaceName && b.from != nil {
			r.add(r.allExports(b.from, map[key]bool{}, true), m, t.node, FormNamespace)
		}
	}

	for _, d := range m.dynamic {
		r.add(r.allExports(d.from, map[key]bool{}, true), m, d.node, FormDynamic)
	}

	for _, a := range m.augments {
		r.add(r.resolveExport(a.from, a.name, map[key]bool{}), m, a.node, FormAugmentation)
	}

	for _, name := range sortedNames(m.locals) {
		if _, shadowed := m.imports[name]; shadowed {
			continue
		}
		k := key{m.file.Path, name}
		for _, use := range m.uses(name) {
			r.addRef(k, m, use, FormUse)
		}
	}
}

// indexNamespace records the uses of a namespace binding: member accesses
// resolve to that member; any other use references every export.
func (r *Resolver) indexNamespace(m *module, local string, b binding) {
	for _, use := range m.uses(local) {
		if member, ok := namespaceMember(use, m.source); ok {
			r.add(r.resolveExport(b.from, member, map[key]bool{}), m, use, FormNamespaceMember)
			continue
		}
		r.add(r.allExports(b.from, map[key]bool{}, true), m, use, FormNamespace)
	}
}

// namespaceMember returns x for `ns.x`, `ns["x"]` and the type `ns.X`.
func namespaceMember(use *sitter.Node, source []byte) (string, bool) {
	p := use.Parent()
	if p == nil {
		return "", false
	}
	switch p.Type() {
	case "member_expression":
		if tsparse.Same(p.ChildByFieldName("object"), use) {
			if prop := p.ChildByFieldName("property"); prop != nil {
				return tsparse.Text(prop, source), true
			}
		}
	case "subscript_expression":
		idx := p.ChildByFieldName("index")
		if tsparse.Same(p.ChildByFieldName("object"), use) && idx != nil && idx.Type() == "string" {
			return tsparse.StringValue(idx, source), true
		}
	case "nested_type_identifier":
		if tsparse.Same(p.ChildByFieldName("module"), use) {
			if name := p.ChildByFieldName("name"); name != nil {
				return tsparse.Text(name, source), true
			}
		}
	case "nested_identifier":
		if p.NamedChildCount() >= 2 && tsparse.Same(p.NamedChild(0), use) {
			return tsparse.Text(p.NamedChild(1), source), true
		}
	}
	return "", false
}

// resolveExport follows m's export table, then its star exports, to the
// bindings that name denotes.
func (r *Resolver) resolveExport(m *module, name string, seen map[key]bool) []key {
	mark := key{m.file.Path, "export:" + name}
	if seen[mark] {
		return nil
	}
	seen[mark] = true

	if t, ok := m.exports[name]; ok {
		switch {
		case t.from != nil && t.name == namespaceName:
			return r.allExports(t.from, seen, true)
		case t.from != nil:
			return r.resolveExport(t.from, t.name, seen)
		default:
			return r.resolveLocal(m, t.local, seen)
		}
	}
	if name == exports.DefaultName {
		return nil
	}
	var out []key
	for _, star := range m.stars {
		out = append(out, r.resolveExport(star, name, seen)...)
	}
	return out
}

func (r *Resolver) resolveLocal(m *module, local string, seen map[key]bool) []key {
	if b, ok := m.imports[local]; ok {
		switch {
		case b.from == nil:
			return nil
		case b.name == namespaceName:
			return r.allExports(b.from, seen, true)
		default:
			return r.resolveExport(b.from, b.name, seen)
		}
	}
	return []key{{m.file.Path, local}}
}

// allExports resolves every name m exports. Star exports never carry a
// default, so withDefault is false below the first module.
func (r *Resolver) allExports(m *module, seen map[key]bool, withDefault bool) []key {
	mark := key{m.file.Path, namespaceName}
	if seen[mark] {
		return nil
	}
	seen[mark] = true

	var out []key
	for _, name := range sortedNames(m.exports) {
		if name == exports.DefaultName && !withDefault {
			continue
		}
		out = append(out, r.resolveExport(m, name, seen)...)
	}
	for _, star := range m.stars {
		out = append(out, r.allExports(star, seen, false)...)
	}
	return out
}

func (r *Resolver) add(keys []key, m *module, node *sitter.Node, form Form) {
	seen := make(map[key]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		r.addRef(k, m, node, form)
	}
}

func (r *Resolver) addRef(k key, m *module, node *sitter.Node, form Form) {
	r.index[k] = append(r.index[k], Reference{
		File: m.file,
		Node: node,
		Line: tsparse.Line(node),
		Col:  tsparse.Column(node),
		Form: form,
	})
}

func sortReferences(refs []Reference) []Reference {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].File.Path != refs[j].File.Path {
			return refs[i].File.Path < refs[j].File.Path
		}
		return refs[i].Node.StartByte() < refs[j].Node.StartByte()
	})
	out := refs[:0]
	for i, ref := range refs {
		if i > 0 {
			prev := out[len(out)-1]
			if prev.File.Path == ref.File.Path && tsparse.Same(prev.Node, ref.Node) && prev.Form == ref.Form {
				continue
			}
		}
		out = append(out, ref)
	}
	return out
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
