// Package unexport removes export markers from declarations.
//
// Stripping happens in two phases. Strip validates a symbol and records the
// edits it needs against the current trees; Commit turns the records of each
// file into one batch of byte edits and reparses the file once. Nodes held by
// callers are stale after Commit.
package unexport

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	tserrors "tsprune/internal/errors"
	"tsprune/internal/exports"
	"tsprune/internal/project"
	"tsprune/internal/tsparse"
)

// Mutator collects strip requests and applies them per file.
type Mutator struct {
	logger *slog.Logger
	plans  map[string]*filePlan
	order  []*filePlan
}

// filePlan holds the pending edits of one file, keyed by node start byte.
type filePlan struct {
	file *project.SourceFile
	// keywords are export_statements whose export keyword goes away.
	keywords map[uint32]*sitter.Node
	// variables are exported variable statements with the bindings to unexport.
	variables map[uint32]*variablePlan
	// specifiers are export_specifiers to drop from their clause.
	specifiers map[uint32]*sitter.Node
	// statements are `export default x;` statements to delete.
	statements map[uint32]*sitter.Node
}

type variablePlan struct {
	stmt     *sitter.Node
	names    map[string]bool
	declared *sitter.Node
}

// New creates a mutator with nothing planned.
func New(logger *slog.Logger) *Mutator {
	return &Mutator{
		logger: logger,
		plans:  make(map[string]*filePlan),
	}
}

// Strip plans the removal of sym's export marker at every site and returns
// the number of sites planned. A symbol is planned whole or not at all: any
// unsupported site fails the call with an UnsupportedMutationTarget error.
func (m *Mutator) Strip(sym *exports.Symbol) (int, error) {
	if !sym.Resolvable {
		return 0, tserrors.Errorf(tserrors.UnresolvableReference, "%s: %s", sym.Name, sym.Reason)
	}
	for _, site := range sym.Sites {
		if err := checkSite(site); err != nil {
			return 0, fmt.Errorf("%s: %w", sym.Name, err)
		}
	}

	plan := m.plan(sym.File)
	for _, site := range sym.Sites {
		switch {
		case site.Clause && site.Bearer.Type() == "export_specifier":
			plan.specifiers[site.Bearer.StartByte()] = site.Bearer
		case site.Clause:
			plan.statements[site.Bearer.StartByte()] = site.Bearer
		case site.Decl.Type() == "variable_declarator":
			vp, ok := plan.variables[site.Bearer.StartByte()]
			if !ok {
				vp = &variablePlan{
					stmt:     site.Bearer,
					names:    make(map[string]bool),
					declared: site.Bearer.ChildByFieldName("declaration"),
				}
				plan.variables[site.Bearer.StartByte()] = vp
			}
			vp.names[site.Local] = true
		default:
			plan.keywords[site.Bearer.StartByte()] = site.Bearer
		}
	}

	m.logger.Info("Removing export",
		"kind", string(sym.Kind),
		"name", sym.Name,
		"path", sym.File.Path)
	return len(sym.Sites), nil
}

// checkSite verifies that the site's export marker can be toggled.
func checkSite(site *exports.Site) error {
	if site.NameNode == nil || site.Local == "" {
		return tserrors.Errorf(tserrors.UnsupportedMutationTarget, "anonymous declaration")
	}
	if site.Clause {
		switch site.Bearer.Type() {
		case "export_specifier", "export_statement":
			return nil
		}
		return tserrors.Errorf(tserrors.UnsupportedMutationTarget, "export marker on %s", site.Bearer.Type())
	}
	bearer, ok := exports.ExportBearingNode(site.Decl)
	if !ok || !tsparse.Same(bearer, site.Bearer) {
		return tserrors.Errorf(tserrors.UnsupportedMutationTarget, "%s is not under an export statement", site.Decl.Type())
	}
	if tsparse.FirstChildOfType(bearer, "export") == nil || bearer.ChildByFieldName("declaration") == nil {
		return tserrors.Errorf(tserrors.UnsupportedMutationTarget, "export statement without keyword")
	}
	return nil
}

func (m *Mutator) plan(f *project.SourceFile) *filePlan {
	if p, ok := m.plans[f.Path]; ok {
		return p
	}
	p := &filePlan{
		file:       f,
		keywords:   make(map[uint32]*sitter.Node),
		variables:  make(map[uint32]*variablePlan),
		specifiers: make(map[uint32]*sitter.Node),
		statements: make(map[uint32]*sitter.Node),
	}
	m.plans[f.Path] = p
	m.order = append(m.order, p)
	return p
}

// Commit applies every planned edit, one batch per file, and returns the
// files that changed. The plan is cleared afterwards.
func (m *Mutator) Commit(ctx context.Context) ([]*project.SourceFile, error) {
	var changed []*project.SourceFile
	for _, p := range m.order {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		edits := m.edits(p)
		if len(edits) == 0 {
			continue
		}
		if err := p.file.ApplyEdits(ctx, edits); err != nil {
			return changed, fmt.Errorf("unexport %s: %w", p.file.Path, err)
		}
		m.logger.Debug("Committed export edits",
			"path", p.file.Path,
			"edits", len(edits))
		changed = append(changed, p.file)
	}
	m.plans = make(map[string]*filePlan)
	m.order = nil
	return changed, nil
}

func (m *Mutator) edits(p *filePlan) []project.Edit {
	src := p.file.Source()
	var edits []project.Edit

	for _, stmt := range sortedNodes(p.keywords) {
		edits = append(edits, keywordEdit(stmt))
	}
	for _, start := range sortedKeys(p.variables) {
		if e, ok := m.variableEdit(p.variables[start], src); ok {
			edits = append(edits, e)
		}
	}
	for _, stmt := range sortedNodes(p.statements) {
		edits = append(edits, project.DeleteEdit(stmt, src))
	}
	edits = append(edits, specifierEdits(p.specifiers, src)...)
	return edits
}

// keywordEdit deletes from the export keyword up to the declaration, which
// covers `export default` too and leaves decorators in place.
func keywordEdit(stmt *sitter.Node) project.Edit {
	return project.Edit{
		Start: tsparse.FirstChildOfType(stmt, "export").StartByte(),
		End:   stmt.ChildByFieldName("declaration").StartByte(),
	}
}

// variableEdit unexports the planned bindings of one variable statement. When
// every declarator goes, only the keyword is removed. Otherwise the statement
// is split into runs of consecutive declarators, in their original order, with
// the export keyword kept on the runs that stay exported. A destructuring
// pattern with only some names planned loses its keyword too; the rest of its
// names are exported again by an `export { ... };` clause after the statement.
func (m *Mutator) variableEdit(vp *variablePlan, src []byte) (project.Edit, bool) {
	var declarators []*sitter.Node
	for _, d := range tsparse.NamedChildren(vp.declared) {
		if d.Type() == "variable_declarator" {
			declarators = append(declarators, d)
		}
	}

	strip := make([]bool, len(declarators))
	var reexported []string
	all, some := true, false
	for i, d := range declarators {
		ids := tsparse.BindingIdentifiers(d.ChildByFieldName("name"))
		var rest []string
		for _, id := range ids {
			if name := tsparse.Text(id, src); !vp.names[name] {
				rest = append(rest, name)
			}
		}
		switch {
		case len(rest) == 0:
			strip[i] = true
			some = true
		case len(rest) < len(ids):
			strip[i] = true
			some = true
			all = false
			reexported = append(reexported, rest...)
		default:
			all = false
		}
	}

	switch {
	case !some:
		return project.Edit{}, false
	case all:
		return keywordEdit(vp.stmt), true
	}

	exportPrefix := string(src[tsparse.FirstChildOfType(vp.stmt, "export").StartByte():vp.declared.StartByte()])
	keyword := string(src[vp.declared.StartByte():declarators[0].StartByte()])
	indent := lineIndent(src, vp.stmt.StartByte())

	var runs []string
	for i := 0; i < len(declarators); {
		j := i
		var parts []string
		for ; j < len(declarators) && strip[j] == strip[i]; j++ {
			parts = append(parts, tsparse.Text(declarators[j], src))
		}
		prefix := keyword
		if !strip[i] {
			prefix = exportPrefix + keyword
		}
		runs = append(runs, prefix+strings.Join(parts, ", ")+";")
		i = j
	}
	if len(reexported) > 0 {
		runs = append(runs, "export { "+strings.Join(reexported, ", ")+" };")
		m.logger.Debug("Re-exporting destructured bindings",
			"names", reexported,
			"line", tsparse.Line(vp.stmt))
	}

	return project.Edit{
		Start: vp.stmt.StartByte(),
		End:   vp.stmt.EndByte(),
		Text:  strings.Join(runs, "\n"+indent),
	}, true
}

// specifierEdits drops specifiers from their export clauses; a clause left
// empty takes its whole statement with it.
func specifierEdits(specs map[uint32]*sitter.Node, src []byte) []project.Edit {
	byClause := make(map[uint32][]*sitter.Node)
	clauses := make(map[uint32]*sitter.Node)
	for _, spec := range specs {
		clause := spec.Parent()
		byClause[clause.StartByte()] = append(byClause[clause.StartByte()], spec)
		clauses[clause.StartByte()] = clause
	}

	var edits []project.Edit
	for _, start := range sortedKeys(clauses) {
		clause := clauses[start]
		drop := make(map[uint32]bool)
		for _, s := range byClause[start] {
			drop[s.StartByte()] = true
		}

		var kept []string
		for _, s := range tsparse.NamedChildren(clause) {
			if s.Type() == "export_specifier" && !drop[s.StartByte()] {
				kept = append(kept, tsparse.Text(s, src))
			}
		}
		if len(kept) == 0 {
			edits = append(edits, project.DeleteEdit(clause.Parent(), src))
			continue
		}
		edits = append(edits, project.Edit{
			Start: clause.StartByte(),
			End:   clause.EndByte(),
			Text:  "{ " + strings.Join(kept, ", ") + " }",
		})
	}
	return edits
}

func lineIndent(src []byte, at uint32) string {
	start := at
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < at && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

func sortedNodes(m map[uint32]*sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	out := make([]uint32, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
