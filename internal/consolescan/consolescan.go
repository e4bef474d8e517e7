// Package consolescan finds and removes `console.*` expression statements.
package consolescan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"tsprune/internal/project"
	"tsprune/internal/tsparse"
)

const prefix = "console."

// Finding is one console statement.
type Finding struct {
	File *project.SourceFile
	Node *sitter.Node
	Line int
	// Statement is the callee text, e.g. "console.log".
	Statement string
}

// blockParents can lose a statement without leaving a hole in the syntax.
var blockParents = map[string]bool{
	"program":            true,
	"statement_block":    true,
	"switch_case":        true,
	"switch_default":     true,
	"class_static_block": true,
}

// Scanner scans project files for console statements.
type Scanner struct {
	logger *slog.Logger
}

// New creates a scanner.
func New(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan returns the console statements of every file of p, in file order.
// A statement nested inside another console statement is not reported: it
// goes away with its parent.
func (s *Scanner) Scan(ctx context.Context, p *project.Project) ([]Finding, error) {
	var out []Finding
	for _, f := range p.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Debug("Checking file", "path", p.Relative(f))
		out = append(out, ScanFile(f)...)
	}
	return out, nil
}

// ScanFile returns the console statements of f.
func ScanFile(f *project.SourceFile) []Finding {
	var out []Finding
	tsparse.Walk(f.Root(), func(n *sitter.Node) bool {
		if n.Type() != "expression_statement" || n.NamedChildCount() == 0 {
			return true
		}
		text := f.Text(n.NamedChild(0))
		if !strings.HasPrefix(text, prefix) {
			return true
		}
		callee, _, _ := strings.Cut(text, "(")
		out = append(out, Finding{
			File:      f,
			Node:      n,
			Line:      tsparse.Line(n),
			Statement: strings.TrimSpace(callee),
		})
		return false
	})
	return out
}

// Remove deletes the statements of findings, one batch per file, and returns
// the files that changed. A statement that is the sole body of a control
// statement is replaced by an empty statement.
func (s *Scanner) Remove(ctx context.Context, findings []Finding) ([]*project.SourceFile, error) {
	byFile := make(map[string][]Finding)
	var order []*project.SourceFile
	for _, fd := range findings {
		if _, ok := byFile[fd.File.Path]; !ok {
			order = append(order, fd.File)
		}
		byFile[fd.File.Path] = append(byFile[fd.File.Path], fd)
	}

	var changed []*project.SourceFile
	for _, f := range order {
		src := f.Source()
		edits := make([]project.Edit, 0, len(byFile[f.Path]))
		for _, fd := range byFile[f.Path] {
			s.logger.Info("Removing console statement",
				"statement", fd.Statement,
				"path", f.Path,
				"line", fd.Line)
			edits = append(edits, removal(fd.Node, src))
		}
		if err := f.ApplyEdits(ctx, edits); err != nil {
			return changed, fmt.Errorf("remove console statements from %s: %w", f.Path, err)
		}
		changed = append(changed, f)
	}
	return changed, nil
}

func removal(stmt *sitter.Node, src []byte) project.Edit {
	if p := stmt.Parent(); p != nil && !blockParents[p.Type()] {
		return project.Edit{Start: stmt.StartByte(), End: stmt.EndByte(), Text: ";"}
	}
	return project.DeleteEdit(stmt, src)
}
