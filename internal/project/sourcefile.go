package project

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	tserrors "tsprune/internal/errors"
	"tsprune/internal/tsparse"
)

// State is the lifecycle state of a SourceFile within one run.
type State int

const (
	// Loaded means parsed and not yet touched by the mutator.
	Loaded State = iota
	// Clean means the file has no pending edits.
	Clean
	// Dirty means the in-memory tree differs from the file on disk.
	Dirty
	// Serialized is terminal: the file was written or skipped at the end of the run.
	Serialized
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Serialized:
		return "serialized"
	}
	return "unknown"
}

// Edit replaces Source[Start:End] with Text.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

// SourceFile is one parsed file of the analyzed set.
type SourceFile struct {
	// Path is the absolute file path; it is the file's identity.
	Path     string
	Language tsparse.Language

	source   []byte
	original []byte
	tree     *sitter.Tree
	parser   *tsparse.Parser
	state    State
	mode     os.FileMode
}

// Source returns the current (possibly edited) source bytes.
func (f *SourceFile) Source() []byte { return f.source }

// Original returns the bytes read from disk at load time.
func (f *SourceFile) Original() []byte { return f.original }

// Root returns the root node of the current tree.
func (f *SourceFile) Root() *sitter.Node { return f.tree.RootNode() }

// State returns the lifecycle state.
func (f *SourceFile) State() State { return f.state }

// IsDirty reports whether the file has unsaved edits.
func (f *SourceFile) IsDirty() bool { return f.state == Dirty }

// IsDeclarationFile reports whether this is a ".d.ts" style file.
func (f *SourceFile) IsDeclarationFile() bool { return tsparse.IsDeclarationFile(f.Path) }

// Text returns the source text of node.
func (f *SourceFile) Text(node *sitter.Node) string { return tsparse.Text(node, f.source) }

func (f *SourceFile) parse(ctx context.Context) error {
	tree, err := f.parser.Parse(ctx, f.source, f.Language)
	if err != nil {
		return tserrors.New(tserrors.ParseFailed, "failed to parse "+f.Path, err)
	}
	if f.tree != nil {
		f.tree.Close()
	}
	f.tree = tree
	return nil
}

// ApplyEdits applies non-overlapping byte edits, reparses the file and marks it dirty.
// Nodes obtained before the call are invalid afterwards.
func (f *SourceFile) ApplyEdits(ctx context.Context, edits []Edit) error {
	if f.state == Serialized {
		return tserrors.Errorf(tserrors.InternalError, "%s was already serialized", f.Path)
	}
	if len(edits) == 0 {
		return nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var buf bytes.Buffer
	buf.Grow(len(f.source))
	last := uint32(0)
	for i, e := range sorted {
		if e.Start > e.End || int(e.End) > len(f.source) {
			return tserrors.Errorf(tserrors.InternalError, "edit [%d,%d) out of range in %s", e.Start, e.End, f.Path)
		}
		if i > 0 && e.Start < sorted[i-1].End {
			return tserrors.Errorf(tserrors.InternalError, "overlapping edits at byte %d in %s", e.Start, f.Path)
		}
		buf.Write(f.source[last:e.Start])
		buf.WriteString(e.Text)
		last = e.End
	}
	buf.Write(f.source[last:])

	previous := f.source
	f.source = buf.Bytes()
	if err := f.parse(ctx); err != nil {
		f.source = previous
		return fmt.Errorf("reparse after edit: %w", err)
	}
	f.state = Dirty
	return nil
}

// save writes a dirty file in place and marks the file serialized.
// Clean files are marked serialized without touching the disk.
func (f *SourceFile) save() (bool, error) {
	if f.state == Serialized {
		return false, nil
	}
	wrote := false
	if f.state == Dirty && !bytes.Equal(f.source, f.original) {
		if err := os.WriteFile(f.Path, f.source, f.mode.Perm()); err != nil {
			return false, tserrors.New(tserrors.WriteFailed, "failed to write "+f.Path, err)
		}
		wrote = true
	}
	f.state = Serialized
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
	return wrote, nil
}
