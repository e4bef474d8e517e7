// Package diff renders pending source edits as unified patches.
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"tsprune/internal/project"
)

// DefaultContext is the number of context lines around each hunk.
const DefaultContext = 3

// Options controls patch generation.
type Options struct {
	// Context lines per hunk; 0 means DefaultContext.
	Context int
	// MaxBytes caps old+new input size; larger files get a placeholder patch.
	// 0 means no limit.
	MaxBytes int
}

// FileDiff is the patch of one edited file.
type FileDiff struct {
	Path     string
	Patch    string
	Oversize bool
}

// Unified produces a unified patch from a to b. It returns the empty string
// when the inputs are equal.
func Unified(aName, bName string, a, b []byte, opt Options) (patch string, oversize bool) {
	if string(a) == string(b) {
		return "", false
	}
	if opt.MaxBytes > 0 && len(a)+len(b) > opt.MaxBytes {
		return omitted(aName, bName), true
	}

	ctx := opt.Context
	if ctx <= 0 {
		ctx = DefaultContext
	}
	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(string(a)),
		B:        splitLines(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  ctx,
	})
	if err != nil || s == "" {
		return omitted(aName, bName), false
	}
	return s, false
}

// Project returns the patches of every dirty file of p, comparing the bytes
// read at load time with the edited source.
func Project(p *project.Project, opt Options) []FileDiff {
	var out []FileDiff
	for _, f := range p.DirtyFiles() {
		rel := strings.TrimPrefix(p.Relative(f), "./")
		patch, oversize := Unified("a/"+rel, "b/"+rel, f.Original(), f.Source(), opt)
		if patch == "" {
			continue
		}
		out = append(out, FileDiff{Path: p.Relative(f), Patch: patch, Oversize: oversize})
	}
	return out
}

// splitLines splits s after each newline, keeping the newline characters.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", aName, bName)
}
