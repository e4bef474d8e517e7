package unexport

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "tsprune/internal/errors"
	"tsprune/internal/exports"
	"tsprune/internal/project"
	"tsprune/internal/slogutil"
	"tsprune/internal/testutil"
)

func loadFile(t *testing.T, content string) *project.SourceFile {
	t.Helper()
	root := testutil.WriteProject(t, map[string]string{"a.ts": content})
	p, err := project.Load(context.Background(), project.Options{Dir: root, Pattern: "./a.ts"}, slogutil.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(p.Close)
	f, ok := p.File(filepath.Join(root, "a.ts"))
	require.True(t, ok)
	return f
}

// stripNames strips the named exports of f, commits, and returns the new source.
func stripNames(t *testing.T, f *project.SourceFile, names ...string) string {
	t.Helper()
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	m := New(slogutil.NewDiscardLogger())
	for _, sym := range exports.Of(f) {
		if want[sym.Name] {
			_, err := m.Strip(sym)
			require.NoError(t, err, sym.Name)
		}
	}
	_, err := m.Commit(context.Background())
	require.NoError(t, err)
	return string(f.Source())
}

func exportedNames(f *project.SourceFile) []string {
	var out []string
	for _, s := range exports.Of(f) {
		out = append(out, s.Name)
	}
	return out
}

func TestStrip_KeywordForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		strip string
		want string
	}{
		{"function", "export function g() {}\n", "g", "function g() {}\n"},
		{"class", "export class C {}\n", "C", "class C {}\n"},
		{"interface", "export interface I { a: 1 }\n", "I", "interface I { a: 1 }\n"},
		{"type", "export type T = string;\n", "T", "type T = string;\n"},
		{"enum", "export const enum E { A }\n", "E", "const enum E { A }\n"},
		{"namespace", "export namespace N {}\n", "N", "namespace N {}\n"},
		{"default function", "export default function main() {}\n", "default", "function main() {}\n"},
		{"decorated class", "@Component()\nexport class View {}\n", "View", "@Component()\nclass View {}\n"},
		{"single variable", "export const v = 1;\n", "v", "const v = 1;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := loadFile(t, tt.src)
			got := stripNames(t, f, tt.strip)
			assert.Equal(t, tt.want, got)
			assert.True(t, f.IsDirty())
			assert.Empty(t, exportedNames(f))
		})
	}
}

func TestStrip_Overloads(t *testing.T) {
	f := loadFile(t, "export function p(a: string): void;\nexport function p(a: number): void;\nexport function p(a: any) {}\n")

	m := New(slogutil.NewDiscardLogger())
	sym := exports.Of(f)[0]
	planned, err := m.Strip(sym)
	require.NoError(t, err)
	assert.Equal(t, 3, planned)

	changed, err := m.Commit(context.Background())
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "function p(a: string): void;\nfunction p(a: number): void;\nfunction p(a: any) {}\n", string(f.Source()))
}

func TestStrip_MultiBindingStatement(t *testing.T) {
	t.Run("every binding", func(t *testing.T) {
		f := loadFile(t, "export const a = 1, b = 2;\n")
		got := stripNames(t, f, "a", "b")
		assert.Equal(t, "const a = 1, b = 2;\n", got)
	})

	t.Run("some bindings keep their export", func(t *testing.T) {
		f := loadFile(t, "export const a = 1, b = a + 1, c = 3;\n")
		got := stripNames(t, f, "a")
		assert.Equal(t, "const a = 1;\nexport const b = a + 1, c = 3;\n", got)
		assert.Equal(t, []string{"b", "c"}, exportedNames(f))
	})

	t.Run("runs keep declaration order", func(t *testing.T) {
		f := loadFile(t, "  export let x = 1, y = 2, z = 3;\n")
		got := stripNames(t, f, "y")
		assert.Equal(t, "  export let x = 1;\n  let y = 2;\n  export let z = 3;\n", got)
	})

	t.Run("partial destructuring re-exports the rest", func(t *testing.T) {
		f := loadFile(t, "export const { c, d } = obj, e = 1;\n")
		got := stripNames(t, f, "c")
		assert.Equal(t, "const { c, d } = obj;\nexport const e = 1;\nexport { d };\n", got)
		assert.ElementsMatch(t, []string{"d", "e"}, exportedNames(f))

		again := stripNames(t, f)
		assert.Equal(t, got, again)
	})

	t.Run("full destructuring", func(t *testing.T) {
		f := loadFile(t, "export const { c, d } = obj;\n")
		got := stripNames(t, f, "c", "d")
		assert.Equal(t, "const { c, d } = obj;\n", got)
	})
}

func TestStrip_ExportClause(t *testing.T) {
	t.Run("drop one specifier", func(t *testing.T) {
		f := loadFile(t, "const a = 1;\nconst b = 2;\nexport { a, b as bee };\n")
		got := stripNames(t, f, "a")
		assert.Equal(t, "const a = 1;\nconst b = 2;\nexport { b as bee };\n", got)
		assert.Equal(t, []string{"bee"}, exportedNames(f))
	})

	t.Run("drop the whole statement", func(t *testing.T) {
		f := loadFile(t, "const a = 1;\nconst b = 2;\nexport { a, b };\nconsole.log(a);\n")
		got := stripNames(t, f, "a", "b")
		assert.Equal(t, "const a = 1;\nconst b = 2;\nconsole.log(a);\n", got)
	})

	t.Run("default identifier", func(t *testing.T) {
		f := loadFile(t, "class Store {}\nexport default Store;\n")
		got := stripNames(t, f, "default")
		assert.Equal(t, "class Store {}\n", got)
	})
}

func TestStrip_RefusesUnsafeTargets(t *testing.T) {
	t.Run("unresolvable", func(t *testing.T) {
		f := loadFile(t, "export declare function f(): void;\n")
		m := New(slogutil.NewDiscardLogger())
		_, err := m.Strip(exports.Of(f)[0])
		require.Error(t, err)
		assert.True(t, errors.Is(err, tserrors.ErrUnresolvableReference))

		changed, err := m.Commit(context.Background())
		require.NoError(t, err)
		assert.Empty(t, changed)
		assert.False(t, f.IsDirty())
	})

	t.Run("anonymous default", func(t *testing.T) {
		f := loadFile(t, "export default () => 1;\n")
		sym := exports.Of(f)[0]
		sym.Resolvable = true

		_, err := New(slogutil.NewDiscardLogger()).Strip(sym)
		require.Error(t, err)
		assert.True(t, errors.Is(err, tserrors.ErrUnsupportedMutationTarget))
	})
}

func TestStrip_Idempotent(t *testing.T) {
	f := loadFile(t, "export function g() {}\nexport const keep = 1;\n")
	first := stripNames(t, f, "g")
	assert.Equal(t, []string{"keep"}, exportedNames(f))

	second := stripNames(t, f, "g")
	assert.Equal(t, first, second)
}

func TestCommit_NothingPlanned(t *testing.T) {
	f := loadFile(t, "export const a = 1;\n")
	changed, err := New(slogutil.NewDiscardLogger()).Commit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, project.Clean, f.State())
}

func TestStrip_InlineDefaultStatement(t *testing.T) {
	f := loadFile(t, "const a = 1; export default a; const b = 2;\n")
	got := stripNames(t, f, "default")
	assert.Equal(t, "const a = 1;  const b = 2;\n", got)
}
