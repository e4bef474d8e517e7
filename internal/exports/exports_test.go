package exports

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsprune/internal/project"
	"tsprune/internal/slogutil"
	"tsprune/internal/testutil"
	"tsprune/internal/tsparse"
)

func symbolsOf(t *testing.T, name, content string) []*Symbol {
	t.Helper()
	root := testutil.WriteProject(t, map[string]string{name: content})
	p, err := project.Load(context.Background(), project.Options{Dir: root, Pattern: "./" + name}, slogutil.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(p.Close)

	f, ok := p.File(filepath.Join(root, filepath.FromSlash(name)))
	require.True(t, ok)
	return Of(f)
}

type summary struct {
	Name       string
	Kind       Kind
	Line       int
	Sites      int
	Resolvable bool
}

func summarize(symbols []*Symbol) []summary {
	out := make([]summary, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, summary{s.Name, s.Kind, s.Line, len(s.Sites), s.Resolvable})
	}
	return out
}

func TestOf_DeclarationForms(t *testing.T) {
	src := `export function f() {}
export function* gen() {}
export class C {}
export abstract class A {}
export interface I { x: number }
export type T = string;
export enum E { One }
export namespace N { export const inner = 1; }
export const v = 1;
export let l = 2;
export var w = 3;
function notExported() {}
`
	got := summarize(symbolsOf(t, "a.ts", src))

	assert.Equal(t, []summary{
		{"f", KindFunction, 1, 1, true},
		{"gen", KindFunction, 2, 1, true},
		{"C", KindClass, 3, 1, true},
		{"A", KindClass, 4, 1, true},
		{"I", KindInterface, 5, 1, true},
		{"T", KindTypeAlias, 6, 1, true},
		{"E", KindEnum, 7, 1, true},
		{"N", KindNamespace, 8, 1, true},
		{"v", KindVariable, 9, 1, true},
		{"l", KindVariable, 10, 1, true},
		{"w", KindVariable, 11, 1, true},
	}, got)
}

func TestOf_OverloadsMerge(t *testing.T) {
	src := `export function parse(input: string): number;
export function parse(input: number): number;
export function parse(input: any): number {
  return Number(input);
}
`
	symbols := symbolsOf(t, "a.ts", src)

	require.Len(t, symbols, 1)
	assert.Equal(t, "parse", symbols[0].Name)
	assert.Len(t, symbols[0].Sites, 3)
	assert.Equal(t, 1, symbols[0].Line)
	assert.True(t, symbols[0].Resolvable)
	for _, s := range symbols[0].Sites {
		assert.Equal(t, "export_statement", s.Bearer.Type())
		assert.False(t, s.Clause)
	}
}

func TestOf_MultiBindingStatement(t *testing.T) {
	src := "export const a = 1, b = 2;\nexport const { c, d: e } = obj;\n"
	symbols := symbolsOf(t, "a.ts", src)

	require.Len(t, symbols, 4)
	names := []string{symbols[0].Name, symbols[1].Name, symbols[2].Name, symbols[3].Name}
	assert.Equal(t, []string{"a", "b", "c", "e"}, names)

	assert.True(t, tsparse.Same(symbols[0].Sites[0].Bearer, symbols[1].Sites[0].Bearer))
	assert.False(t, symbols[0].Sites[0].Destructured)
	assert.True(t, symbols[2].Sites[0].Destructured)
	assert.Equal(t, "variable_declarator", symbols[3].Sites[0].Decl.Type())

	bearer, ok := ExportBearingNode(symbols[1].Sites[0].Decl)
	require.True(t, ok)
	assert.Equal(t, "export_statement", bearer.Type())
}

func TestOf_Defaults(t *testing.T) {
	t.Run("named function", func(t *testing.T) {
		symbols := symbolsOf(t, "a.ts", "export default function main() {}\n")
		require.Len(t, symbols, 1)
		assert.Equal(t, DefaultName, symbols[0].Name)
		assert.Equal(t, "main", symbols[0].Sites[0].Local)
		assert.Equal(t, KindFunction, symbols[0].Kind)
		assert.True(t, symbols[0].Resolvable)
	})

	t.Run("local identifier", func(t *testing.T) {
		symbols := symbolsOf(t, "a.ts", "class Store {}\nexport default Store;\n")
		require.Len(t, symbols, 1)
		assert.Equal(t, DefaultName, symbols[0].Name)
		assert.Equal(t, KindClass, symbols[0].Kind)
		assert.Equal(t, 1, symbols[0].Line)
		assert.True(t, symbols[0].Sites[0].Clause)
		assert.Equal(t, "export_statement", symbols[0].Sites[0].Bearer.Type())
	})

	t.Run("anonymous", func(t *testing.T) {
		symbols := symbolsOf(t, "a.ts", "export default () => 42;\n")
		require.Len(t, symbols, 1)
		assert.False(t, symbols[0].Resolvable)
		assert.Equal(t, ReasonAnonymousDefault, symbols[0].Reason)
		assert.Nil(t, symbols[0].Sites[0].NameNode)
	})
}

func TestOf_ExportClause(t *testing.T) {
	src := `import { imported } from './other';
const a = 1;
function b() {}
export { a, b as renamed, imported };
export { x } from './other';
export * from './more';
`
	symbols := symbolsOf(t, "a.ts", src)

	require.Len(t, symbols, 2)
	assert.Equal(t, "a", symbols[0].Name)
	assert.Equal(t, 2, symbols[0].Line)
	assert.Equal(t, "renamed", symbols[1].Name)
	assert.Equal(t, "b", symbols[1].Sites[0].Local)
	assert.Equal(t, KindFunction, symbols[1].Kind)
	for _, s := range symbols {
		assert.True(t, s.Sites[0].Clause)
		assert.Equal(t, "export_specifier", s.Sites[0].Bearer.Type())
	}
}

func TestOf_Unresolvable(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		src    string
		reason string
	}{
		{"ambient", "a.ts", "export declare function f(): void;\n", ReasonAmbient},
		{"declaration file", "types.d.ts", "export interface Props { a: string }\n", ReasonDeclarationFile},
		{"merged kinds", "a.ts", "export function f() {}\nexport namespace f { export const x = 1; }\n", ReasonMergedKinds},
		{"merged with local", "a.ts", "export class K {}\ninterface K { extra: number }\n", ReasonMergedKinds},
		{"export assignment", "a.ts", "export const a = 1;\nexport = a;\n", ReasonExportAssignment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbols := symbolsOf(t, tt.file, tt.src)
			require.NotEmpty(t, symbols)
			for _, s := range symbols {
				assert.False(t, s.Resolvable, s.Name)
				assert.Equal(t, tt.reason, s.Reason, s.Name)
			}
		})
	}
}

func TestOf_MergedInterfacesStayResolvable(t *testing.T) {
	src := "export interface Opts { a: number }\nexport interface Opts { b: number }\n"
	symbols := symbolsOf(t, "a.ts", src)

	require.Len(t, symbols, 1)
	assert.Len(t, symbols[0].Sites, 2)
	assert.True(t, symbols[0].Resolvable)
}

func TestOf_JavaScript(t *testing.T) {
	src := "export function helper() {}\nexport const [first, second] = list;\n"
	got := summarize(symbolsOf(t, "lib.js", src))

	assert.Equal(t, []summary{
		{"helper", KindFunction, 1, 1, true},
		{"first", KindVariable, 2, 1, true},
		{"second", KindVariable, 2, 1, true},
	}, got)
}
