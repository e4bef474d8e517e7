package tsparse

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string, lang Language) (*sitter.Node, []byte) {
	t.Helper()
	source := []byte(src)
	tree, err := NewParser().Parse(context.Background(), source, lang)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree.RootNode(), source
}

func TestLanguageFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Language
		ok   bool
	}{
		{"src/a.ts", LangTypeScript, true},
		{"src/a.d.ts", LangTypeScript, true},
		{"src/a.mts", LangTypeScript, true},
		{"src/App.tsx", LangTSX, true},
		{"lib/a.js", LangJavaScript, true},
		{"lib/a.jsx", LangJavaScript, true},
		{"lib/a.cjs", LangJavaScript, true},
		{"README.md", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageFromPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDeclarationFile(t *testing.T) {
	assert.True(t, IsDeclarationFile("/p/types.d.ts"))
	assert.True(t, IsDeclarationFile("/p/types.d.mts"))
	assert.False(t, IsDeclarationFile("/p/d.ts"))
	assert.False(t, IsDeclarationFile("/p/index.ts"))
}

func TestParse_Dialects(t *testing.T) {
	root, _ := parse(t, "export interface Props { a: number }\n", LangTypeScript)
	assert.Equal(t, "program", root.Type())
	assert.False(t, root.HasError())

	root, _ = parse(t, "export const App = () => <div className=\"x\" />;\n", LangTSX)
	assert.False(t, root.HasError())

	root, _ = parse(t, "export function f(a, b) { return a + b }\n", LangJavaScript)
	assert.False(t, root.HasError())

	_, err := NewParser().Parse(context.Background(), []byte("x"), Language("cobol"))
	assert.Error(t, err)
}

func TestNodeHelpers(t *testing.T) {
	src := "import { a as b } from './mod';\nexport { b as c };\n"
	root, source := parse(t, src, LangTypeScript)

	imports := FindNodes(root, "import_statement")
	require.Len(t, imports, 1)
	assert.Equal(t, "./mod", StringValue(imports[0].ChildByFieldName("source"), source))
	assert.Equal(t, 1, Line(imports[0]))
	assert.Equal(t, 1, Column(imports[0]))

	specs := FindNodes(root, "import_specifier", "export_specifier")
	require.Len(t, specs, 2)
	assert.Equal(t, "a", ModuleExportName(specs[0].ChildByFieldName("name"), source))
	assert.Equal(t, "b", Text(specs[0].ChildByFieldName("alias"), source))
	assert.Equal(t, "c", ModuleExportName(specs[1].ChildByFieldName("alias"), source))
	assert.Equal(t, 2, Line(specs[1]))

	assert.True(t, Same(specs[0], FindNodes(root, "import_specifier")[0]))
	assert.False(t, Same(specs[0], specs[1]))

	exportStmt := FindNodes(root, "export_statement")[0]
	assert.True(t, HasChildOfType(exportStmt, "export"))
	assert.NotNil(t, FirstChildOfType(exportStmt, "export_clause"))
	assert.Nil(t, FirstChildOfType(exportStmt, "default"))
	assert.Len(t, NamedChildren(root), 2)
}

func TestWalk_SkipsSubtrees(t *testing.T) {
	root, source := parse(t, "function outer() { const inner = 1; }\nconst top = 2;\n", LangTypeScript)

	var names []string
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() == "statement_block" {
			return false
		}
		if n.Type() == "variable_declarator" {
			names = append(names, Text(n.ChildByFieldName("name"), source))
		}
		return true
	})
	assert.Equal(t, []string{"top"}, names)
}

func TestBindingIdentifiers(t *testing.T) {
	src := "const { a, b: c, d = 1, ...rest } = obj;\nconst [x, , [y], z = 2] = arr;\nconst plain = 3;\n"
	root, source := parse(t, src, LangTypeScript)

	var got [][]string
	for _, d := range FindNodes(root, "variable_declarator") {
		var names []string
		for _, id := range BindingIdentifiers(d.ChildByFieldName("name")) {
			names = append(names, Text(id, source))
		}
		got = append(got, names)
	}

	assert.Equal(t, [][]string{
		{"a", "c", "d", "rest"},
		{"x", "y", "z"},
		{"plain"},
	}, got)
}
