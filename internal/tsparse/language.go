// Package tsparse wraps tree-sitter for the TypeScript and JavaScript dialects tsprune analyzes.
package tsparse

import (
	"path/filepath"
	"strings"
)

// Language represents a supported source dialect.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

// Extensions lists every file extension tsprune loads, declaration files first
// so that ".d.ts" wins over ".ts" in suffix checks.
var Extensions = []string{".d.ts", ".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// LanguageFromPath returns the dialect for a file path.
func LanguageFromPath(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript, true
	default:
		return "", false
	}
}

// IsDeclarationFile reports whether path is an ambient ".d.ts" style file.
func IsDeclarationFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(base, ".d.ts") || strings.HasSuffix(base, ".d.mts") || strings.HasSuffix(base, ".d.cts")
}
