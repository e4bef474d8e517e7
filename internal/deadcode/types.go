// Package deadcode classifies exported declarations that no other file references.
package deadcode

import (
	"tsprune/internal/exports"
)

// Item is one exported symbol with no external reference.
type Item struct {
	// Symbol is the classified symbol; the mutator strips it.
	Symbol *exports.Symbol `json:"-"`

	// Name is the external name the symbol is exported under.
	Name string `json:"name"`

	// Kind is the declaration kind of the first site.
	Kind string `json:"kind"`

	// FilePath is "./"-prefixed and relative to the project root.
	FilePath string `json:"filePath"`

	// Line is the line of the first declaration site.
	Line int `json:"line"`

	// Sites is the number of declarations behind the name.
	Sites int `json:"sites"`

	// InternalReferences counts uses inside the defining file.
	InternalReferences int `json:"internalReferences"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// TotalSymbols is every exported symbol classified.
	TotalSymbols int `json:"totalSymbols"`

	// UnusedCount is symbols with no external reference.
	UnusedCount int `json:"unusedCount"`

	// SkippedUnresolvable is symbols whose references cannot be computed soundly.
	SkippedUnresolvable int `json:"skippedUnresolvable"`

	// SkippedExcluded is symbols matched by a keep rule.
	SkippedExcluded int `json:"skippedExcluded"`

	// ByKind breaks down unused symbols by kind.
	ByKind map[string]int `json:"byKind"`
}

// ReferenceStats categorizes references to a symbol.
type ReferenceStats struct {
	// Total is all references found.
	Total int

	// External is references from other files.
	External int

	// Internal is references from the defining file.
	Internal int
}

// AnalyzerOptions configures the classifier.
type AnalyzerOptions struct {
	// Scope limits analysis to files under these root-relative paths.
	Scope []string

	// SkipTestFiles leaves symbols defined in test files unclassified.
	SkipTestFiles bool
}

// DefaultOptions classifies every file.
func DefaultOptions() AnalyzerOptions {
	return AnalyzerOptions{}
}

// Result is the output of classification.
type Result struct {
	// Items are the unused symbols, by file then declaration order.
	Items []Item `json:"items"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Scope that was analyzed.
	Scope []string `json:"scope,omitempty"`
}
