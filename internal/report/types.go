package report

import (
	"fmt"
	"sort"
	"strings"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name. The empty string means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Mode is what a run did with its findings.
type Mode string

const (
	// ModeReport lists findings and changes nothing.
	ModeReport Mode = "report"
	// ModeFix applies the edits and writes the files.
	ModeFix Mode = "fix"
	// ModeDryRun computes the edits and shows them without writing.
	ModeDryRun Mode = "dry-run"
)

// ExportEntry is one row of the unused exports table.
type ExportEntry struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
	Kind string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// ExportSummary counts what an unused-exports run looked at.
type ExportSummary struct {
	Files        int `json:"files" yaml:"files"`
	Symbols      int `json:"symbols" yaml:"symbols"`
	Unused       int `json:"unused" yaml:"unused"`
	Removed      int `json:"removed" yaml:"removed"`
	Kept         int `json:"kept" yaml:"kept"`
	Unresolvable int `json:"unresolvable" yaml:"unresolvable"`
	Excluded     int `json:"excluded" yaml:"excluded"`
}

// ExportsReport is the result of an unused-exports run. Kept lists unused
// exports whose marker could not be removed safely.
type ExportsReport struct {
	RunID   string        `json:"runId" yaml:"runId"`
	Glob    string        `json:"glob" yaml:"glob"`
	Mode    Mode          `json:"mode" yaml:"mode"`
	Unused  []ExportEntry `json:"unused,omitempty" yaml:"unused,omitempty"`
	Kept    []ExportEntry `json:"kept,omitempty" yaml:"kept,omitempty"`
	Changed []string      `json:"changed,omitempty" yaml:"changed,omitempty"`
	Summary ExportSummary `json:"summary" yaml:"summary"`
}

// ConsoleEntry is one row of the console statements table.
type ConsoleEntry struct {
	File      string `json:"file" yaml:"file"`
	Line      int    `json:"line" yaml:"line"`
	Statement string `json:"statement" yaml:"statement"`
}

// ConsoleReport is the result of a no-console run.
type ConsoleReport struct {
	RunID      string         `json:"runId" yaml:"runId"`
	Glob       string         `json:"glob" yaml:"glob"`
	Mode       Mode           `json:"mode" yaml:"mode"`
	Files      int            `json:"files" yaml:"files"`
	Statements []ConsoleEntry `json:"statements,omitempty" yaml:"statements,omitempty"`
	Changed    []string       `json:"changed,omitempty" yaml:"changed,omitempty"`
}

// SortExports orders entries by file, line and name.
func SortExports(entries []ExportEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Name < b.Name
	})
}

// SortConsole orders entries by file and line.
func SortConsole(entries []ConsoleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].File != entries[j].File {
			return entries[i].File < entries[j].File
		}
		return entries[i].Line < entries[j].Line
	})
}
