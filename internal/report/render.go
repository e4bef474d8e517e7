// Package report renders the findings of a run as a table, JSON or YAML.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Renderer writes reports to one writer in one format.
type Renderer struct {
	w      io.Writer
	format Format
	warn   *color.Color
	good   *color.Color
}

// NewRenderer creates a renderer. Colors apply to the table format only.
func NewRenderer(w io.Writer, format Format, noColor bool) *Renderer {
	warn := color.New(color.FgYellow)
	good := color.New(color.FgGreen)
	if noColor {
		warn.DisableColor()
		good.DisableColor()
	}
	return &Renderer{w: w, format: format, warn: warn, good: good}
}

// Exports renders the result of an unused-exports run.
func (r *Renderer) Exports(rep *ExportsReport) error {
	switch r.format {
	case FormatJSON:
		return r.json(rep)
	case FormatYAML:
		return r.yaml(rep)
	}

	if len(rep.Unused) == 0 {
		r.good.Fprintln(r.w, "No unused exports found")
		return r.exportSummary(rep)
	}

	switch rep.Mode {
	case ModeFix:
		fmt.Fprintln(r.w, "\nThe following exports have been removed:")
		fmt.Fprintln(r.w, exportTable(removed(rep)))
		if len(rep.Kept) > 0 {
			r.warn.Fprintln(r.w, "The following exports are unused but their export keyword could not be removed safely:")
			fmt.Fprintln(r.w, exportTable(rep.Kept))
		} else {
			r.good.Fprintln(r.w, "You have no unused exports now!")
		}
	case ModeDryRun:
		r.warn.Fprintln(r.w, "The following exports would have their export keyword removed:")
		fmt.Fprintln(r.w, exportTable(rep.Unused))
		fmt.Fprintln(r.w, "Run again without --dry-run to apply the changes")
	default:
		r.warn.Fprintln(r.w, "The following exports have no external references and the export keyword can be removed:")
		fmt.Fprintln(r.w, exportTable(rep.Unused))
		r.warn.Fprintln(r.w, "Pass the --fix flag to remove unused exports")
	}
	return r.exportSummary(rep)
}

func (r *Renderer) exportSummary(rep *ExportsReport) error {
	s := rep.Summary
	_, err := fmt.Fprintf(r.w, "Checked %s exports in %s, %s unused (%s skipped as unresolvable, %s excluded)\n",
		humanize.Comma(int64(s.Symbols)),
		plural(s.Files, "file", "files"),
		humanize.Comma(int64(s.Unused)),
		humanize.Comma(int64(s.Unresolvable)),
		humanize.Comma(int64(s.Excluded)))
	return err
}

// removed returns the unused entries that are not in Kept.
func removed(rep *ExportsReport) []ExportEntry {
	kept := make(map[ExportEntry]bool, len(rep.Kept))
	for _, e := range rep.Kept {
		kept[e] = true
	}
	out := make([]ExportEntry, 0, len(rep.Unused))
	for _, e := range rep.Unused {
		if !kept[e] {
			out = append(out, e)
		}
	}
	return out
}

// Console renders the result of a no-console run.
func (r *Renderer) Console(rep *ConsoleReport) error {
	switch r.format {
	case FormatJSON:
		return r.json(rep)
	case FormatYAML:
		return r.yaml(rep)
	}

	n := len(rep.Statements)
	switch {
	case n == 0:
		r.good.Fprintf(r.w, "Congratulations! You have no console statements in %s\n", rep.Glob)
	case rep.Mode == ModeFix:
		fmt.Fprintf(r.w, "\nRemoved %s:\n", plural(n, "console statement", "console statements"))
		fmt.Fprintln(r.w, consoleTable(rep.Statements))
	case rep.Mode == ModeDryRun:
		r.warn.Fprintf(r.w, "Would remove %s:\n", plural(n, "console statement", "console statements"))
		fmt.Fprintln(r.w, consoleTable(rep.Statements))
	default:
		r.warn.Fprintf(r.w, "Found %s:\n", plural(n, "console statement", "console statements"))
		fmt.Fprintln(r.w, consoleTable(rep.Statements))
		r.warn.Fprintln(r.w, "Pass the --fix flag to remove all console statements")
	}
	return nil
}

func (r *Renderer) json(v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(r.w, string(data))
	return err
}

func (r *Renderer) yaml(v any) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	return tbl
}

func exportTable(entries []ExportEntry) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Line", "Type", "Name"})
	for _, e := range entries {
		tbl.AppendRow(table.Row{e.File, e.Line, e.Kind, e.Name})
	}
	tbl.AppendFooter(table.Row{"Total", len(entries)})
	return tbl.Render()
}

func consoleTable(entries []ConsoleEntry) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Line", "Statement"})
	for _, e := range entries {
		tbl.AppendRow(table.Row{e.File, e.Line, e.Statement})
	}
	tbl.AppendFooter(table.Row{"Total", len(entries)})
	return tbl.Render()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return humanize.Comma(int64(n)) + " " + many
}
