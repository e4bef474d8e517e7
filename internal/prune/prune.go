// Package prune runs the unused-export and console-statement checks end to end:
// load the project, classify, optionally edit, then save or preview.
package prune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tsprune/internal/consolescan"
	"tsprune/internal/deadcode"
	"tsprune/internal/diff"
	tserrors "tsprune/internal/errors"
	"tsprune/internal/project"
	"tsprune/internal/refs"
	"tsprune/internal/report"
	"tsprune/internal/unexport"
)

// Options configures one run.
type Options struct {
	// Dir is the working directory patterns resolve against.
	Dir string
	// Glob selects the files to analyze.
	Glob string
	// TSConfig is the tsconfig path; its directory is the project root.
	TSConfig string
	// Exclude lists doublestar patterns of files never loaded.
	Exclude []string
	// Keep lists file or name patterns never reported as unused.
	Keep []string
	// Scope limits classification to files under these root-relative paths.
	Scope []string
	// SkipTestFiles leaves exports of test files unclassified.
	SkipTestFiles bool
	// Fix applies the edits. With DryRun the edits are computed but not written.
	Fix    bool
	DryRun bool
	// DiffContext is the number of context lines in dry-run patches.
	DiffContext int
}

func (o Options) mode() report.Mode {
	switch {
	case o.DryRun:
		return report.ModeDryRun
	case o.Fix:
		return report.ModeFix
	}
	return report.ModeReport
}

func (o Options) projectOptions() project.Options {
	return project.Options{
		Dir:      o.Dir,
		Pattern:  o.Glob,
		TSConfig: o.TSConfig,
		Exclude:  o.Exclude,
	}
}

// ExportsResult is the outcome of UnusedExports.
type ExportsResult struct {
	Report *report.ExportsReport
	// Diffs holds the pending patches of a dry run.
	Diffs []diff.FileDiff
}

// UnusedExports reports exported declarations with no reference from another
// file and, with Fix, removes their export markers. Report-only runs never
// modify a file.
func UnusedExports(ctx context.Context, opts Options, logger *slog.Logger) (*ExportsResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger = logger.With("runId", runID)

	p, err := project.Load(ctx, opts.projectOptions(), logger)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	resolver := refs.NewResolver(p, logger)
	analyzer := deadcode.NewAnalyzer(resolver, logger, deadcode.NewExclusionRules(opts.Keep))
	res, err := analyzer.Analyze(ctx, p, deadcode.AnalyzerOptions{
		Scope:         opts.Scope,
		SkipTestFiles: opts.SkipTestFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze exports: %w", err)
	}

	rep := &report.ExportsReport{
		RunID: runID,
		Glob:  opts.Glob,
		Mode:  opts.mode(),
		Summary: report.ExportSummary{
			Files:        len(p.Files()),
			Symbols:      res.Summary.TotalSymbols,
			Unused:       res.Summary.UnusedCount,
			Unresolvable: res.Summary.SkippedUnresolvable,
			Excluded:     res.Summary.SkippedExcluded,
		},
	}
	for _, item := range res.Items {
		rep.Unused = append(rep.Unused, entryOf(item))
	}

	result := &ExportsResult{Report: rep}
	if rep.Mode != report.ModeReport && len(res.Items) > 0 {
		kept, err := strip(ctx, res.Items, logger)
		if err != nil {
			return nil, err
		}
		rep.Kept = kept
		rep.Summary.Kept = len(kept)
		rep.Summary.Removed = len(res.Items) - len(kept)

		if err := finish(ctx, p, opts, rep.Mode, &rep.Changed, &result.Diffs); err != nil {
			return nil, err
		}
	}

	report.SortExports(rep.Unused)
	report.SortExports(rep.Kept)

	logger.Debug("Unused exports run completed",
		"mode", string(rep.Mode),
		"unused", len(rep.Unused),
		"kept", len(rep.Kept),
		"changed", len(rep.Changed),
		"duration", time.Since(start).Milliseconds())
	return result, nil
}

// strip removes the export marker of every item and returns the entries that
// had to stay exported.
func strip(ctx context.Context, items []deadcode.Item, logger *slog.Logger) ([]report.ExportEntry, error) {
	m := unexport.New(logger)

	var kept []report.ExportEntry
	for _, item := range items {
		if _, err := m.Strip(item.Symbol); err != nil {
			if !errors.Is(err, tserrors.ErrUnsupportedMutationTarget) && !errors.Is(err, tserrors.ErrUnresolvableReference) {
				return nil, err
			}
			logger.Debug("Export kept",
				"file", item.FilePath,
				"name", item.Name,
				"error", err.Error())
			kept = append(kept, entryOf(item))
		}
	}

	if _, err := m.Commit(ctx); err != nil {
		return nil, err
	}
	return kept, nil
}

// finish writes the dirty files of a fix run or collects the patches of a
// dry run.
func finish(ctx context.Context, p *project.Project, opts Options, mode report.Mode, changed *[]string, diffs *[]diff.FileDiff) error {
	if mode == report.ModeDryRun {
		*diffs = diff.Project(p, diff.Options{Context: opts.DiffContext})
		for _, d := range *diffs {
			*changed = append(*changed, d.Path)
		}
		return nil
	}

	written, err := p.Save(ctx)
	for _, f := range written {
		*changed = append(*changed, p.Relative(f))
	}
	return err
}

func entryOf(item deadcode.Item) report.ExportEntry {
	return report.ExportEntry{
		File: item.FilePath,
		Line: item.Line,
		Kind: item.Kind,
		Name: item.Name,
	}
}

// ConsoleResult is the outcome of NoConsole.
type ConsoleResult struct {
	Report *report.ConsoleReport
	Diffs  []diff.FileDiff
}

// NoConsole reports `console.*` expression statements and, with Fix, deletes them.
func NoConsole(ctx context.Context, opts Options, logger *slog.Logger) (*ConsoleResult, error) {
	runID := uuid.New().String()
	logger = logger.With("runId", runID)

	p, err := project.Load(ctx, opts.projectOptions(), logger)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	scanner := consolescan.New(logger)
	findings, err := scanner.Scan(ctx, p)
	if err != nil {
		return nil, err
	}

	rep := &report.ConsoleReport{
		RunID: runID,
		Glob:  opts.Glob,
		Mode:  opts.mode(),
		Files: len(p.Files()),
	}
	for _, fd := range findings {
		rep.Statements = append(rep.Statements, report.ConsoleEntry{
			File:      p.Relative(fd.File),
			Line:      fd.Line,
			Statement: fd.Statement,
		})
	}

	result := &ConsoleResult{Report: rep}
	if rep.Mode != report.ModeReport && len(findings) > 0 {
		if _, err := scanner.Remove(ctx, findings); err != nil {
			return nil, err
		}
		if err := finish(ctx, p, opts, rep.Mode, &rep.Changed, &result.Diffs); err != nil {
			return nil, err
		}
	}
	report.SortConsole(rep.Statements)
	return result, nil
}
