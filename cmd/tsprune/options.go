package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tsprune/internal/config"
	"tsprune/internal/diff"
	tserrors "tsprune/internal/errors"
	"tsprune/internal/prune"
	"tsprune/internal/report"
)

// runFlags are the flags shared by the checking subcommands.
type runFlags struct {
	glob        string
	fix         bool
	dryRun      bool
	tsconfig    string
	exclude     []string
	format      string
	diffContext int
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.glob, "glob", "g", "", "Files to check, e.g. './(src|apps|libs)/**/*.(ts|tsx)'")
	cmd.Flags().BoolVar(&f.fix, "fix", false, "Apply the changes and write the files")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show the changes as unified diffs without writing")
	cmd.Flags().StringVar(&f.tsconfig, "tsconfig", "", "Path of tsconfig.json (default: ./tsconfig.json)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Patterns of files to skip (can be repeated)")
	cmd.Flags().StringVar(&f.format, "format", "", "Output format (table, json, yaml)")
	cmd.Flags().IntVar(&f.diffContext, "diff-context", diff.DefaultContext, "Context lines in --dry-run diffs")
}

// options merges the flags over the config file values; flags win.
func (f *runFlags) options(cfg *config.Config, example string) (prune.Options, report.Format, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	opts := prune.Options{
		Glob:        valueOrDefault(f.glob, cfg.Glob),
		TSConfig:    valueOrDefault(f.tsconfig, cfg.TSConfig),
		Exclude:     append(append([]string{}, cfg.Exclude...), f.exclude...),
		Fix:         f.fix,
		DryRun:      f.dryRun,
		DiffContext: f.diffContext,
	}
	if opts.Glob == "" {
		return opts, "", tserrors.New(tserrors.ConfigurationInvalid, "Please provide a file glob. Example:\n  "+example, nil)
	}

	format, err := report.ParseFormat(valueOrDefault(f.format, cfg.Format))
	if err != nil {
		return opts, "", tserrors.New(tserrors.ConfigurationInvalid, "invalid --format", err)
	}
	return opts, format, nil
}

// printDiffs writes dry-run patches after a table report.
func printDiffs(w io.Writer, diffs []diff.FileDiff) {
	for _, d := range diffs {
		fmt.Fprintln(w)
		fmt.Fprint(w, d.Patch)
	}
}

func newRenderer(cmd *cobra.Command, format report.Format) *report.Renderer {
	return report.NewRenderer(cmd.OutOrStdout(), format, color.NoColor)
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
