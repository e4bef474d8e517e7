package main

import (
	"time"

	"github.com/spf13/cobra"

	"tsprune/internal/prune"
	"tsprune/internal/report"
)

var (
	unusedFlags     runFlags
	unusedKeep      []string
	unusedScope     []string
	unusedSkipTests bool
)

var unusedExportsCmd = &cobra.Command{
	Use:   "unused-exports",
	Short: "Find exports that no other file references",
	Long: `Find exported declarations with no reference from another file of the
project. Imports, re-exports, namespace member accesses and dynamic imports
all count as references. Declarations whose references cannot be computed
soundly (ambient declarations, export =, declaration files) are never reported.

With --fix the export keyword is removed in place; declarations stay.

Examples:
  tsprune unused-exports --glob './(src|apps|libs)/**/*.(ts|tsx)'
  tsprune unused-exports --glob './src/**/*.ts' --fix
  tsprune unused-exports --glob './src/**/*.ts' --dry-run
  tsprune unused-exports --glob './src/**/*.ts' --keep 'src/index.ts' --format json`,
	RunE: runUnusedExports,
}

func init() {
	unusedFlags.register(unusedExportsCmd)
	unusedExportsCmd.Flags().StringSliceVar(&unusedKeep, "keep", nil, "File or export name patterns never reported (can be repeated)")
	unusedExportsCmd.Flags().StringSliceVar(&unusedScope, "scope", nil, "Only report files under these paths")
	unusedExportsCmd.Flags().BoolVar(&unusedSkipTests, "skip-tests", false, "Do not report exports of test files")
	rootCmd.AddCommand(unusedExportsCmd)
}

func runUnusedExports(cmd *cobra.Command, args []string) error {
	start := time.Now()

	opts, format, err := unusedFlags.options(appConfig, "tsprune unused-exports --glob='./(src|apps|libs)/**/*.(ts|tsx)'")
	if err != nil {
		return err
	}
	opts.Keep = unusedKeep
	if appConfig != nil {
		opts.Keep = append(append([]string{}, appConfig.Keep...), unusedKeep...)
	}
	opts.Scope = unusedScope
	opts.SkipTestFiles = unusedSkipTests

	res, err := prune.UnusedExports(cmd.Context(), opts, logger)
	if err != nil {
		return err
	}

	if err := newRenderer(cmd, format).Exports(res.Report); err != nil {
		return err
	}
	if format == report.FormatTable {
		printDiffs(cmd.OutOrStdout(), res.Diffs)
	}

	logger.Debug("Unused exports command completed",
		"unused", len(res.Report.Unused),
		"duration", time.Since(start).Milliseconds())
	return nil
}
