package main

import (
	"github.com/spf13/cobra"

	"tsprune/internal/prune"
	"tsprune/internal/report"
)

var consoleFlags runFlags

var noConsoleCmd = &cobra.Command{
	Use:   "no-console",
	Short: "Find console.* statements",
	Long: `Find expression statements that start with "console." and, with --fix,
delete them.

Examples:
  tsprune no-console --glob './(src|apps|libs)/**/!(*.test|*.spec).(ts|tsx)'
  tsprune no-console --glob './src/**/*.ts' --fix`,
	RunE: runNoConsole,
}

func init() {
	consoleFlags.register(noConsoleCmd)
	rootCmd.AddCommand(noConsoleCmd)
}

func runNoConsole(cmd *cobra.Command, args []string) error {
	opts, format, err := consoleFlags.options(appConfig, "tsprune no-console --glob='./(src|apps|libs)/**/!(*.test|*.spec).(ts|tsx)'")
	if err != nil {
		return err
	}

	res, err := prune.NoConsole(cmd.Context(), opts, logger)
	if err != nil {
		return err
	}

	if err := newRenderer(cmd, format).Console(res.Report); err != nil {
		return err
	}
	if format == report.FormatTable {
		printDiffs(cmd.OutOrStdout(), res.Diffs)
	}
	return nil
}
