package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tsprune/internal/config"
	tserrors "tsprune/internal/errors"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example .tsprune.toml",
	Long:  "Creates .tsprune.toml in the current directory with the default settings and example patterns",
	Args:  cobra.NoArgs,
	// init must work even when an existing config file is broken.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return tserrors.New(tserrors.InternalError, "failed to get current directory", err)
	}

	path, err := config.WriteExample(cwd)
	if err != nil {
		return tserrors.New(tserrors.ConfigurationInvalid, "failed to write config", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Set glob to the files you want checked")
	fmt.Fprintln(out, "  2. Run: tsprune unused-exports")
	return nil
}
