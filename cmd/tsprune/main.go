package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tserrors "tsprune/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLog()
	os.Exit(exitCode(err, os.Stderr))
}

// exitCode reports err to w and returns the process exit code: 1 when the run
// was aborted, 0 otherwise. Findings never change the exit code.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	var te *tserrors.TspruneError
	if errors.As(err, &te) && len(te.SuggestedFixes) > 0 {
		fmt.Fprintln(w, "\nSuggested fixes:")
		for _, fix := range te.SuggestedFixes {
			fmt.Fprintf(w, "  - %s\n", fix.Description)
			if fix.Command != "" {
				fmt.Fprintf(w, "    %s\n", fix.Command)
			}
		}
	}
	if !tserrors.IsConfiguration(err) {
		fmt.Fprintln(w, "Rerun with -vv for details.")
	}
	return 1
}
