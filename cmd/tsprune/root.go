package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tsprune/internal/config"
	tserrors "tsprune/internal/errors"
	"tsprune/internal/slogutil"
	"tsprune/internal/version"
)

var (
	verbosity  int
	quiet      bool
	logFile    string
	configPath string
	noColor    bool
)

// Set by PersistentPreRunE for the running command.
var (
	appConfig *config.Config
	logger    = slogutil.NewDiscardLogger()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "tsprune",
	Short: "Find and remove unused exports in TypeScript projects",
	Long: `tsprune finds exported declarations that no other file references and
can remove their export keyword in place. It also finds console statements.

Files are selected with a glob relative to the working directory; the
directory of tsconfig.json is the project root.`,
	Version:           version.Info(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path of the config file (default: ./.tsprune.{toml,yaml,json})")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// setup loads the config file and builds the logger shared by every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return tserrors.New(tserrors.InternalError, "failed to get current directory", err)
	}

	cfg, err := config.LoadConfig(cwd, configPath)
	if err != nil {
		return tserrors.New(tserrors.ConfigurationInvalid, "failed to load config", err)
	}
	appConfig = cfg

	if noColor {
		color.NoColor = true
	}

	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verbosity > 0 || quiet {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}

	handler := slogutil.NewConsoleLogger(cmd.ErrOrStderr(), level, cwd, !color.NoColor).Handler()

	path := logFile
	if path == "" {
		path = cfg.Logging.File
	}
	if path != "" {
		fileLogger, f, err := slogutil.NewFileLogger(path, slog.LevelDebug)
		if err != nil {
			return tserrors.New(tserrors.ConfigurationInvalid, "cannot open log file "+path, err)
		}
		logCloser = f
		handler = slogutil.NewTeeHandler(handler, fileLogger.Handler())
	}

	logger = slog.New(handler)
	return nil
}

// closeLog closes the --log-file target, if any.
func closeLog() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}
