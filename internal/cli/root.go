// Package cli implements the broom command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"broom/internal/cleaner"
	"broom/internal/exitcodes"
	"broom/internal/logging"
	"broom/internal/report"
)

const (
	cmdName = "broom"
	cmdDesc = `Remove build artifacts (Python bytecode, Cargo targets, node_modules) below one or more directories.`

	cmdExamples = `  # Show what would be removed below the current directory:
  broom --dry-run

  # Remove node_modules and Cargo targets below two workspaces:
  broom -t node -t cargo ~/src ~/work

  # Measure every artifact and print JSON lines:
  broom --dry-run --size -o json ~/src

  # Keep a removal history and export metrics for node_exporter:
  broom --history ~/.local/state/broom/history.db \
    --metrics-file /var/lib/node_exporter/textfile/broom.prom ~/src

  # A root named like a subcommand needs a path prefix:
  broom ./history`
)

// ErrInvalidArgs marks errors caused by bad flags or arguments.
var ErrInvalidArgs = errors.New("invalid arguments")

type RootArgs struct {
	LogLevel        string
	LogFormat       string
	LogFile         string
	LogRotationDays int

	logFile *os.File
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", logging.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", logging.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.LogFile, "log-file", "", "Also append logs to this file")
	cmd.PersistentFlags().
		IntVar(&ra.LogRotationDays, "log-rotation-days", logging.DefaultRotationDays, "Rotate the log file after this many days")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(logging.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(logging.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkPersistentFlagFilename("log-file", "log")
	if err != nil {
		panic(fmt.Errorf("mark log-file flag: %w", err))
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	cleanArgs := NewCleanArgs(args)

	cmd := &cobra.Command{
		Use:               cmdName + " [roots...]",
		Short:             cmdDesc,
		Example:           cmdExamples,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: cobra.FixedCompletions(nil, cobra.ShellCompDirectiveFilterDirs),
		PersistentPreRunE: setupLogging(args),
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return args.closeLogFile()
		},
		RunE: func(cmd *cobra.Command, roots []string) error {
			cleanArgs.Roots = roots
			return runClean(cmd, cleanArgs)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	})

	args.AddFlags(cmd)
	cleanArgs.AddFlags(cmd)
	cmd.AddCommand(NewHistoryCmd(NewHistoryArgs(args)))

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		var w io.Writer = cmd.ErrOrStderr()
		if ra.LogFile != "" {
			f, err := logging.OpenFile(ra.LogFile, ra.LogRotationDays)
			if err != nil {
				return err
			}
			ra.logFile = f
			w = io.MultiWriter(w, f)
		}

		logHandler, err := logging.NewHandler(w, ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("%w: create log handler: %w", ErrInvalidArgs, err)
		}

		logger := slog.New(logHandler)
		slog.SetDefault(logger)
		cmd.SetContext(logging.NewContext(cmd.Context(), logger))

		return nil
	}
}

func (ra *RootArgs) closeLogFile() error {
	if ra.logFile == nil {
		return nil
	}
	err := ra.logFile.Close()
	ra.logFile = nil
	return err
}

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.Is(err, ErrInvalidArgs),
		errors.Is(err, cleaner.ErrUnknownCategory),
		errors.Is(err, report.ErrUnknownFormat),
		errors.Is(err, logging.ErrInvalidArgument):
		return exitcodes.InvalidArgs
	default:
		return exitcodes.RuntimeError
	}
}
