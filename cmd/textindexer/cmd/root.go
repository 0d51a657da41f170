// Package cmd provides the CLI commands for textindexer.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/textindexer/internal/config"
	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
	"github.com/Aman-CERP/textindexer/internal/logging"
	"github.com/Aman-CERP/textindexer/internal/profiling"
	"github.com/Aman-CERP/textindexer/pkg/version"
)

// skipConfigAnnotation marks commands that run without loading config.
const skipConfigAnnotation = "skip-config"

// Persistent flags
var (
	debugMode   bool
	configFile  string
	profileOpts profiling.Options
)

// Per-run state set up by PersistentPreRunE.
var (
	loadedConfig   *config.Config
	profileSession *profiling.Session
	loggingCleanup func()
)

// NewRootCmd creates the root command for the textindexer CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textindexer",
		Short: "Live full-text index over files and directories",
		Long: `textindexer keeps an in-memory word index over files and directories,
following changes on disk, and answers exact word lookups.

Start an interactive session with 'textindexer repl <paths>', or run
one-shot queries with 'textindexer search <word> --path <dir>'.`,
		Version:       version.Short(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetVersionTemplate("textindexer version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.textindexer/logs/")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: .textindexer.yaml in the current directory)")
	cmd.PersistentFlags().StringVar(&profileOpts.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.HeapPath, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = setup
	cmd.PersistentPostRunE = teardown

	cmd.AddCommand(newReplCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads configuration, then starts logging and profiling.
func setup(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if cmd.Annotations[skipConfigAnnotation] == "" {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			if _, ok := ierrors.As(err); ok {
				return err
			}
			return ierrors.ConfigError("failed to load configuration", err).
				WithSuggestion("Fix the file named in the message, or remove it to use defaults")
		}
	}
	loadedConfig = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = cfg.Logging.File
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	if debugMode {
		slog.Info("debug logging enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Short()))
	}

	if profileOpts.Enabled() {
		profileSession, err = profiling.Start(profileOpts)
		if err != nil {
			return err
		}
	}
	return nil
}

// teardown stops profiling and logging.
func teardown(_ *cobra.Command, _ []string) error {
	var err error
	if profileSession != nil {
		err = profileSession.Stop()
		profileSession = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}

// Execute runs the root command and prints any error.
func Execute() error {
	c, err := NewRootCmd().ExecuteC()
	if err != nil {
		slog.Default().LogAttrs(context.Background(), slog.LevelError, "command failed", ierrors.LogAttrs(err)...)
		printError(c, err)
	}
	return err
}

// printError writes err to stderr, as JSON when the failed command was
// asked for JSON output.
func printError(c *cobra.Command, err error) {
	if c != nil {
		if f := c.Flags().Lookup("format"); f != nil && f.Value.String() == "json" {
			if data, jerr := ierrors.FormatJSON(err); jerr == nil {
				_, _ = fmt.Fprintln(os.Stderr, string(data))
				return
			}
		}
	}
	_, _ = fmt.Fprint(os.Stderr, ierrors.FormatForCLI(err))
}
