// Package cmd provides the CLI commands for amankb.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amankb/internal/config"
	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
	"github.com/Aman-CERP/amankb/internal/kb"
	"github.com/Aman-CERP/amankb/internal/logging"
	"github.com/Aman-CERP/amankb/internal/profiling"
	"github.com/Aman-CERP/amankb/pkg/version"
)

// Global flags.
var (
	debugMode  bool
	projectDir string
)

// Profiling flags.
var (
	profileOpts profiling.Options
	profiler    *profiling.Session
)

var loggingCleanup func()

// NewRootCmd creates the root command for the amankb CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amankb",
		Short: "Local TF-IDF knowledge base for support agents",
		Long: `amankb indexes support records from CSV files and answers free-text
questions with the most similar records, ranked by TF-IDF cosine similarity.

It runs as a CLI for humans and as an MCP server for AI agents.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("amankb version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.amankb/logs/")
	cmd.PersistentFlags().StringVar(&projectDir, "dir", "", "Project directory (default: nearest directory with .amankb.yaml or .git)")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		level := "info"
		if debugMode {
			level = "debug"
		}
		if err := initLogging(logging.DefaultConfig(), level); err != nil {
			return err
		}
		if profileOpts.Enabled() {
			s, err := profiling.Start(profileOpts)
			if err != nil {
				return err
			}
			profiler = s
		}
		return nil
	}
	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		err := stopProfiling()
		stopLogging()
		return err
	}

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTopicCmd())
	cmd.AddCommand(newTopicsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		if debugMode {
			fmt.Fprintln(os.Stderr, amanerrors.FormatForUser(err, true))
		} else {
			fmt.Fprint(os.Stderr, amanerrors.FormatForCLI(err))
		}
	}
	_ = stopProfiling()
	stopLogging()
	return err
}

func stopProfiling() error {
	s := profiler
	profiler = nil
	return s.Stop()
}

// initLogging replaces the process logger. Logs go to the rotating file
// only; stdout belongs to command output and, in serve, to JSON-RPC.
func initLogging(cfg logging.Config, level string) error {
	stopLogging()
	cfg.Level = level
	cfg.WriteToStderr = false
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func stopLogging() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// resolveDir returns the --dir flag or the detected project root.
func resolveDir() (string, error) {
	if projectDir != "" {
		if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
			return "", amanerrors.New(amanerrors.ErrCodeConfigNotFound, "project directory not found: "+projectDir, err).
				WithSuggestion("Pass an existing directory to --dir")
		}
		return projectDir, nil
	}
	return config.FindProjectRoot(".")
}

// loadConfig loads the effective configuration for the project.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}
	return config.Load(dir)
}

// openKnowledgeBase loads configuration and creates a service over the
// configured sources. The caller must Close it.
func openKnowledgeBase() (*kb.Service, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	svc, err := kb.New(kb.OptionsFromConfig(cfg, slog.Default()))
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}
