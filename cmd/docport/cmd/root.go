// Package cmd provides the CLI commands for docport.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/logging"
	"github.com/jacnlabs/docport/pkg/version"
)

// Persistent flags shared by all subcommands.
var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the docport CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docport",
		Short: "Hybrid document retrieval over per-tenant PDF corpora",
		Long: `Docport indexes PDF corpora per tenant and answers questions over them.

Retrieval combines BM25 keyword matching with semantic embeddings,
fused by Reciprocal Rank Fusion. Indexes are built lazily per scope
(global, tenant, or tenant user) and cached in memory.

Point it at a data directory and run 'docport index' to get started.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("docport version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to docport.yaml (default: <data_dir>/docport.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.docport/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newPromptCmd())
	cmd.AddCommand(newFilesCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs file logging. Stderr copies are suppressed so
// command output stays clean; --debug lowers the level.
func startLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg.Level = "debug"
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging is best-effort; commands still run without a log file.
		return nil
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
