// Package cmd provides the CLI commands for ainav.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ainav/ainav/internal/logging"
	"github.com/ainav/ainav/pkg/version"
)

var (
	debugMode      bool
	serverAddr     string
	loggingCleanup func()
)

// NewRootCmd builds the ainav root command and its subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ainav",
		Short: "Natural-language code navigation over a local repository",
		Long: `ainav indexes a repository's source into a vector store and metadata
store, then answers natural-language queries against it with a hybrid
semantic/keyword/symbol/intent/structural ranking pipeline.

Run "ainav serve" once per machine, then use "ainav index" and
"ainav query" against a repository path.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if loggingCleanup != nil {
				loggingCleanup()
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "ainav serve address")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg = logging.DebugConfig()
		logCfg.WriteToStderr = false
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging is ambient, not load-bearing: a CLI invocation should
		// still succeed if the log directory can't be created.
		return nil
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		return fmt.Errorf("ainav: %w", err)
	}
	return nil
}
