package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentkit-dev/agentkit"
	"github.com/agentkit-dev/agentkit/loader"
	"github.com/agentkit-dev/agentkit/registry"
)

var (
	capabilityDir string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agentkit",
	Short: "Load and inspect agent capabilities",
	Long: `agentkit discovers capability modules in a directory, validates their
declarations, and exposes their operations as tools.

Each subcommand performs one load pass over the capability directory and
reports on it: registered tools, environment requirements, or declared
dependencies.`,
	// SilenceUsage prevents printing usage on errors we handle ourselves
	// (missing requirements, failed loads).
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&capabilityDir, "dir", "d", "capabilities",
		"directory to load capabilities from")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// loadCapabilities performs the load pass every reporting subcommand
// starts from.
func loadCapabilities(cmd *cobra.Command) (*registry.Registry, *loader.Report, error) {
	return agentkit.Load(cmd.Context(), capabilityDir)
}
