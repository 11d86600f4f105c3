package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Multi-agent task coordinator",
	Long: `Maestro coordinates a pool of worker agents over a shared task queue.

Tasks carry priorities, dependencies, and required capabilities; agents
declare capabilities and report progress back through the coordinator.
The scheduler matches ready tasks to idle, capable agents, honoring
dependency order and priority, with automatic retry on failure.

Core capabilities:
- Dependency-aware priority scheduling
- Capability matching between tasks and agents
- Inter-agent messaging with time-bounded retention
- Lifecycle event delivery to an observability collector
- Local SQLite journal of coordination history`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(versionCmd)
}
