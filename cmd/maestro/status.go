package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maestro-sh/maestro/internal/config"
	"github.com/maestro-sh/maestro/internal/journal"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show coordination history from the local journal",
	Long: `Display recent coordination activity recorded in the project journal.

Shows:
  - Event counts by type (tasks created, assigned, completed, failed)
  - The most recent lifecycle events with timestamps`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "Number of recent events to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.Journal.Path
	if path == "" {
		path = journal.DefaultPath(cwd)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No journal found. Run 'maestro run' to start coordinating.")
		return nil
	}

	j, err := journal.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	counts, err := j.CountByType()
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	displayCounts(counts)

	entries, err := j.Recent(statusLimit)
	if err != nil {
		return fmt.Errorf("recent events: %w", err)
	}
	displayEntries(entries)
	return nil
}

func displayCounts(counts map[string]int) {
	bold := color.New(color.Bold)
	bold.Println("Event totals:")

	if len(counts) == 0 {
		fmt.Println("  (none)")
		return
	}

	order := []string{
		"agent_registered",
		"task_created",
		"task_assigned",
		"task_started",
		"task_completed",
		"task_failed",
		"task_cancelled",
		"task_cancel_requested",
	}
	seen := make(map[string]bool)
	for _, et := range order {
		if n, ok := counts[et]; ok {
			fmt.Printf("  %-22s %d\n", et, n)
			seen[et] = true
		}
	}
	for et, n := range counts {
		if !seen[et] {
			fmt.Printf("  %-22s %d\n", et, n)
		}
	}
}

func displayEntries(entries []journal.Entry) {
	if len(entries) == 0 {
		return
	}

	bold := color.New(color.Bold)
	fmt.Println()
	bold.Println("Recent events:")

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	for _, e := range entries {
		ts := e.CreatedAt.Format(time.TimeOnly)
		switch e.EventType {
		case "task_completed":
			green.Printf("  %s %-22s", ts, e.EventType)
		case "task_failed":
			red.Printf("  %s %-22s", ts, e.EventType)
		default:
			fmt.Printf("  %s %-22s", ts, e.EventType)
		}
		fmt.Printf(" %s\n", e.Summary())
	}
}
