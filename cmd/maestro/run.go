package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/maestro-sh/maestro/internal/config"
	"github.com/maestro-sh/maestro/internal/coordinator"
	"github.com/maestro-sh/maestro/internal/journal"
	"github.com/maestro-sh/maestro/internal/notify"
	"github.com/maestro-sh/maestro/internal/tui"
)

var (
	runPlanFile string
	runWatch    bool
	runDebug    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the coordinator",
	Long: `Start the coordination loop in the current project.

Agents and tasks can be seeded from a plan file (--plan). Agents may
also register at runtime through the coordinator API; the scheduler
considers them on the next tick.

The coordinator responds to signal files in .maestro/control/:
  pause   suspend scheduling (remove the file or create 'resume' to continue)
  drain   stop assigning work and exit once active tasks finish

Use --watch for a live dashboard of agents, tasks, and events.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runPlanFile, "plan", "", "Seed agents and tasks from a YAML plan file")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Show a live dashboard")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Write a debug log to .maestro/logs/")
}

func runRun(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := coordinator.NopLogger()
	if runDebug {
		logger = coordinator.NewDebugLoggerForProject(cwd)
	}
	defer logger.Close()

	// Fan the lifecycle event stream out to the observability collector
	// and the local journal; with --watch, the dashboard is a third sink.
	var sinks notify.Multi
	if cfg.Observability.Server != "" {
		sinks = append(sinks, notify.NewHTTP(cfg.Observability.Server, cfg.Observability.SessionID))
	}
	if cfg.Journal.Enabled {
		path := cfg.Journal.Path
		if path == "" {
			path = journal.DefaultPath(cwd)
		}
		j, err := journal.Open(path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		sinks = append(sinks, j)
	}

	var program *tea.Program
	if runWatch {
		program, _ = tui.NewDashboardProgram()
		sinks = append(sinks, dashboardSink{program: program})
	}

	control, err := coordinator.NewControlWatcher(cwd)
	if err != nil {
		return fmt.Errorf("control watcher: %w", err)
	}
	defer control.Close()
	control.ClearSignals()

	coord := coordinator.New(coordinator.Config{
		MaxAgents:           cfg.Agents.MaxConcurrent,
		MaxTaskRetries:      cfg.Scheduler.MaxTaskRetries,
		TaskTimeout:         cfg.Scheduler.TaskTimeout,
		TickInterval:        cfg.Scheduler.TickInterval,
		HealthCheckInterval: cfg.Scheduler.HealthCheckInterval,
		AutoAssign:          cfg.Scheduler.AutoAssign,
		MessageRetention:    cfg.Messages.Retention,
	},
		coordinator.WithNotifier(sinks),
		coordinator.WithLogger(logger),
		coordinator.WithControl(control),
	)

	if runPlanFile != "" {
		provider, err := loadTemplates(cfg)
		if err != nil {
			return err
		}
		plan, err := LoadPlan(runPlanFile)
		if err != nil {
			return err
		}
		if err := plan.Seed(coord, provider, cwd); err != nil {
			return fmt.Errorf("seed plan: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runWatch {
		return runWithDashboard(ctx, coord, program, cfg)
	}

	fmt.Println("maestro coordinator running (ctrl+c to stop)")
	return coord.Run(ctx)
}

// dashboardSink forwards lifecycle events to the TUI as activity lines.
type dashboardSink struct {
	program *tea.Program
}

func (s dashboardSink) Notify(_ context.Context, eventType string, payload notify.Payload) {
	s.program.Send(tui.ActivityMsg{
		Timestamp: time.Now(),
		EventType: eventType,
		Message:   activityLine(payload),
	})
}

// runWithDashboard runs the coordinator alongside the TUI, feeding it
// state snapshots on an interval. Quitting the TUI stops the coordinator.
func runWithDashboard(ctx context.Context, coord *coordinator.Coordinator, program *tea.Program, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := coord.Run(ctx)
		program.Send(tui.DoneMsg{Err: err})
		return err
	})

	g.Go(func() error {
		interval := cfg.Scheduler.TickInterval
		if interval <= 0 {
			interval = time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				program.Send(tui.SnapshotMsg{Snapshot: coord.Status()})
			}
		}
	})

	// The TUI owns the terminal until the user quits.
	_, tuiErr := program.Run()
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if tuiErr != nil {
		return fmt.Errorf("dashboard: %w", tuiErr)
	}
	return nil
}

// activityLine renders a one-line description of a lifecycle event.
func activityLine(payload notify.Payload) string {
	title, _ := payload["title"].(string)
	taskID, _ := payload["task_id"].(string)
	agentID, _ := payload["agent_id"].(string)

	switch {
	case title != "" && agentID != "":
		return fmt.Sprintf("%q -> %s", title, agentID)
	case title != "":
		return fmt.Sprintf("%q", title)
	case taskID != "" && agentID != "":
		return fmt.Sprintf("task %s, agent %s", taskID, agentID)
	case taskID != "":
		return "task " + taskID
	case agentID != "":
		return "agent " + agentID
	default:
		return ""
	}
}
