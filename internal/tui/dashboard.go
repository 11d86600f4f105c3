package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maestro-sh/maestro/internal/coordinator"
	"github.com/maestro-sh/maestro/pkg/models"
)

const maxActivityLines = 8

// SnapshotMsg is sent when coordinator state changes.
type SnapshotMsg struct {
	Snapshot coordinator.Snapshot
}

// ActivityMsg is sent when a lifecycle event should be logged.
type ActivityMsg struct {
	Timestamp time.Time
	EventType string
	Message   string
}

// DoneMsg is sent when the coordinator stops.
type DoneMsg struct {
	Err error
}

// DashboardApp is the top-level Bubbletea model for the run dashboard.
type DashboardApp struct {
	snapshot coordinator.Snapshot
	activity []ActivityMsg
	spinner  spinner.Model
	width    int
	done     bool
	err      error

	headerStyle   lipgloss.Style
	sectionStyle  lipgloss.Style
	labelStyle    lipgloss.Style
	valueStyle    lipgloss.Style
	idleStyle     lipgloss.Style
	workingStyle  lipgloss.Style
	waitingStyle  lipgloss.Style
	errStyle      lipgloss.Style
	pendingStyle  lipgloss.Style
	doneStyle     lipgloss.Style
	failedStyle   lipgloss.Style
	logTimeStyle  lipgloss.Style
	logEventStyle lipgloss.Style
	dimStyle      lipgloss.Style
}

// NewDashboardApp creates a new DashboardApp instance.
func NewDashboardApp() *DashboardApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &DashboardApp{
		spinner: sp,
		width:   80,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),

		sectionStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		idleStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		workingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		waitingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		errStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		pendingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		doneStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		failedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),

		logTimeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		logEventStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Width(22),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// Init starts the spinner.
func (a *DashboardApp) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles input and state messages.
func (a *DashboardApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
	case SnapshotMsg:
		a.snapshot = msg.Snapshot
	case ActivityMsg:
		a.activity = append(a.activity, msg)
		if len(a.activity) > 100 {
			a.activity = a.activity[len(a.activity)-100:]
		}
	case DoneMsg:
		a.done = true
		a.err = msg.Err
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

// View renders the dashboard.
func (a *DashboardApp) View() string {
	var b strings.Builder

	b.WriteString(a.headerStyle.Render("=== Maestro Coordinator ==="))
	if !a.done {
		b.WriteString(" " + a.spinner.View())
	}
	b.WriteString("\n\n")

	b.WriteString(a.labelStyle.Render("Agents:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d", len(a.snapshot.Agents))))
	b.WriteString("  ")
	b.WriteString(a.labelStyle.Render("Queue depth:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d", a.snapshot.QueueDepth)))
	b.WriteString("  ")
	b.WriteString(a.labelStyle.Render("Messages:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d", a.snapshot.MessageCount)))
	b.WriteString("\n\n")

	b.WriteString(a.renderAgents())
	b.WriteString("\n")
	b.WriteString(a.renderTasks())
	b.WriteString("\n")
	b.WriteString(a.renderActivity())

	b.WriteString("\n")
	if a.done {
		if a.err != nil {
			b.WriteString(a.errStyle.Render(fmt.Sprintf("Error: %v", a.err)))
		} else {
			b.WriteString(a.doneStyle.Render("Coordinator stopped. Press q to exit."))
		}
	} else {
		b.WriteString(a.dimStyle.Render("Press q to quit"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderAgents renders one line per registered agent.
func (a *DashboardApp) renderAgents() string {
	var b strings.Builder
	b.WriteString(a.sectionStyle.Render("Agents"))
	b.WriteString("\n")

	if len(a.snapshot.Agents) == 0 {
		b.WriteString(a.dimStyle.Render("  no agents registered"))
		b.WriteString("\n")
		return b.String()
	}

	for _, agent := range a.snapshot.Agents {
		status := a.agentStatusStyle(agent.Status).Render(string(agent.Status))
		line := fmt.Sprintf("  %-20s %-10s %s", truncate(agent.Name, 20), agent.Role, status)
		if agent.CurrentTask != "" {
			line += a.dimStyle.Render("  task " + shortID(agent.CurrentTask))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// renderTasks renders one line per non-terminal task plus a terminal tally.
func (a *DashboardApp) renderTasks() string {
	var b strings.Builder
	b.WriteString(a.sectionStyle.Render("Tasks"))
	b.WriteString("\n")

	completed, failed := 0, 0
	shown := 0
	for _, task := range a.snapshot.Tasks {
		switch task.Status {
		case models.TaskStatusCompleted:
			completed++
			continue
		case models.TaskStatusFailed:
			failed++
			continue
		}
		status := a.taskStatusStyle(task.Status).Render(string(task.Status))
		line := fmt.Sprintf("  %s %-30s %-8s %s", shortID(task.ID), truncate(task.Title, 30), task.Priority, status)
		if task.AssignedAgent != "" {
			line += a.dimStyle.Render("  @ " + task.AssignedAgent)
		}
		b.WriteString(line)
		b.WriteString("\n")
		shown++
	}
	if shown == 0 {
		b.WriteString(a.dimStyle.Render("  queue empty"))
		b.WriteString("\n")
	}
	if completed > 0 || failed > 0 {
		tally := fmt.Sprintf("  %s completed, %s failed",
			a.doneStyle.Render(fmt.Sprintf("%d", completed)),
			a.failedStyle.Render(fmt.Sprintf("%d", failed)))
		b.WriteString(tally)
		b.WriteString("\n")
	}
	return b.String()
}

// renderActivity renders the recent event log.
func (a *DashboardApp) renderActivity() string {
	var b strings.Builder
	b.WriteString(a.sectionStyle.Render("Activity"))
	b.WriteString("\n")

	if len(a.activity) == 0 {
		b.WriteString(a.dimStyle.Render("  no activity yet"))
		b.WriteString("\n")
		return b.String()
	}

	start := 0
	if len(a.activity) > maxActivityLines {
		start = len(a.activity) - maxActivityLines
	}
	for _, entry := range a.activity[start:] {
		ts := a.logTimeStyle.Render(entry.Timestamp.Format("15:04:05"))
		event := a.logEventStyle.Render(entry.EventType)
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ts, event, entry.Message))
	}
	return b.String()
}

func (a *DashboardApp) agentStatusStyle(status models.AgentStatus) lipgloss.Style {
	switch status {
	case models.AgentStatusWorking:
		return a.workingStyle
	case models.AgentStatusWaiting:
		return a.waitingStyle
	case models.AgentStatusError:
		return a.errStyle
	case models.AgentStatusCompleted:
		return a.doneStyle
	default:
		return a.idleStyle
	}
}

func (a *DashboardApp) taskStatusStyle(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.TaskStatusAssigned, models.TaskStatusInProgress:
		return a.workingStyle
	default:
		return a.pendingStyle
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// shortID returns the first eight characters of a UUID for display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// NewDashboardProgram creates a new Bubbletea program for the run dashboard.
func NewDashboardProgram() (*tea.Program, *DashboardApp) {
	app := NewDashboardApp()
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}
