package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task is waiting to be assigned.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusAssigned indicates the task has been matched to an agent.
	TaskStatusAssigned TaskStatus = "assigned"
	// TaskStatusInProgress indicates the assigned agent has started work.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task failed permanently.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further automatic transition occurs from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// taskTransitions is the allowed-edges table for task statuses.
// pending→failed covers synchronous cancellation of an unassigned task;
// assigned/in_progress→pending covers the retry reset.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:    {TaskStatusAssigned, TaskStatusFailed},
	TaskStatusAssigned:   {TaskStatusInProgress, TaskStatusCompleted, TaskStatusFailed, TaskStatusPending},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusFailed, TaskStatusPending},
}

// CanTransition returns true if a task may move from s to next.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TaskPriority is the ordinal priority of a task. Higher values are
// scheduled first.
type TaskPriority int

const (
	// PriorityLow is for background work.
	PriorityLow TaskPriority = 1
	// PriorityMedium is the default priority.
	PriorityMedium TaskPriority = 2
	// PriorityHigh is for work that should run ahead of the default band.
	PriorityHigh TaskPriority = 3
	// PriorityCritical is for work that must run as soon as possible.
	PriorityCritical TaskPriority = 4
)

// Valid returns true if the priority is a known value.
func (p TaskPriority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// String returns a human-readable priority name.
func (p TaskPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority converts a priority name to its value.
// Unknown names map to PriorityMedium.
func ParsePriority(name string) TaskPriority {
	switch name {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// Less orders tasks for scheduling: higher priority first, then earlier
// creation sequence. The sequence counter breaks ties between tasks created
// in the same instant, so ordering never depends on wall-clock resolution.
func Less(a, b *Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Seq < b.Seq
}

// Task represents a unit of work in the system.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Priority determines scheduling order relative to other pending tasks.
	Priority TaskPriority `json:"priority"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// AssignedAgent is the ID of the agent working on this task.
	// Set only while the task is assigned or in progress.
	AssignedAgent string `json:"assigned_agent,omitempty"`
	// Dependencies lists task IDs that must complete before this task
	// becomes eligible for assignment.
	Dependencies []string `json:"dependencies,omitempty"`
	// RequiredCapabilities lists capability tags an agent must have to
	// execute this task.
	RequiredCapabilities []string `json:"required_capabilities,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when the task was first assigned, if ever.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Result holds the success payload. Mutually exclusive with Error.
	Result string `json:"result,omitempty"`
	// Error holds the failure payload. Mutually exclusive with Result.
	Error string `json:"error,omitempty"`
	// RetryCount is the number of execution attempts so far.
	RetryCount int `json:"retry_count,omitempty"`
	// CancelRequested marks an assigned task for cooperative cancellation.
	// The engine relies on the worker's completion report or the timeout
	// sweep to close the loop.
	CancelRequested bool `json:"cancel_requested,omitempty"`
	// Seq is the insertion sequence assigned at creation, used to break
	// priority ties FIFO.
	Seq uint64 `json:"seq"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.Dependencies = append([]string(nil), t.Dependencies...)
	c.RequiredCapabilities = append([]string(nil), t.RequiredCapabilities...)
	if t.StartedAt != nil {
		started := *t.StartedAt
		c.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		c.CompletedAt = &completed
	}
	return &c
}
