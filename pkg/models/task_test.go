package models

import "testing"

func TestTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   bool
	}{
		{"pending is valid", TaskStatusPending, true},
		{"assigned is valid", TaskStatusAssigned, true},
		{"in_progress is valid", TaskStatusInProgress, true},
		{"completed is valid", TaskStatusCompleted, true},
		{"failed is valid", TaskStatusFailed, true},
		{"empty string is invalid", TaskStatus(""), false},
		{"unknown status is invalid", TaskStatus("unknown"), false},
		{"agent status is invalid", TaskStatus("working"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("TaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTaskStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from TaskStatus
		to   TaskStatus
		want bool
	}{
		{"pending to assigned", TaskStatusPending, TaskStatusAssigned, true},
		{"pending to failed (cancel)", TaskStatusPending, TaskStatusFailed, true},
		{"pending to completed", TaskStatusPending, TaskStatusCompleted, false},
		{"pending to in_progress", TaskStatusPending, TaskStatusInProgress, false},
		{"assigned to in_progress", TaskStatusAssigned, TaskStatusInProgress, true},
		{"assigned to completed", TaskStatusAssigned, TaskStatusCompleted, true},
		{"assigned to pending (retry)", TaskStatusAssigned, TaskStatusPending, true},
		{"in_progress to completed", TaskStatusInProgress, TaskStatusCompleted, true},
		{"in_progress to pending (retry)", TaskStatusInProgress, TaskStatusPending, true},
		{"completed is terminal", TaskStatusCompleted, TaskStatusPending, false},
		{"failed is terminal", TaskStatusFailed, TaskStatusPending, false},
		{"failed cannot complete", TaskStatusFailed, TaskStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTaskStatus_Terminal(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{TaskStatusPending, false},
		{TaskStatusAssigned, false},
		{TaskStatusInProgress, false},
		{TaskStatusCompleted, true},
		{TaskStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("TaskStatus(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTaskPriority_Values(t *testing.T) {
	// The ordinals are part of the external contract.
	tests := []struct {
		priority TaskPriority
		value    int
		name     string
	}{
		{PriorityLow, 1, "low"},
		{PriorityMedium, 2, "medium"},
		{PriorityHigh, 3, "high"},
		{PriorityCritical, 4, "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int(tt.priority) != tt.value {
				t.Errorf("priority %s = %d, want %d", tt.name, int(tt.priority), tt.value)
			}
			if tt.priority.String() != tt.name {
				t.Errorf("priority String() = %q, want %q", tt.priority.String(), tt.name)
			}
			if ParsePriority(tt.name) != tt.priority {
				t.Errorf("ParsePriority(%q) = %v, want %v", tt.name, ParsePriority(tt.name), tt.priority)
			}
		})
	}

	if ParsePriority("bogus") != PriorityMedium {
		t.Errorf("ParsePriority of unknown name should default to medium")
	}
}

func TestLess_Ordering(t *testing.T) {
	tests := []struct {
		name string
		a, b *Task
		want bool
	}{
		{
			"higher priority first",
			&Task{Priority: PriorityCritical, Seq: 5},
			&Task{Priority: PriorityLow, Seq: 1},
			true,
		},
		{
			"lower priority second",
			&Task{Priority: PriorityLow, Seq: 1},
			&Task{Priority: PriorityCritical, Seq: 5},
			false,
		},
		{
			"same priority orders by sequence",
			&Task{Priority: PriorityMedium, Seq: 1},
			&Task{Priority: PriorityMedium, Seq: 2},
			true,
		},
		{
			"same priority later sequence second",
			&Task{Priority: PriorityMedium, Seq: 2},
			&Task{Priority: PriorityMedium, Seq: 1},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Less(tt.a, tt.b); got != tt.want {
				t.Errorf("Less() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_Clone(t *testing.T) {
	task := &Task{
		ID:                   "t1",
		Dependencies:         []string{"t0"},
		RequiredCapabilities: []string{"go"},
	}

	clone := task.Clone()
	clone.Dependencies[0] = "mutated"
	clone.RequiredCapabilities[0] = "mutated"

	if task.Dependencies[0] != "t0" {
		t.Error("mutating clone dependencies changed the original")
	}
	if task.RequiredCapabilities[0] != "go" {
		t.Error("mutating clone capabilities changed the original")
	}
}
