package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/maestro-sh/maestro/pkg/models"
)

func newAgent(id string, caps ...string) *models.Agent {
	return &models.Agent{ID: id, Name: id, Role: "backend_developer", Capabilities: caps}
}

func TestRegister(t *testing.T) {
	r := New()

	if err := r.Register(newAgent("a1", "go")); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	got, err := r.Get("a1")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if got.Status != models.AgentStatusIdle {
		t.Errorf("new agent status = %q, want idle", got.Status)
	}
	if got.LastActivity.IsZero() {
		t.Error("expected LastActivity to be set on registration")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()

	first := newAgent("a1", "go")
	if err := r.Register(first); err != nil {
		t.Fatalf("first Register() returned error: %v", err)
	}

	dup := newAgent("a1", "python")
	err := r.Register(dup)
	if !errors.Is(err, ErrDuplicateAgent) {
		t.Fatalf("expected ErrDuplicateAgent, got %v", err)
	}

	// Idempotent-reject: the state after the first call survives.
	got, _ := r.Get("a1")
	if len(got.Capabilities) != 1 || got.Capabilities[0] != "go" {
		t.Errorf("duplicate registration altered stored agent: %v", got.Capabilities)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegister_EmptyID(t *testing.T) {
	r := New()
	if err := r.Register(&models.Agent{}); err == nil {
		t.Error("expected error for empty agent id")
	}
}

func TestGet_Unknown(t *testing.T) {
	r := New()
	if _, err := r.Get("ghost"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestFindIdleWithCapabilities(t *testing.T) {
	r := New()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.SetClock(func() time.Time { return clock })

	for _, a := range []*models.Agent{
		newAgent("old", "go", "postgresql"),
		newAgent("new", "go", "postgresql"),
		newAgent("nocap", "python"),
	} {
		// Each registration lands one minute apart so idle ordering
		// is deterministic.
		if err := r.Register(a); err != nil {
			t.Fatalf("Register(%s) returned error: %v", a.ID, err)
		}
		clock = clock.Add(time.Minute)
	}

	got := r.FindIdleWithCapabilities([]string{"go"})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID != "old" {
		t.Errorf("expected longest-idle agent first, got %s", got[0].ID)
	}
}

func TestFindIdleWithCapabilities_SkipsBusy(t *testing.T) {
	r := New()
	if err := r.Register(newAgent("a1", "go")); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("a1", models.AgentStatusWorking, "t1"); err != nil {
		t.Fatal(err)
	}

	if got := r.FindIdleWithCapabilities([]string{"go"}); len(got) != 0 {
		t.Errorf("working agent must not match, got %d agents", len(got))
	}
}

func TestTransition_Lifecycle(t *testing.T) {
	r := New()
	if err := r.Register(newAgent("a1", "go")); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		status models.AgentStatus
		task   string
	}{
		{models.AgentStatusWorking, "t1"},
		{models.AgentStatusWaiting, ""},
		{models.AgentStatusWorking, "t1"},
		{models.AgentStatusCompleted, ""},
		{models.AgentStatusIdle, ""},
		{models.AgentStatusWorking, "t2"},
		{models.AgentStatusError, ""},
		{models.AgentStatusIdle, ""},
	}

	for i, step := range steps {
		if err := r.Transition("a1", step.status, step.task); err != nil {
			t.Fatalf("step %d: Transition(%s) returned error: %v", i, step.status, err)
		}

		got, _ := r.Get("a1")
		if got.Status != step.status {
			t.Fatalf("step %d: status = %q, want %q", i, got.Status, step.status)
		}
		// current_task is set iff the agent is working.
		if (got.Status == models.AgentStatusWorking) != (got.CurrentTask != "") {
			t.Fatalf("step %d: current_task %q inconsistent with status %q", i, got.CurrentTask, got.Status)
		}
	}
}

func TestTransition_Invalid(t *testing.T) {
	tests := []struct {
		name string
		next models.AgentStatus
		task string
	}{
		{"idle to completed", models.AgentStatusCompleted, ""},
		{"idle to error", models.AgentStatusError, ""},
		{"idle to waiting", models.AgentStatusWaiting, ""},
		{"working without task id", models.AgentStatusWorking, ""},
		{"unknown status", models.AgentStatus("bogus"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			if err := r.Register(newAgent("a1", "go")); err != nil {
				t.Fatal(err)
			}

			err := r.Transition("a1", tt.next, tt.task)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}

			// Record unchanged on failure.
			got, _ := r.Get("a1")
			if got.Status != models.AgentStatusIdle {
				t.Errorf("failed transition changed status to %q", got.Status)
			}
		})
	}
}

func TestTransition_TaskIDOnlyWhenWorking(t *testing.T) {
	r := New()
	if err := r.Register(newAgent("a1", "go")); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("a1", models.AgentStatusWorking, "t1"); err != nil {
		t.Fatal(err)
	}

	err := r.Transition("a1", models.AgentStatusCompleted, "t1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition when task id set on non-working status, got %v", err)
	}
}

func TestTransition_UnknownAgent(t *testing.T) {
	r := New()
	err := r.Transition("ghost", models.AgentStatusWorking, "t1")
	if !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestTransition_UpdatesLastActivity(t *testing.T) {
	r := New()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.SetClock(func() time.Time { return clock })

	if err := r.Register(newAgent("a1", "go")); err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(time.Hour)
	if err := r.Transition("a1", models.AgentStatusWorking, "t1"); err != nil {
		t.Fatal(err)
	}

	got, _ := r.Get("a1")
	if !got.LastActivity.Equal(clock) {
		t.Errorf("LastActivity = %v, want %v", got.LastActivity, clock)
	}
}

func TestAll_ReturnsClones(t *testing.T) {
	r := New()
	if err := r.Register(newAgent("a1", "go")); err != nil {
		t.Fatal(err)
	}

	all := r.All()
	all[0].Capabilities[0] = "mutated"

	got, _ := r.Get("a1")
	if got.Capabilities[0] != "go" {
		t.Error("mutating a snapshot changed registry state")
	}
}
