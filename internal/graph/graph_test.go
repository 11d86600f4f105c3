package graph

import (
	"errors"
	"testing"

	"github.com/maestro-sh/maestro/pkg/models"
)

func task(id string, deps ...string) *models.Task {
	return &models.Task{ID: id, Status: models.TaskStatusPending, Dependencies: deps}
}

func TestValidate_LinearChain(t *testing.T) {
	g := New()
	g.Build([]*models.Task{task("a"), task("b", "a"), task("c", "b")})

	order, err := g.Validate()
	if err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 tasks in order, got %d", len(order))
	}

	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Errorf("dependencies must sort before dependents, got %v", order)
	}
}

func TestValidate_CycleDetected(t *testing.T) {
	g := New()
	g.Build([]*models.Task{task("a", "b"), task("b", "a")})

	_, err := g.Validate()
	if !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
}

func TestValidate_SelfCycle(t *testing.T) {
	g := New()
	g.Build([]*models.Task{task("a", "a")})

	_, err := g.Validate()
	if !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected for self-dependency, got %v", err)
	}
}

func TestUnsatisfiable_MissingDependency(t *testing.T) {
	g := New()
	g.Build([]*models.Task{task("a"), task("b", "ghost")})

	stuck := g.Unsatisfiable()
	if len(stuck) != 1 {
		t.Fatalf("expected 1 unsatisfiable task, got %d: %v", len(stuck), stuck)
	}

	blockers, ok := stuck["b"]
	if !ok {
		t.Fatal("expected task b to be unsatisfiable")
	}
	if len(blockers) != 1 || blockers[0] != "ghost" {
		t.Errorf("expected blocker [ghost], got %v", blockers)
	}
}

func TestUnsatisfiable_CycleMembersAndDownstream(t *testing.T) {
	g := New()
	g.Build([]*models.Task{
		task("a", "b"),
		task("b", "a"),
		task("c", "a"), // downstream of the cycle, equally stuck
		task("d"),      // independent, fine
	})

	stuck := g.Unsatisfiable()
	for _, id := range []string{"a", "b", "c"} {
		if _, ok := stuck[id]; !ok {
			t.Errorf("expected task %s to be unsatisfiable", id)
		}
	}
	if _, ok := stuck["d"]; ok {
		t.Error("task d has no dependencies and must not be reported")
	}
}

func TestUnsatisfiable_ExcludesTerminalTasks(t *testing.T) {
	failed := task("a", "ghost")
	failed.Status = models.TaskStatusFailed

	g := New()
	g.Build([]*models.Task{failed})

	if stuck := g.Unsatisfiable(); len(stuck) != 0 {
		t.Errorf("terminal tasks must not be reported, got %v", stuck)
	}
}

func TestBuild_Replaces(t *testing.T) {
	g := New()
	g.Build([]*models.Task{task("a"), task("b")})
	g.Build([]*models.Task{task("c")})

	if g.Size() != 1 {
		t.Errorf("expected rebuild to replace contents, size = %d", g.Size())
	}
}

func TestMissingDependencies(t *testing.T) {
	g := New()
	g.Build([]*models.Task{task("a", "x", "y")})

	missing := g.MissingDependencies("a")
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing deps, got %v", missing)
	}
	if len(g.MissingDependencies("nope")) != 0 {
		t.Error("unknown task should report no missing deps")
	}
}
