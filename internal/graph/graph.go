// Package graph provides structural analysis of task dependencies.
package graph

import (
	"errors"
	"sync"

	"github.com/gammazero/toposort"

	"github.com/maestro-sh/maestro/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// DependencyGraph is a directed graph of task dependencies. Edges point
// from a task to the tasks it is blocked by. Unlike a strict DAG builder,
// it tolerates missing dependency IDs and cycles: such tasks are never
// eligible for scheduling, but they stay in the graph so callers can
// query why they are stuck.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps task ID to the task itself.
	nodes map[string]*models.Task
	// edges maps task ID to IDs of tasks it depends on.
	edges map[string][]string
	// missing maps task ID to dependency IDs that reference no known task.
	missing map[string][]string
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:   make(map[string]*models.Task),
		edges:   make(map[string][]string),
		missing: make(map[string][]string),
	}
}

// Build replaces the graph contents from a slice of tasks.
// Dependencies on unknown task IDs are recorded, not rejected.
func (g *DependencyGraph) Build(tasks []*models.Task) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]*models.Task, len(tasks))
	g.edges = make(map[string][]string, len(tasks))
	g.missing = make(map[string][]string)

	for _, task := range tasks {
		g.nodes[task.ID] = task
		g.edges[task.ID] = nil
	}

	for _, task := range tasks {
		for _, depID := range task.Dependencies {
			if _, exists := g.nodes[depID]; !exists {
				g.missing[task.ID] = append(g.missing[task.ID], depID)
				continue
			}
			g.edges[task.ID] = append(g.edges[task.ID], depID)
		}
	}
}

// Validate runs a topological sort over the known edges.
// Returns the dependency-first order, or ErrCycleDetected.
func (g *DependencyGraph) Validate() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []toposort.Edge
	for taskID, deps := range g.edges {
		if len(deps) == 0 {
			// Root task: a nil-source edge keeps it in the sort result.
			edges = append(edges, toposort.Edge{nil, taskID})
			continue
		}
		for _, depID := range deps {
			edges = append(edges, toposort.Edge{depID, taskID})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, ErrCycleDetected
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}
	return order, nil
}

// Unsatisfiable returns, for every task that can never become ready, the
// dependency IDs blocking it forever: dependencies that do not exist, and
// dependencies that are themselves stuck in a cycle or behind a missing ID.
// Tasks already in a terminal state are excluded.
func (g *DependencyGraph) Unsatisfiable() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Fixpoint: a task is resolvable if every dependency exists and is
	// resolvable. Whatever never becomes resolvable is blocked by a
	// missing ID or participates in (or depends on) a cycle.
	resolvable := make(map[string]bool, len(g.nodes))
	for changed := true; changed; {
		changed = false
		for id := range g.nodes {
			if resolvable[id] {
				continue
			}
			if len(g.missing[id]) > 0 {
				continue
			}
			ok := true
			for _, depID := range g.edges[id] {
				if !resolvable[depID] {
					ok = false
					break
				}
			}
			if ok {
				resolvable[id] = true
				changed = true
			}
		}
	}

	stuck := make(map[string][]string)
	for id, task := range g.nodes {
		if resolvable[id] || task.Status.Terminal() {
			continue
		}
		var blockers []string
		blockers = append(blockers, g.missing[id]...)
		for _, depID := range g.edges[id] {
			if !resolvable[depID] {
				blockers = append(blockers, depID)
			}
		}
		stuck[id] = blockers
	}
	return stuck
}

// MissingDependencies returns the unknown dependency IDs for a task.
func (g *DependencyGraph) MissingDependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.missing[taskID]...)
}

// Dependencies returns the known dependency IDs for a task.
func (g *DependencyGraph) Dependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.edges[taskID]...)
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}
