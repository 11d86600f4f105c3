// Package registry manages agent records, their capability index, and the
// agent status state machine.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maestro-sh/maestro/pkg/models"
)

var (
	// ErrDuplicateAgent indicates a registration with an ID already in use.
	ErrDuplicateAgent = errors.New("agent id already registered")
	// ErrUnknownAgent indicates an operation on an unregistered agent ID.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid agent status transition")
)

// Registry provides thread-safe storage of agent records.
// All accessors return clones so callers cannot mutate internal state.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*models.Agent
	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		agents: make(map[string]*models.Agent),
		now:    time.Now,
	}
}

// SetClock replaces the registry's clock. Test hook.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Register adds an agent. The agent starts idle regardless of the status
// on the passed record. Fails with ErrDuplicateAgent if the ID is taken,
// leaving the registry unchanged.
func (r *Registry) Register(a *models.Agent) error {
	if a.ID == "" {
		return fmt.Errorf("register agent: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[a.ID]; exists {
		return fmt.Errorf("register agent %s: %w", a.ID, ErrDuplicateAgent)
	}

	stored := a.Clone()
	stored.Status = models.AgentStatusIdle
	stored.CurrentTask = ""
	if stored.LastActivity.IsZero() {
		stored.LastActivity = r.now()
	}
	r.agents[a.ID] = stored
	return nil
}

// Get retrieves an agent by ID.
func (r *Registry) Get(agentID string) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", agentID, ErrUnknownAgent)
	}
	return a.Clone(), nil
}

// FindIdleWithCapabilities returns idle agents whose capability set is a
// superset of required, ordered by last activity ascending so the
// longest-idle agent is picked first.
func (r *Registry) FindIdleWithCapabilities(required []string) []*models.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*models.Agent
	for _, a := range r.agents {
		if a.Status != models.AgentStatusIdle {
			continue
		}
		if !a.HasCapabilities(required) {
			continue
		}
		matches = append(matches, a.Clone())
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].LastActivity.Before(matches[j].LastActivity)
	})
	return matches
}

// Transition moves an agent to a new status, validating the change against
// the allowed-edges table. currentTask must name the task when entering
// working and must be empty otherwise; LastActivity is refreshed on every
// successful transition. On failure the record is unchanged.
func (r *Registry) Transition(agentID string, next models.AgentStatus, currentTask string) error {
	if !next.Valid() {
		return fmt.Errorf("agent %s: status %q: %w", agentID, next, ErrInvalidTransition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %s: %w", agentID, ErrUnknownAgent)
	}

	if !a.Status.CanTransition(next) {
		return fmt.Errorf("agent %s: %s -> %s: %w", agentID, a.Status, next, ErrInvalidTransition)
	}

	if next == models.AgentStatusWorking && currentTask == "" {
		return fmt.Errorf("agent %s: working requires a task id: %w", agentID, ErrInvalidTransition)
	}
	if next != models.AgentStatusWorking && currentTask != "" {
		return fmt.Errorf("agent %s: task id only valid when working: %w", agentID, ErrInvalidTransition)
	}

	a.Status = next
	a.CurrentTask = currentTask
	a.LastActivity = r.now()
	return nil
}

// All returns a clone of every registered agent.
func (r *Registry) All() []*models.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]*models.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		agents = append(agents, a.Clone())
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
