package models

import "time"

// AgentStatus represents the current state of an agent.
type AgentStatus string

const (
	// AgentStatusIdle indicates the agent is available for assignment.
	AgentStatusIdle AgentStatus = "idle"
	// AgentStatusWorking indicates the agent is executing a task.
	AgentStatusWorking AgentStatus = "working"
	// AgentStatusWaiting indicates the agent is blocked on external input.
	AgentStatusWaiting AgentStatus = "waiting"
	// AgentStatusError indicates the agent's task execution failed.
	AgentStatusError AgentStatus = "error"
	// AgentStatusCompleted indicates the agent finished its task and is
	// about to become available again.
	AgentStatusCompleted AgentStatus = "completed"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusIdle, AgentStatusWorking, AgentStatusWaiting,
		AgentStatusError, AgentStatusCompleted:
		return true
	default:
		return false
	}
}

// agentTransitions is the allowed-edges table for agent statuses.
var agentTransitions = map[AgentStatus][]AgentStatus{
	AgentStatusIdle:      {AgentStatusWorking},
	AgentStatusWorking:   {AgentStatusWaiting, AgentStatusCompleted, AgentStatusError},
	AgentStatusWaiting:   {AgentStatusWorking},
	AgentStatusError:     {AgentStatusIdle},
	AgentStatusCompleted: {AgentStatusIdle},
}

// CanTransition returns true if an agent may move from s to next.
func (s AgentStatus) CanTransition(next AgentStatus) bool {
	for _, allowed := range agentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Agent represents an autonomous worker registered with the coordinator.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// Name is the display name of the agent.
	Name string `json:"name"`
	// Role is the agent's declared specialization.
	Role string `json:"role"`
	// Capabilities lists the skill tags this agent possesses.
	Capabilities []string `json:"capabilities"`
	// Status is the current state of the agent.
	Status AgentStatus `json:"status"`
	// CurrentTask is the ID of the task being executed.
	// Non-empty iff Status is working.
	CurrentTask string `json:"current_task,omitempty"`
	// ProjectPath is the agent's working context. Opaque to the engine.
	ProjectPath string `json:"project_path,omitempty"`
	// MaxConcurrentTasks is carried from the agent template. The engine
	// currently enforces single-task agents; the field is reserved.
	MaxConcurrentTasks int `json:"max_concurrent_tasks,omitempty"`
	// LastActivity is updated on every status transition.
	LastActivity time.Time `json:"last_activity"`
}

// HasCapabilities returns true if the agent's capability set is a superset
// of required.
func (a *Agent) HasCapabilities(required []string) bool {
	for _, req := range required {
		found := false
		for _, cap := range a.Capabilities {
			if cap == req {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the agent.
func (a *Agent) Clone() *Agent {
	c := *a
	c.Capabilities = append([]string(nil), a.Capabilities...)
	return &c
}
