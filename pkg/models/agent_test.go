package models

import "testing"

func TestAgentStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status AgentStatus
		want   bool
	}{
		{"idle is valid", AgentStatusIdle, true},
		{"working is valid", AgentStatusWorking, true},
		{"waiting is valid", AgentStatusWaiting, true},
		{"error is valid", AgentStatusError, true},
		{"completed is valid", AgentStatusCompleted, true},
		{"empty string is invalid", AgentStatus(""), false},
		{"task status is invalid", AgentStatus("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("AgentStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestAgentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from AgentStatus
		to   AgentStatus
		want bool
	}{
		{"idle to working on assignment", AgentStatusIdle, AgentStatusWorking, true},
		{"working to waiting when blocked", AgentStatusWorking, AgentStatusWaiting, true},
		{"waiting to working when unblocked", AgentStatusWaiting, AgentStatusWorking, true},
		{"working to completed on success", AgentStatusWorking, AgentStatusCompleted, true},
		{"working to error on failure", AgentStatusWorking, AgentStatusError, true},
		{"error to idle on reset", AgentStatusError, AgentStatusIdle, true},
		{"completed to idle for reassignment", AgentStatusCompleted, AgentStatusIdle, true},
		{"idle to completed skips working", AgentStatusIdle, AgentStatusCompleted, false},
		{"idle to error skips working", AgentStatusIdle, AgentStatusError, false},
		{"waiting to completed skips working", AgentStatusWaiting, AgentStatusCompleted, false},
		{"error to working skips idle", AgentStatusError, AgentStatusWorking, false},
		{"completed to working skips idle", AgentStatusCompleted, AgentStatusWorking, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestAgent_HasCapabilities(t *testing.T) {
	agent := &Agent{Capabilities: []string{"go", "postgresql", "api_design"}}

	tests := []struct {
		name     string
		required []string
		want     bool
	}{
		{"empty requirement always matches", nil, true},
		{"single match", []string{"go"}, true},
		{"full superset", []string{"go", "postgresql"}, true},
		{"missing capability", []string{"python"}, false},
		{"partial overlap is not enough", []string{"go", "python"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := agent.HasCapabilities(tt.required); got != tt.want {
				t.Errorf("HasCapabilities(%v) = %v, want %v", tt.required, got, tt.want)
			}
		})
	}
}

func TestAgent_Clone(t *testing.T) {
	agent := &Agent{ID: "a1", Capabilities: []string{"go"}}

	clone := agent.Clone()
	clone.Capabilities[0] = "mutated"

	if agent.Capabilities[0] != "go" {
		t.Error("mutating clone capabilities changed the original")
	}
}
