package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/maestro-sh/maestro/internal/coordinator"
	"github.com/maestro-sh/maestro/internal/store"
	"github.com/maestro-sh/maestro/internal/templates"
	"github.com/maestro-sh/maestro/pkg/models"
)

// Plan is a declarative description of agents and tasks to seed the
// coordinator with at startup.
type Plan struct {
	Agents []PlanAgent `yaml:"agents"`
	Tasks  []PlanTask  `yaml:"tasks"`
}

// PlanAgent requests one agent built from a role template.
type PlanAgent struct {
	Role string `yaml:"role"`
	// Name optionally overrides the generated agent name.
	Name string `yaml:"name"`
}

// PlanTask describes one task. Dependencies reference the `name` handles
// of tasks listed earlier in the plan.
type PlanTask struct {
	Name         string   `yaml:"name"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Priority     string   `yaml:"priority"`
	DependsOn    []string `yaml:"depends_on"`
	Capabilities []string `yaml:"capabilities"`
}

// LoadPlan reads a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &plan, nil
}

// Seed registers the plan's agents and creates its tasks on the
// coordinator. Task dependencies given as plan names are resolved to the
// generated task IDs; forward references are an error.
func (p *Plan) Seed(coord *coordinator.Coordinator, provider *templates.Provider, projectPath string) error {
	for _, pa := range p.Agents {
		agentID := uuid.New().String()[:8]
		agent, _, err := provider.CreateAgent(pa.Role, agentID, projectPath)
		if err != nil {
			return fmt.Errorf("plan agent %q: %w", pa.Role, err)
		}
		if pa.Name != "" {
			agent.Name = pa.Name
		}
		if err := coord.RegisterAgent(agent); err != nil {
			return fmt.Errorf("plan agent %q: %w", pa.Role, err)
		}
	}

	idByName := make(map[string]string, len(p.Tasks))
	for _, pt := range p.Tasks {
		priority := models.ParsePriority(pt.Priority)

		var deps []string
		for _, name := range pt.DependsOn {
			id, ok := idByName[name]
			if !ok {
				return fmt.Errorf("plan task %q: depends on unknown task %q (dependencies must be listed first)", pt.Title, name)
			}
			deps = append(deps, id)
		}

		task, err := coord.CreateTask(store.CreateParams{
			Title:                pt.Title,
			Description:          pt.Description,
			Priority:             priority,
			Dependencies:         deps,
			RequiredCapabilities: pt.Capabilities,
		})
		if err != nil {
			return fmt.Errorf("plan task %q: %w", pt.Title, err)
		}
		if pt.Name != "" {
			idByName[pt.Name] = task.ID
		}
	}
	return nil
}
