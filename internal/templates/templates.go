// Package templates provides the catalog of predefined agent roles and
// builds agent registration records from them.
package templates

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/maestro-sh/maestro/pkg/models"
)

// ErrUnknownRole indicates a role identifier with no template.
var ErrUnknownRole = errors.New("unknown agent role")

// Template describes a predefined agent role.
type Template struct {
	// Role is the role identifier, e.g. "backend_developer".
	Role string `yaml:"role"`
	// Name is the display name for agents created from this template.
	Name string `yaml:"name"`
	// Description summarizes the specialization.
	Description string `yaml:"description,omitempty"`
	// Capabilities lists the skill tags agents of this role possess.
	Capabilities []string `yaml:"capabilities"`
	// Prompt is the system prompt for the worker. Opaque to the engine.
	Prompt string `yaml:"prompt,omitempty"`
	// MaxConcurrentTasks is carried into the agent record. Reserved.
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks,omitempty"`
}

// Provider resolves role identifiers to templates.
type Provider struct {
	templates map[string]Template
}

// Builtin returns a Provider with the predefined role catalog.
func Builtin() *Provider {
	p := &Provider{templates: make(map[string]Template)}
	for _, t := range builtinTemplates {
		p.templates[t.Role] = t
	}
	return p
}

// LoadFile returns a Provider with the built-in catalog extended or
// overridden by templates from a YAML file.
func LoadFile(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates file: %w", err)
	}

	var file struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse templates file: %w", err)
	}

	p := Builtin()
	for _, t := range file.Templates {
		if t.Role == "" {
			return nil, fmt.Errorf("templates file %s: template without a role", path)
		}
		p.templates[t.Role] = t
	}
	return p, nil
}

// Get returns the template for a role.
func (p *Provider) Get(role string) (Template, error) {
	t, ok := p.templates[role]
	if !ok {
		return Template{}, fmt.Errorf("role %q: %w", role, ErrUnknownRole)
	}
	return t, nil
}

// Roles returns the known role identifiers, sorted.
func (p *Provider) Roles() []string {
	roles := make([]string, 0, len(p.templates))
	for role := range p.templates {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// CreateAgent builds an agent registration record from a role template.
// The prompt is returned separately; the engine never interprets it.
func (p *Provider) CreateAgent(role, agentID, projectPath string) (*models.Agent, string, error) {
	t, err := p.Get(role)
	if err != nil {
		return nil, "", err
	}

	maxTasks := t.MaxConcurrentTasks
	if maxTasks == 0 {
		maxTasks = 1
	}

	agent := &models.Agent{
		ID:                 agentID,
		Name:               t.Name,
		Role:               t.Role,
		Capabilities:       append([]string(nil), t.Capabilities...),
		Status:             models.AgentStatusIdle,
		ProjectPath:        projectPath,
		MaxConcurrentTasks: maxTasks,
	}
	return agent, t.Prompt, nil
}

var builtinTemplates = []Template{
	{
		Role:        "frontend_developer",
		Name:        "Frontend Developer",
		Description: "Specializes in user interface development and user experience",
		Capabilities: []string{
			"react", "vue", "angular", "typescript", "javascript",
			"html", "css", "sass", "tailwind", "ui_design",
			"responsive_design", "accessibility", "testing",
		},
		Prompt: "You are a Frontend Developer agent specializing in modern web development.",
	},
	{
		Role:        "backend_developer",
		Name:        "Backend Developer",
		Description: "Focuses on server-side logic, APIs, and database management",
		Capabilities: []string{
			"python", "node.js", "java", "go", "rust",
			"fastapi", "express", "django", "flask",
			"postgresql", "mongodb", "redis", "api_design",
			"microservices", "database_optimization", "security",
		},
		Prompt: "You are a Backend Developer agent specializing in server-side development.",
	},
	{
		Role:        "devops_engineer",
		Name:        "DevOps Engineer",
		Description: "Handles deployment, infrastructure, and CI/CD pipelines",
		Capabilities: []string{
			"docker", "kubernetes", "terraform", "ansible",
			"aws", "gcp", "azure", "ci_cd", "monitoring",
			"logging", "security_scanning", "infrastructure_as_code",
		},
		Prompt: "You are a DevOps Engineer agent specializing in infrastructure and deployment.",
	},
	{
		Role:        "qa_tester",
		Name:        "QA Tester",
		Description: "Ensures quality through testing and validation",
		Capabilities: []string{
			"manual_testing", "automated_testing", "test_planning",
			"selenium", "cypress", "jest", "pytest", "postman",
			"performance_testing", "security_testing", "accessibility_testing",
		},
		Prompt: "You are a QA Tester agent specializing in quality assurance and testing.",
	},
	{
		Role:        "technical_writer",
		Name:        "Technical Writer",
		Description: "Creates and maintains technical documentation",
		Capabilities: []string{
			"technical_writing", "documentation", "markdown",
			"api_documentation", "user_guides", "tutorials",
			"diagrams", "content_strategy", "information_architecture",
		},
		Prompt: "You are a Technical Writer agent specializing in clear, comprehensive documentation.",
	},
	{
		Role:        "architect",
		Name:        "Architect",
		Description: "Designs system architecture and guides technical decisions",
		Capabilities: []string{
			"system_design", "architecture_review", "api_design",
			"design_patterns", "scalability", "distributed_systems",
			"technology_evaluation", "technical_leadership", "diagrams",
		},
		Prompt: "You are an Architect agent specializing in system design and technical direction.",
	},
	{
		Role:        "data_scientist",
		Name:        "Data Scientist",
		Description: "Analyzes data and builds models to drive product decisions",
		Capabilities: []string{
			"python", "pandas", "numpy", "sql", "statistics",
			"machine_learning", "data_visualization", "jupyter",
			"etl", "experiment_design", "model_evaluation",
		},
		Prompt: "You are a Data Scientist agent specializing in data analysis and machine learning.",
	},
	{
		Role:        "security_specialist",
		Name:        "Security Specialist",
		Description: "Identifies and mitigates security risks across the stack",
		Capabilities: []string{
			"security", "threat_modeling", "penetration_testing",
			"vulnerability_assessment", "security_scanning", "cryptography",
			"authentication", "authorization", "compliance", "incident_response",
		},
		Prompt: "You are a Security Specialist agent specializing in application and infrastructure security.",
	},
}
