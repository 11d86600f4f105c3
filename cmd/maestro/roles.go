package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maestro-sh/maestro/internal/config"
	"github.com/maestro-sh/maestro/internal/templates"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List available agent role templates",
	Long: `Display the agent role templates the coordinator can instantiate.

Built-in roles cover frontend, backend, devops, QA, and documentation
work. Additional roles can be defined in a YAML file referenced by the
agents.templates_file configuration key.`,
	RunE: runRoles,
}

func runRoles(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	provider, err := loadTemplates(cfg)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	for _, role := range provider.Roles() {
		tpl, err := provider.Get(role)
		if err != nil {
			continue
		}
		bold.Printf("%s", role)
		fmt.Printf("  (%s)\n", tpl.Name)
		if tpl.Description != "" {
			fmt.Printf("  %s\n", tpl.Description)
		}
		dim.Printf("  capabilities: %s\n", strings.Join(tpl.Capabilities, ", "))
		fmt.Println()
	}
	return nil
}

// loadTemplates returns the built-in role templates, extended by the
// configured templates file when one is set.
func loadTemplates(cfg *config.Config) (*templates.Provider, error) {
	if cfg.Agents.TemplatesFile == "" {
		return templates.Builtin(), nil
	}
	if _, err := os.Stat(cfg.Agents.TemplatesFile); err != nil {
		return nil, fmt.Errorf("templates file %s: %w", cfg.Agents.TemplatesFile, err)
	}
	return templates.LoadFile(cfg.Agents.TemplatesFile)
}
