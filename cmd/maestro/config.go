package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/maestro-sh/maestro/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify maestro configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/maestro/config.yaml
Project-specific overrides can be placed in .maestro.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("scheduler.auto_assign: %t\n", cfg.Scheduler.AutoAssign)
	fmt.Printf("scheduler.tick_interval: %s\n", cfg.Scheduler.TickInterval)
	fmt.Printf("scheduler.task_timeout: %s\n", cfg.Scheduler.TaskTimeout)
	fmt.Printf("scheduler.health_check_interval: %s\n", cfg.Scheduler.HealthCheckInterval)
	fmt.Printf("scheduler.max_task_retries: %d\n", cfg.Scheduler.MaxTaskRetries)
	fmt.Printf("agents.max_concurrent: %d\n", cfg.Agents.MaxConcurrent)
	fmt.Printf("agents.templates_file: %s\n", orUnset(cfg.Agents.TemplatesFile))
	fmt.Printf("messages.retention: %s\n", cfg.Messages.Retention)
	fmt.Printf("observability.server: %s\n", orUnset(cfg.Observability.Server))
	fmt.Printf("observability.session_id: %s\n", cfg.Observability.SessionID)
	fmt.Printf("journal.enabled: %t\n", cfg.Journal.Enabled)
	fmt.Printf("journal.path: %s\n", orUnset(cfg.Journal.Path))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "scheduler.auto_assign":
		return strconv.FormatBool(cfg.Scheduler.AutoAssign), nil
	case "scheduler.tick_interval":
		return cfg.Scheduler.TickInterval.String(), nil
	case "scheduler.task_timeout":
		return cfg.Scheduler.TaskTimeout.String(), nil
	case "scheduler.health_check_interval":
		return cfg.Scheduler.HealthCheckInterval.String(), nil
	case "scheduler.max_task_retries":
		return strconv.Itoa(cfg.Scheduler.MaxTaskRetries), nil
	case "agents.max_concurrent":
		return strconv.Itoa(cfg.Agents.MaxConcurrent), nil
	case "agents.templates_file":
		return orUnset(cfg.Agents.TemplatesFile), nil
	case "messages.retention":
		return cfg.Messages.Retention.String(), nil
	case "observability.server":
		return orUnset(cfg.Observability.Server), nil
	case "observability.session_id":
		return cfg.Observability.SessionID, nil
	case "journal.enabled":
		return strconv.FormatBool(cfg.Journal.Enabled), nil
	case "journal.path":
		return orUnset(cfg.Journal.Path), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "scheduler.auto_assign":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for auto_assign: %w", err)
		}
		cfg.Scheduler.AutoAssign = b
	case "scheduler.tick_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for tick_interval: %w", err)
		}
		cfg.Scheduler.TickInterval = d
	case "scheduler.task_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for task_timeout: %w", err)
		}
		cfg.Scheduler.TaskTimeout = d
	case "scheduler.health_check_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for health_check_interval: %w", err)
		}
		cfg.Scheduler.HealthCheckInterval = d
	case "scheduler.max_task_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_task_retries: %w", err)
		}
		cfg.Scheduler.MaxTaskRetries = n
	case "agents.max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_concurrent: %w", err)
		}
		cfg.Agents.MaxConcurrent = n
	case "agents.templates_file":
		cfg.Agents.TemplatesFile = value
	case "messages.retention":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for retention: %w", err)
		}
		cfg.Messages.Retention = d
	case "observability.server":
		cfg.Observability.Server = value
	case "observability.session_id":
		cfg.Observability.SessionID = value
	case "journal.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for journal.enabled: %w", err)
		}
		cfg.Journal.Enabled = b
	case "journal.path":
		cfg.Journal.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
