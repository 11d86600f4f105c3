// Package config handles configuration loading for maestro.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the coordinator.
type Config struct {
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Agents        AgentsConfig        `mapstructure:"agents"`
	Messages      MessagesConfig      `mapstructure:"messages"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Journal       JournalConfig       `mapstructure:"journal"`
}

// SchedulerConfig holds scheduling behavior settings.
type SchedulerConfig struct {
	// AutoAssign toggles whether the scheduling loop runs automatically.
	// When false, ticks happen only on demand.
	AutoAssign bool `mapstructure:"auto_assign"`
	// TickInterval is the idle interval between automatic scheduling ticks.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// TaskTimeout is how long a task may stay assigned or in progress
	// before the attempt is treated as a failure.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// HealthCheckInterval is how often the timeout sweep runs.
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	// MaxTaskRetries is the number of execution attempts before a task
	// fails permanently.
	MaxTaskRetries int `mapstructure:"max_task_retries"`
}

// AgentsConfig holds agent pool settings.
type AgentsConfig struct {
	// MaxConcurrent caps the number of registered agents.
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// TemplatesFile optionally overrides the built-in role templates.
	TemplatesFile string `mapstructure:"templates_file"`
}

// MessagesConfig holds message bus settings.
type MessagesConfig struct {
	// Retention is how long messages stay in the log.
	Retention time.Duration `mapstructure:"retention"`
}

// ObservabilityConfig holds collector settings.
type ObservabilityConfig struct {
	// Server is the collector base URL. Empty disables delivery.
	Server string `mapstructure:"server"`
	// SessionID labels this coordinator's events.
	SessionID string `mapstructure:"session_id"`
}

// JournalConfig holds the local event journal settings.
type JournalConfig struct {
	// Enabled toggles the SQLite lifecycle journal.
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the journal database location.
	Path string `mapstructure:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			AutoAssign:          true,
			TickInterval:        2 * time.Second,
			TaskTimeout:         60 * time.Minute,
			HealthCheckInterval: 30 * time.Second,
			MaxTaskRetries:      3,
		},
		Agents: AgentsConfig{
			MaxConcurrent: 5,
		},
		Messages: MessagesConfig{
			Retention: 24 * time.Hour,
		},
		Observability: ObservabilityConfig{
			Server:    "http://localhost:4000",
			SessionID: "coordinator",
		},
		Journal: JournalConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (MAESTRO_*)
// 2. Project config (.maestro.yaml in current directory or a parent)
// 3. User config (~/.config/maestro/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("MAESTRO")
	v.AutomaticEnv()
	v.BindEnv("observability.server", "MAESTRO_OBSERVABILITY_SERVER")
	v.BindEnv("scheduler.auto_assign", "MAESTRO_AUTO_ASSIGN")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("scheduler.auto_assign", def.Scheduler.AutoAssign)
	v.SetDefault("scheduler.tick_interval", def.Scheduler.TickInterval)
	v.SetDefault("scheduler.task_timeout", def.Scheduler.TaskTimeout)
	v.SetDefault("scheduler.health_check_interval", def.Scheduler.HealthCheckInterval)
	v.SetDefault("scheduler.max_task_retries", def.Scheduler.MaxTaskRetries)
	v.SetDefault("agents.max_concurrent", def.Agents.MaxConcurrent)
	v.SetDefault("messages.retention", def.Messages.Retention)
	v.SetDefault("observability.server", def.Observability.Server)
	v.SetDefault("observability.session_id", def.Observability.SessionID)
	v.SetDefault("journal.enabled", def.Journal.Enabled)
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	dir := userConfigDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))

	v.Set("scheduler.auto_assign", cfg.Scheduler.AutoAssign)
	v.Set("scheduler.tick_interval", cfg.Scheduler.TickInterval.String())
	v.Set("scheduler.task_timeout", cfg.Scheduler.TaskTimeout.String())
	v.Set("scheduler.health_check_interval", cfg.Scheduler.HealthCheckInterval.String())
	v.Set("scheduler.max_task_retries", cfg.Scheduler.MaxTaskRetries)
	v.Set("agents.max_concurrent", cfg.Agents.MaxConcurrent)
	v.Set("agents.templates_file", cfg.Agents.TemplatesFile)
	v.Set("messages.retention", cfg.Messages.Retention.String())
	v.Set("observability.server", cfg.Observability.Server)
	v.Set("observability.session_id", cfg.Observability.SessionID)
	v.Set("journal.enabled", cfg.Journal.Enabled)
	v.Set("journal.path", cfg.Journal.Path)

	return v.WriteConfig()
}

// UserConfigPath returns the path to the user config file.
func UserConfigPath() string {
	return filepath.Join(userConfigDir(), "config.yaml")
}

// userConfigDir returns the XDG config directory for maestro.
func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "maestro")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "maestro")
}

// findProjectConfig walks from the current directory upward looking for a
// .maestro.yaml file.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".maestro.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
