package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Scheduler.AutoAssign {
		t.Error("expected auto_assign to default to true")
	}
	if cfg.Scheduler.TaskTimeout != 60*time.Minute {
		t.Errorf("expected task timeout 60m, got %v", cfg.Scheduler.TaskTimeout)
	}
	if cfg.Scheduler.HealthCheckInterval != 30*time.Second {
		t.Errorf("expected health check interval 30s, got %v", cfg.Scheduler.HealthCheckInterval)
	}
	if cfg.Scheduler.MaxTaskRetries != 3 {
		t.Errorf("expected max task retries 3, got %d", cfg.Scheduler.MaxTaskRetries)
	}
	if cfg.Agents.MaxConcurrent != 5 {
		t.Errorf("expected max concurrent agents 5, got %d", cfg.Agents.MaxConcurrent)
	}
	if cfg.Messages.Retention != 24*time.Hour {
		t.Errorf("expected message retention 24h, got %v", cfg.Messages.Retention)
	}
	if cfg.Observability.Server != "http://localhost:4000" {
		t.Errorf("expected default observability server, got %q", cfg.Observability.Server)
	}
	if cfg.Observability.SessionID != "coordinator" {
		t.Errorf("expected session id 'coordinator', got %q", cfg.Observability.SessionID)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Point both config sources at an empty directory.
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Scheduler.MaxTaskRetries != 3 {
		t.Errorf("expected default retries, got %d", cfg.Scheduler.MaxTaskRetries)
	}
}

func TestLoad_UserConfig(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)

	configDir := filepath.Join(tmp, "maestro")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "scheduler:\n  max_task_retries: 7\n  task_timeout: 5m\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Scheduler.MaxTaskRetries != 7 {
		t.Errorf("expected retries 7 from user config, got %d", cfg.Scheduler.MaxTaskRetries)
	}
	if cfg.Scheduler.TaskTimeout != 5*time.Minute {
		t.Errorf("expected timeout 5m from user config, got %v", cfg.Scheduler.TaskTimeout)
	}
	// Untouched keys keep defaults.
	if cfg.Agents.MaxConcurrent != 5 {
		t.Errorf("expected default max concurrent, got %d", cfg.Agents.MaxConcurrent)
	}
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	configDir := filepath.Join(tmp, "maestro")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"),
		[]byte("observability:\n  server: http://user:4000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	project := filepath.Join(tmp, "project")
	if err := os.MkdirAll(project, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ".maestro.yaml"),
		[]byte("observability:\n  server: http://project:4000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(project)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Observability.Server != "http://project:4000" {
		t.Errorf("expected project config to win, got %q", cfg.Observability.Server)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)
	t.Setenv("MAESTRO_OBSERVABILITY_SERVER", "http://env:9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Observability.Server != "http://env:9999" {
		t.Errorf("expected env var to win, got %q", cfg.Observability.Server)
	}
}
