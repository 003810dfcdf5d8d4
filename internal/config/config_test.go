package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MCP_GIT_WORKSPACE_PATH", "/var/lib/gitmcp/ws")
	t.Setenv("MCP_GIT_DATABASE_PATH", "/var/lib/gitmcp/db.sqlite")
	t.Setenv("MCP_GIT_LOG_LEVEL", "DEBUG")
	t.Setenv("MCP_GIT_MAX_CONCURRENT_TASKS", "5")
	t.Setenv("MCP_GIT_TASK_TIMEOUT", "60")
	t.Setenv("MCP_GIT_WORKER_COUNT", "2")
	t.Setenv("MCP_GIT_DEFAULT_CLONE_DEPTH", "3")
	t.Setenv("MCP_GIT_SERVER_PORT", "4010")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/gitmcp/ws", cfg.Workspace.Path)
	assert.Equal(t, "/var/lib/gitmcp/db.sqlite", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Execution.MaxConcurrentTasks)
	assert.Equal(t, 60, cfg.Execution.TaskTimeoutSeconds)
	assert.Equal(t, 2, cfg.Execution.WorkerCount)
	assert.Equal(t, 3, cfg.DefaultCloneDepth)
	assert.Equal(t, 4010, cfg.Server.Port)
}

func TestLoadYAMLFileMergedBelowEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "gitmcp.yaml")
	raw := `
workspace:
  path: /from/yaml/ws
  max_workspaces: 42
execution:
  max_concurrent_tasks: 7
log_level: error
`
	require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))
	t.Setenv("MCP_GIT_WORKSPACE_PATH", "/from/env/ws")

	cfg, err := Load(file)
	require.NoError(t, err)

	// env wins over yaml
	assert.Equal(t, "/from/env/ws", cfg.Workspace.Path)
	// yaml wins over defaults
	assert.Equal(t, 42, cfg.Workspace.MaxWorkspaces)
	assert.Equal(t, 7, cfg.Execution.MaxConcurrentTasks)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadMissingYAMLFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty workspace path", func(c *Config) { c.Workspace.Path = "" }},
		{"zero workspace size", func(c *Config) { c.Workspace.MaxSizeBytes = 0 }},
		{"bad cleanup strategy", func(c *Config) { c.Workspace.CleanupStrategy = "random" }},
		{"too many tasks", func(c *Config) { c.Execution.MaxConcurrentTasks = 1000 }},
		{"zero timeout", func(c *Config) { c.Execution.TaskTimeoutSeconds = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"zero clone depth", func(c *Config) { c.DefaultCloneDepth = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, float64(300), cfg.TaskTimeout().Seconds())
	assert.Equal(t, float64(3600), cfg.WorkspaceRetention().Seconds())
	assert.Equal(t, float64(3600), cfg.TaskRetention().Seconds())
}
