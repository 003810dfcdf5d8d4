// Package config holds the runtime configuration for the service and
// loads it from the environment, optional .env files, and an optional
// YAML config file. Precedence: environment > YAML file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// WorkspaceConfig controls the workspace manager.
type WorkspaceConfig struct {
	Path             string `yaml:"path"`
	MaxSizeBytes     int64  `yaml:"max_size_bytes"`
	RetentionSeconds int64  `yaml:"retention_seconds"`
	CleanupStrategy  string `yaml:"cleanup_strategy"`
	MaxWorkspaces    int    `yaml:"max_workspaces"`
}

// DatabaseConfig controls the persistent store.
type DatabaseConfig struct {
	Path                 string `yaml:"path"`
	MaxSizeBytes         int64  `yaml:"max_size_bytes"`
	TaskRetentionSeconds int64  `yaml:"task_retention_seconds"`
}

// ServerConfig controls the transport listen address where applicable;
// the stdio transport ignores it.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ExecutionConfig controls the task manager and worker pool.
type ExecutionConfig struct {
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks"`
	MaxRetries         int `yaml:"max_retries"`
	TaskTimeoutSeconds int `yaml:"task_timeout_seconds"`
	WorkerCount        int `yaml:"worker_count"`
}

// Config is the root configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Execution ExecutionConfig `yaml:"execution"`

	DefaultCloneDepth int    `yaml:"default_clone_depth"`
	LogLevel          string `yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	tmp := os.TempDir()
	return &Config{
		Workspace: WorkspaceConfig{
			Path:             filepath.Join(tmp, "gitmcp", "workspaces"),
			MaxSizeBytes:     10 * 1024 * 1024 * 1024,
			RetentionSeconds: 3600,
			CleanupStrategy:  "lru",
			MaxWorkspaces:    100,
		},
		Database: DatabaseConfig{
			Path:                 filepath.Join(tmp, "gitmcp", "database", "gitmcp.db"),
			MaxSizeBytes:         100 * 1024 * 1024,
			TaskRetentionSeconds: 3600,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 3001,
		},
		Execution: ExecutionConfig{
			MaxConcurrentTasks: 10,
			MaxRetries:         3,
			TaskTimeoutSeconds: 300,
			WorkerCount:        4,
		},
		DefaultCloneDepth: 1,
		LogLevel:          "info",
	}
}

// Load builds the effective configuration. It loads .env/.env.local
// without overriding real environment variables, merges the YAML file at
// path (if non-empty and present), then applies environment overrides.
func Load(path string) (*Config, error) {
	// godotenv.Load never overrides variables already set in the process.
	_ = godotenv.Load(".env", ".env.local")

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MCP_GIT_WORKSPACE_PATH"); v != "" {
		cfg.Workspace.Path = v
	}
	if v := os.Getenv("MCP_GIT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("MCP_GIT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v, ok := envInt("MCP_GIT_SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v := os.Getenv("MCP_GIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := envInt("MCP_GIT_MAX_CONCURRENT_TASKS"); ok {
		cfg.Execution.MaxConcurrentTasks = v
	}
	if v, ok := envInt("MCP_GIT_TASK_TIMEOUT"); ok {
		cfg.Execution.TaskTimeoutSeconds = v
	}
	if v, ok := envInt("MCP_GIT_WORKER_COUNT"); ok {
		cfg.Execution.WorkerCount = v
	}
	if v, ok := envInt("MCP_GIT_DEFAULT_CLONE_DEPTH"); ok {
		cfg.DefaultCloneDepth = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Workspace.Path == "" {
		return fmt.Errorf("workspace path must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Workspace.MaxSizeBytes <= 0 {
		return fmt.Errorf("workspace max_size_bytes must be positive, got %d", c.Workspace.MaxSizeBytes)
	}
	if c.Workspace.RetentionSeconds <= 0 {
		return fmt.Errorf("workspace retention_seconds must be positive, got %d", c.Workspace.RetentionSeconds)
	}
	switch strings.ToLower(c.Workspace.CleanupStrategy) {
	case "lru", "fifo":
	default:
		return fmt.Errorf("workspace cleanup_strategy must be lru or fifo, got %q", c.Workspace.CleanupStrategy)
	}
	if c.Execution.MaxConcurrentTasks < 1 || c.Execution.MaxConcurrentTasks > 100 {
		return fmt.Errorf("max_concurrent_tasks must be in [1,100], got %d", c.Execution.MaxConcurrentTasks)
	}
	if c.Execution.TaskTimeoutSeconds < 1 || c.Execution.TaskTimeoutSeconds > 3600 {
		return fmt.Errorf("task_timeout_seconds must be in [1,3600], got %d", c.Execution.TaskTimeoutSeconds)
	}
	if c.Execution.WorkerCount < 1 || c.Execution.WorkerCount > 20 {
		return fmt.Errorf("worker_count must be in [1,20], got %d", c.Execution.WorkerCount)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.DefaultCloneDepth < 1 {
		return fmt.Errorf("default_clone_depth must be >= 1, got %d", c.DefaultCloneDepth)
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug/info/warning/error, got %q", c.LogLevel)
	}
	return nil
}

// TaskTimeout returns the per-task deadline as a duration.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Execution.TaskTimeoutSeconds) * time.Second
}

// WorkspaceRetention returns the workspace idle retention as a duration.
func (c *Config) WorkspaceRetention() time.Duration {
	return time.Duration(c.Workspace.RetentionSeconds) * time.Second
}

// TaskRetention returns how long terminal task records are kept.
func (c *Config) TaskRetention() time.Duration {
	return time.Duration(c.Database.TaskRetentionSeconds) * time.Second
}
