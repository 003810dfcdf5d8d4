// Command gitmcp runs the MCP git server. The serve command speaks the
// protocol on stdin/stdout, so all logging goes to stderr.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gitmcp/gitmcp/internal/audit"
	"github.com/gitmcp/gitmcp/internal/config"
	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/metrics"
	"github.com/gitmcp/gitmcp/internal/observability"
	"github.com/gitmcp/gitmcp/internal/ratelimit"
	"github.com/gitmcp/gitmcp/internal/server"
	"github.com/gitmcp/gitmcp/internal/service"
	"github.com/gitmcp/gitmcp/internal/storage"
	"github.com/gitmcp/gitmcp/internal/task"
	"github.com/gitmcp/gitmcp/internal/vault"
	"github.com/gitmcp/gitmcp/internal/version"
	"github.com/gitmcp/gitmcp/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:""`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
		Backend  string `help:"Git backend: cli or native" default:"cli" enum:"cli,native"`
		Metrics  bool   `help:"Expose Prometheus metrics on the configured host/port"`
		AuditLog string `help:"Append audit events to this file"`
	} `cmd:"" help:"Serve MCP tools over stdio"`

	Version struct{} `cmd:"" help:"Print the version and exit"`
}

func main() {
	ctx := kong.Parse(&CLI)

	switch ctx.Command() {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("%s %s (commit %s, built %s)\n", server.Name, version.Version, version.GitCommit, version.BuildTime)
	}
}

func runServe() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if CLI.Verbose {
		level = "debug"
	}
	log := observability.Setup(level)

	auditLog, err := audit.NewLogger(1000, CLI.Serve.AuditLog)
	if err != nil {
		return err
	}
	defer auditLog.Close()
	auditLog.Info(audit.EventSystemStart, "", map[string]any{"backend": CLI.Serve.Backend})

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o750); err != nil {
		return err
	}
	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if CLI.Serve.Metrics {
		registry := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(registry)
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go serveMetrics(addr, registry)
		log.Info("metrics endpoint enabled", "addr", addr)
	}

	workspaces, err := workspace.NewManager(store, workspace.Config{
		RootPath:      cfg.Workspace.Path,
		MaxSizeBytes:  cfg.Workspace.MaxSizeBytes,
		Retention:     cfg.WorkspaceRetention(),
		Strategy:      workspace.CleanupStrategy(cfg.Workspace.CleanupStrategy),
		MaxWorkspaces: cfg.Workspace.MaxWorkspaces,
	}, rec, auditLog)
	if err != nil {
		return err
	}

	tasks := task.NewManager(store, task.Config{
		MaxConcurrent:   int64(cfg.Execution.MaxConcurrentTasks),
		Timeout:         cfg.TaskTimeout(),
		ResultRetention: cfg.TaskRetention(),
	}, rec)

	var adapter gitops.Adapter
	switch CLI.Serve.Backend {
	case "native":
		adapter = gitops.NewGoGit()
	default:
		adapter = gitops.NewCLI()
	}

	svc := service.New(store, adapter, workspaces, tasks, vault.NewManager(auditLog), rec, auditLog)
	if err := svc.Start(); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			log.Warn("shutdown incomplete", logfields.Error(err))
		}
	}()

	srv := server.New(svc, ratelimit.New(ratelimit.DefaultConfig(), rec, auditLog))
	return srv.ServeStdio()
}

func serveMetrics(addr string, registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "metrics server stopped: %s\n", err)
	}
}
