// Package service is the facade in front of the git backends. Every
// operation follows the same shape: sanitize inputs, resolve the
// workspace, touch it, run the adapter (network operations behind a
// retry policy with the vault credential), invalidate cached reads on
// mutation, and record the outcome. The MCP server layer calls nothing
// below this package.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gitmcp/gitmcp/internal/audit"
	"github.com/gitmcp/gitmcp/internal/cache"
	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/metrics"
	"github.com/gitmcp/gitmcp/internal/retry"
	"github.com/gitmcp/gitmcp/internal/storage"
	"github.com/gitmcp/gitmcp/internal/task"
	"github.com/gitmcp/gitmcp/internal/vault"
	"github.com/gitmcp/gitmcp/internal/workspace"
)

// Service orchestrates the git adapter, workspace manager, credential
// vault, and task manager behind one API.
type Service struct {
	store      *storage.Store
	adapter    gitops.Adapter
	workspaces *workspace.Manager
	tasks      *task.Manager
	vault      *vault.Manager
	cache      *cache.Cache
	rec        metrics.Recorder
	audit      *audit.Logger
	log        *slog.Logger

	started bool
}

// New wires the facade. rec and auditLog may be nil; adapter defaults
// to the CLI backend.
func New(store *storage.Store, adapter gitops.Adapter, workspaces *workspace.Manager, tasks *task.Manager, credVault *vault.Manager, rec metrics.Recorder, auditLog *audit.Logger) *Service {
	if adapter == nil {
		adapter = gitops.NewCLI()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Service{
		store:      store,
		adapter:    adapter,
		workspaces: workspaces,
		tasks:      tasks,
		vault:      credVault,
		cache:      cache.New(cache.DefaultTTL),
		rec:        rec,
		audit:      auditLog,
		log:        slog.Default().With("component", "service"),
	}
}

// Start brings up the workspace and task managers.
func (s *Service) Start() error {
	if s.started {
		return nil
	}
	s.log.Info("starting git service")
	if err := s.workspaces.Start(); err != nil {
		return err
	}
	if err := s.tasks.Start(); err != nil {
		return err
	}
	s.started = true
	return nil
}

// Stop shuts the managers down in reverse order.
func (s *Service) Stop() error {
	if !s.started {
		return nil
	}
	s.log.Info("stopping git service")
	if err := s.tasks.Stop(); err != nil {
		return err
	}
	if err := s.workspaces.Stop(); err != nil {
		return err
	}
	s.started = false
	return nil
}

// resolve fetches the workspace and refreshes its access time. A
// missing workspace surfaces as REPO_NOT_FOUND from the store.
func (s *Service) resolve(ctx context.Context, workspaceID string) (*storage.Workspace, error) {
	ws, err := s.workspaces.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.workspaces.Touch(ctx, ws.ID); err != nil {
		s.log.Warn("failed to touch workspace", logfields.WorkspaceID(ws.ID), logfields.Error(err))
	}
	return ws, nil
}

// observe records duration and outcome for one operation, and appends
// an operation log line keyed by the workspace.
func (s *Service) observe(ctx context.Context, operation, workspaceID string, start time.Time, err error) {
	success := err == nil
	s.rec.ObserveOperationDuration(operation, time.Since(start), success)
	s.rec.IncOperationResult(operation, success)

	level, message := "info", "ok"
	if err != nil {
		level, message = "error", err.Error()
	}
	if workspaceID != "" {
		if logErr := s.store.LogOperation(ctx, workspaceID, operation, level, message); logErr != nil {
			s.log.Warn("failed to append operation log", logfields.Operation(operation), logfields.Error(logErr))
		}
	}
}

// invalidate drops cached reads after a mutating operation.
func (s *Service) invalidate(workspaceID string) {
	s.cache.Invalidate(workspaceID)
}

// withRetry runs a network operation under the policy matching its
// name, passing the current vault credential to each attempt.
func withRetry[T any](ctx context.Context, s *Service, operation string, fn func(ctx context.Context, cred *vault.Credential) (T, error)) (T, error) {
	return retry.Do(ctx, operation, retry.PolicyFor(operation), s.rec, func(ctx context.Context) (T, error) {
		return fn(ctx, s.vault.Get(false))
	})
}

// cachedList returns the cached slice for (workspaceID, kind) or
// computes and stores it.
func cachedList[T any](s *Service, workspaceID, kind string, fn func() ([]T, error)) ([]T, error) {
	if v, ok := s.cache.Get(workspaceID, kind); ok {
		if items, ok := v.([]T); ok {
			return items, nil
		}
	}
	items, err := fn()
	if err != nil {
		return nil, err
	}
	s.cache.Put(workspaceID, kind, items)
	return items, nil
}
