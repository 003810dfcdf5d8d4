package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/storage"
	"github.com/gitmcp/gitmcp/internal/task"
)

// CreateGitTask queues a git operation for background execution and
// returns the task record immediately. Supported operations are the
// long-running network ones: clone, push, pull, fetch, and lfs_pull.
func (s *Service) CreateGitTask(ctx context.Context, operation, workspaceID string, params map[string]any, priority int) (*storage.Task, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if _, ok := taskRunners[operation]; !ok {
		return nil, giterr.Validation(giterr.CodeParameterConflict,
			fmt.Sprintf("Operation %q cannot run as a task", operation)).
			WithSuggestion("Use one of: clone, push, pull, fetch, lfs_pull").
			WithParam("operation", operation)
	}

	t, err := s.tasks.Create(ctx, operation, params, ws.Path, priority)
	if err != nil {
		return nil, err
	}

	err = s.tasks.Submit(ctx, t.ID, func(taskCtx context.Context) (map[string]any, error) {
		// Mark the task underway before the adapter call so callers
		// polling git_task_status see movement on long operations.
		if progErr := s.tasks.UpdateProgress(taskCtx, t.ID, 10); progErr != nil {
			s.log.Debug("progress update skipped", logfields.TaskID(t.ID), logfields.Error(progErr))
		}
		return taskRunners[operation](taskCtx, s, workspaceID, params)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// taskRunners maps task operation names to their facade calls. Each
// runner pulls its arguments out of the task params map.
var taskRunners = map[string]func(ctx context.Context, s *Service, workspaceID string, params map[string]any) (map[string]any, error){
	"clone": func(ctx context.Context, s *Service, workspaceID string, params map[string]any) (map[string]any, error) {
		url, err := stringParam(params, "url", true)
		if err != nil {
			return nil, err
		}
		opts := gitops.CloneOptions{
			Depth:        intParam(params, "depth"),
			SingleBranch: boolParam(params, "single_branch"),
			Branch:       optString(params, "branch"),
			Filter:       optString(params, "filter"),
		}
		info, err := s.Clone(ctx, workspaceID, url, opts)
		if err != nil {
			return nil, err
		}
		return map[string]any{"oid": info.OID, "message": info.Message}, nil
	},
	"push": func(ctx context.Context, s *Service, workspaceID string, params map[string]any) (map[string]any, error) {
		opts := gitops.PushOptions{
			Remote: optString(params, "remote"),
			Branch: optString(params, "branch"),
			Force:  boolParam(params, "force"),
		}
		if err := s.Push(ctx, workspaceID, opts); err != nil {
			return nil, err
		}
		return map[string]any{"pushed": true}, nil
	},
	"pull": func(ctx context.Context, s *Service, workspaceID string, params map[string]any) (map[string]any, error) {
		opts := gitops.PullOptions{
			Remote: optString(params, "remote"),
			Branch: optString(params, "branch"),
			Rebase: boolParam(params, "rebase"),
		}
		if err := s.Pull(ctx, workspaceID, opts); err != nil {
			return nil, err
		}
		return map[string]any{"pulled": true}, nil
	},
	"fetch": func(ctx context.Context, s *Service, workspaceID string, params map[string]any) (map[string]any, error) {
		if err := s.Fetch(ctx, workspaceID, optString(params, "remote")); err != nil {
			return nil, err
		}
		return map[string]any{"fetched": true}, nil
	},
	"lfs_pull": func(ctx context.Context, s *Service, workspaceID string, params map[string]any) (map[string]any, error) {
		opts := gitops.LfsOptions{Remote: optString(params, "remote")}
		if err := s.LfsPull(ctx, workspaceID, opts); err != nil {
			return nil, err
		}
		return map[string]any{"pulled": true}, nil
	},
}

// TaskStatus returns the task record.
func (s *Service) TaskStatus(ctx context.Context, taskID string) (*storage.Task, error) {
	return s.tasks.Get(ctx, taskID)
}

// TaskResult returns the retained outcome of a task.
func (s *Service) TaskResult(ctx context.Context, taskID string) (*task.Result, error) {
	return s.tasks.GetResult(ctx, taskID)
}

// CancelTask cancels a queued or running task. Returns false if the
// task had already finished.
func (s *Service) CancelTask(ctx context.Context, taskID string) (bool, error) {
	return s.tasks.Cancel(ctx, taskID)
}

// ListTasks returns tasks, newest first, optionally filtered by status.
func (s *Service) ListTasks(ctx context.Context, status storage.TaskStatus, limit, offset int) ([]*storage.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.tasks.List(ctx, status, limit, offset)
}

// OperationLogs returns the log lines recorded for a task or workspace.
func (s *Service) OperationLogs(ctx context.Context, id string, limit int) ([]*storage.OperationLog, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.GetOperationLogs(ctx, id, limit)
}

// ServiceStats aggregates runtime counters across the subsystems.
type ServiceStats struct {
	Tasks      task.Stats `json:"tasks"`
	CacheHits  int64      `json:"cache_hits"`
	CacheMiss  int64      `json:"cache_misses"`
	CacheSize  int        `json:"cache_size"`
	Workspaces int        `json:"workspaces"`
	UptimeHint time.Time  `json:"collected_at"`
}

// Stats returns a snapshot of task, cache, and workspace counters.
func (s *Service) Stats(ctx context.Context) (*ServiceStats, error) {
	usage, err := s.workspaces.Usage(ctx)
	if err != nil {
		return nil, err
	}
	hits, misses, size := s.cache.Stats()
	return &ServiceStats{
		Tasks:      s.tasks.Stats(),
		CacheHits:  hits,
		CacheMiss:  misses,
		CacheSize:  size,
		Workspaces: usage.TotalWorkspaces,
		UptimeHint: time.Now().UTC(),
	}, nil
}

func stringParam(params map[string]any, key string, required bool) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		if required {
			return "", giterr.Validation(giterr.CodeMissingRequiredParam,
				fmt.Sprintf("Missing required parameter %q", key)).WithParam("param", key)
		}
		return "", nil
	}
	return v, nil
}

func optString(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
