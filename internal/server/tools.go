package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gitmcp/gitmcp/internal/storage"
)

// workspaceID is the argument every repository-scoped tool requires.
func workspaceID(req mcp.CallToolRequest) (string, error) {
	return req.RequireString("workspace_id")
}

func (s *Server) workspaceTools() []registeredTool {
	return []registeredTool{
		{
			def: mcp.NewTool("git_allocate_workspace",
				mcp.WithDescription("Allocate a fresh isolated workspace directory for git operations."),
			),
			handler: func(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
				return s.svc.AllocateWorkspace(ctx)
			},
		},
		{
			def: mcp.NewTool("git_get_workspace",
				mcp.WithDescription("Get one workspace record by ID."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.GetWorkspace(ctx, id)
			},
		},
		{
			def: mcp.NewTool("git_release_workspace",
				mcp.WithDescription("Delete a workspace directory and its record."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				released, err := s.svc.ReleaseWorkspace(ctx, id)
				if err != nil {
					return nil, err
				}
				return map[string]any{"released": released}, nil
			},
		},
		{
			def: mcp.NewTool("git_list_workspaces",
				mcp.WithDescription("List allocated workspaces."),
				mcp.WithNumber("limit", mcp.Description("Maximum records to return (default 100)")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				return s.svc.ListWorkspaces(ctx, req.GetInt("limit", 100))
			},
		},
		{
			def: mcp.NewTool("git_disk_space",
				mcp.WithDescription("Report filesystem capacity under the workspace root and low-space status."),
				mcp.WithNumber("warning_threshold", mcp.Description("Free-space percentage below which to warn (default 20)")),
			),
			handler: func(_ context.Context, req mcp.CallToolRequest) (any, error) {
				return s.svc.DiskSpace(req.GetFloat("warning_threshold", 20))
			},
		},
	}
}

func (s *Server) taskTools() []registeredTool {
	return []registeredTool{
		{
			def: mcp.NewTool("git_create_task",
				mcp.WithDescription("Queue a long-running git operation (clone, push, pull, fetch, lfs_pull) as a background task."),
				mcp.WithString("operation", mcp.Required(), mcp.Description("Operation name")),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithObject("params", mcp.Description("Operation parameters, e.g. {\"url\": ...} for clone")),
				mcp.WithNumber("priority", mcp.Description("Scheduling priority, higher runs first")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				operation, err := req.RequireString("operation")
				if err != nil {
					return nil, err
				}
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				params, _ := req.GetArguments()["params"].(map[string]any)
				t, err := s.svc.CreateGitTask(ctx, operation, id, params, req.GetInt("priority", 0))
				if err != nil {
					return nil, err
				}
				return map[string]any{"task_id": t.ID, "status": t.Status}, nil
			},
		},
		{
			def: mcp.NewTool("git_task_status",
				mcp.WithDescription("Get the current state of a task."),
				mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := req.RequireString("task_id")
				if err != nil {
					return nil, err
				}
				t, err := s.svc.TaskStatus(ctx, id)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"task_id":   t.ID,
					"operation": t.Operation,
					"status":    t.Status,
					"progress":  t.Progress,
				}, nil
			},
		},
		{
			def: mcp.NewTool("git_task_result",
				mcp.WithDescription("Get the retained result of a finished task."),
				mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := req.RequireString("task_id")
				if err != nil {
					return nil, err
				}
				return s.svc.TaskResult(ctx, id)
			},
		},
		{
			def: mcp.NewTool("git_cancel_task",
				mcp.WithDescription("Cancel a queued or running task."),
				mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := req.RequireString("task_id")
				if err != nil {
					return nil, err
				}
				cancelled, err := s.svc.CancelTask(ctx, id)
				if err != nil {
					return nil, err
				}
				return map[string]any{"cancelled": cancelled}, nil
			},
		},
		{
			def: mcp.NewTool("git_list_tasks",
				mcp.WithDescription("List tasks, newest first."),
				mcp.WithString("status", mcp.Description("Filter: queued, running, completed, failed, cancelled")),
				mcp.WithNumber("limit", mcp.Description("Maximum records (default 100)")),
				mcp.WithNumber("offset", mcp.Description("Records to skip")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				status := storage.TaskStatus(req.GetString("status", ""))
				tasks, err := s.svc.ListTasks(ctx, status, req.GetInt("limit", 100), req.GetInt("offset", 0))
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, 0, len(tasks))
				for _, t := range tasks {
					out = append(out, map[string]any{
						"task_id":    t.ID,
						"operation":  t.Operation,
						"status":     t.Status,
						"progress":   t.Progress,
						"created_at": t.CreatedAt,
					})
				}
				return out, nil
			},
		},
		{
			def: mcp.NewTool("git_operation_logs",
				mcp.WithDescription("Get operation log lines recorded for a task or workspace."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task or workspace ID")),
				mcp.WithNumber("limit", mcp.Description("Maximum lines (default 100)")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := req.RequireString("id")
				if err != nil {
					return nil, err
				}
				logs, err := s.svc.OperationLogs(ctx, id, req.GetInt("limit", 100))
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, 0, len(logs))
				for _, l := range logs {
					out = append(out, map[string]any{
						"operation": l.Operation,
						"level":     l.Level,
						"message":   l.Message,
						"timestamp": l.Timestamp,
					})
				}
				return out, nil
			},
		},
		{
			def: mcp.NewTool("git_stats",
				mcp.WithDescription("Runtime counters: tasks, cache, workspaces."),
			),
			handler: func(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
				return s.svc.Stats(ctx)
			},
		},
	}
}
