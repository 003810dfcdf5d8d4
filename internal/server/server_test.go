package server

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/ratelimit"
	"github.com/gitmcp/gitmcp/internal/service"
	"github.com/gitmcp/gitmcp/internal/storage"
	"github.com/gitmcp/gitmcp/internal/task"
	"github.com/gitmcp/gitmcp/internal/vault"
	"github.com/gitmcp/gitmcp/internal/workspace"
)

func testServer(t *testing.T, limitCfg ratelimit.Config) *Server {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "gitmcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	workspaces, err := workspace.NewManager(store, workspace.Config{
		RootPath:     t.TempDir(),
		MaxSizeBytes: 1 << 30,
		Retention:    time.Hour,
	}, nil, nil)
	require.NoError(t, err)

	tasks := task.NewManager(store, task.Config{MaxConcurrent: 2, Timeout: 5 * time.Second, ResultRetention: time.Hour}, nil)
	t.Cleanup(func() { _ = tasks.Stop() })

	svc := service.New(store, nil, workspaces, tasks, vault.NewManager(nil), nil, nil)
	return New(svc, ratelimit.New(limitCfg, nil, nil))
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, rt := range s.registry {
		if rt.def.Name == name {
			req := mcp.CallToolRequest{}
			req.Params.Name = name
			req.Params.Arguments = args
			result, err := s.wrap(name, rt.handler)(t.Context(), req)
			require.NoError(t, err)
			return result
		}
	}
	t.Fatalf("tool %s not registered", name)
	return nil
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToolSurfaceIsComplete(t *testing.T) {
	s := testServer(t, ratelimit.DefaultConfig())

	registered := make(map[string]bool)
	for _, name := range s.ToolNames() {
		require.False(t, registered[name], "duplicate tool %s", name)
		registered[name] = true
	}

	expected := []string{
		"git_allocate_workspace", "git_get_workspace", "git_release_workspace",
		"git_list_workspaces", "git_disk_space",
		"git_clone", "git_init", "git_status", "git_stage", "git_unstage",
		"git_commit", "git_push", "git_pull", "git_fetch", "git_checkout",
		"git_merge", "git_rebase", "git_cherry_pick", "git_revert",
		"git_log", "git_show", "git_diff", "git_blame", "git_clean",
		"git_list_branches", "git_create_branch", "git_delete_branch",
		"git_stash", "git_list_stash",
		"git_list_tags", "git_create_tag", "git_delete_tag",
		"git_list_remotes", "git_add_remote", "git_remove_remote",
		"git_lfs_init", "git_lfs_track", "git_lfs_untrack", "git_lfs_status",
		"git_lfs_pull", "git_lfs_push", "git_lfs_fetch",
		"git_sparse_checkout",
		"git_submodule_add", "git_submodule_update", "git_submodule_deinit", "git_submodule_list",
		"git_create_task", "git_task_status", "git_task_result",
		"git_cancel_task", "git_list_tasks", "git_operation_logs", "git_stats",
	}
	for _, name := range expected {
		assert.True(t, registered[name], "missing tool %s", name)
	}
}

func TestWorkspaceToolsRoundTrip(t *testing.T) {
	s := testServer(t, ratelimit.DefaultConfig())

	result := callTool(t, s, "git_allocate_workspace", nil)
	require.False(t, result.IsError)

	var ws struct {
		WorkspaceID string `json:"workspace_id"`
		Path        string `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &ws))
	assert.NotEmpty(t, ws.WorkspaceID)
	assert.DirExists(t, ws.Path)

	result = callTool(t, s, "git_release_workspace", map[string]any{"workspace_id": ws.WorkspaceID})
	require.False(t, result.IsError)
	assert.JSONEq(t, `{"released": true}`, resultText(t, result))
}

func TestTypedErrorsCarryWireForm(t *testing.T) {
	s := testServer(t, ratelimit.DefaultConfig())

	result := callTool(t, s, "git_status", map[string]any{"workspace_id": "missing"})
	require.True(t, result.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, float64(giterr.CodeRepoNotFound), payload["code"])
}

func TestMissingRequiredArgumentIsAnError(t *testing.T) {
	s := testServer(t, ratelimit.DefaultConfig())

	result := callTool(t, s, "git_status", nil)
	assert.True(t, result.IsError)
}

func TestRateLimitRejectsExcessCalls(t *testing.T) {
	s := testServer(t, ratelimit.Config{RequestsPerSecond: 1, Burst: 1})

	first := callTool(t, s, "git_stats", nil)
	require.False(t, first.IsError)

	second := callTool(t, s, "git_stats", nil)
	require.True(t, second.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, second)), &payload))
	assert.Equal(t, float64(giterr.CodeResourceExhausted), payload["code"])
}

func TestNilResultMarshalsToOK(t *testing.T) {
	result, err := textResult(nil)
	require.NoError(t, err)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"ok": true}`, text.Text)
}

func TestUnknownStashActionRejected(t *testing.T) {
	s := testServer(t, ratelimit.DefaultConfig())

	allocated := callTool(t, s, "git_allocate_workspace", nil)
	var ws struct {
		WorkspaceID string `json:"workspace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, allocated)), &ws))

	result := callTool(t, s, "git_stash", map[string]any{
		"workspace_id": ws.WorkspaceID,
		"action":       "explode",
	})
	require.True(t, result.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, float64(giterr.CodeMissingRequiredParam), payload["code"])
}
