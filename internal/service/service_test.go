package service

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/storage"
	"github.com/gitmcp/gitmcp/internal/task"
	"github.com/gitmcp/gitmcp/internal/vault"
	"github.com/gitmcp/gitmcp/internal/workspace"
)

// fakeAdapter overrides the handful of methods each test exercises.
// Calling anything else panics on the nil embedded interface, which is
// exactly what a test with an unexpected adapter call deserves.
type fakeAdapter struct {
	gitops.Adapter

	cloneCalls  atomic.Int32
	statusCalls atomic.Int32
	pushCalls   atomic.Int32

	cloneURL   string
	pushBranch string
	branchName string
	pushErr    error
	statusInfo *gitops.StatusInfo
	headCommit *gitops.CommitInfo
}

func (f *fakeAdapter) Clone(_ context.Context, url, _ string, _ gitops.CloneOptions, _ *vault.Credential) (*gitops.CommitInfo, error) {
	f.cloneCalls.Add(1)
	f.cloneURL = url
	if f.headCommit != nil {
		return f.headCommit, nil
	}
	return &gitops.CommitInfo{OID: "abc123", Message: "initial"}, nil
}

func (f *fakeAdapter) Status(_ context.Context, _ string) (*gitops.StatusInfo, error) {
	f.statusCalls.Add(1)
	if f.statusInfo != nil {
		return f.statusInfo, nil
	}
	return &gitops.StatusInfo{Branch: "main", Clean: true}, nil
}

func (f *fakeAdapter) Commit(_ context.Context, _ string, opts gitops.CommitOptions) (*gitops.CommitInfo, error) {
	return &gitops.CommitInfo{OID: "def456", Message: opts.Message}, nil
}

func (f *fakeAdapter) Push(_ context.Context, _ string, opts gitops.PushOptions, _ *vault.Credential) error {
	f.pushCalls.Add(1)
	f.pushBranch = opts.Branch
	return f.pushErr
}

func (f *fakeAdapter) CreateBranch(_ context.Context, _, name string, _ bool) error {
	f.branchName = name
	return nil
}

func (f *fakeAdapter) ListBranches(_ context.Context, _ string, _ bool) ([]gitops.BranchInfo, error) {
	return []gitops.BranchInfo{{Name: "main", IsCurrent: true}}, nil
}

func testService(t *testing.T) (*Service, *fakeAdapter) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "gitmcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	workspaces, err := workspace.NewManager(store, workspace.Config{
		RootPath:     t.TempDir(),
		MaxSizeBytes: 10 << 30,
		Retention:    time.Hour,
	}, nil, nil)
	require.NoError(t, err)

	tasks := task.NewManager(store, task.Config{
		MaxConcurrent:   2,
		Timeout:         5 * time.Second,
		ResultRetention: time.Hour,
	}, nil)
	t.Cleanup(func() { _ = tasks.Stop() })

	adapter := &fakeAdapter{}
	svc := New(store, adapter, workspaces, tasks, vault.NewManager(nil), nil, nil)
	return svc, adapter
}

func allocate(t *testing.T, svc *Service) string {
	t.Helper()
	ws, err := svc.AllocateWorkspace(t.Context())
	require.NoError(t, err)
	return ws.WorkspaceID
}

func TestWorkspaceLifecycle(t *testing.T) {
	svc, _ := testService(t)
	ctx := t.Context()

	ws, err := svc.AllocateWorkspace(ctx)
	require.NoError(t, err)
	assert.DirExists(t, ws.Path)

	got, err := svc.GetWorkspace(ctx, ws.WorkspaceID)
	require.NoError(t, err)
	assert.Equal(t, ws.Path, got.Path)

	list, err := svc.ListWorkspaces(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	released, err := svc.ReleaseWorkspace(ctx, ws.WorkspaceID)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = svc.ReleaseWorkspace(ctx, ws.WorkspaceID)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestCloneSanitizesURL(t *testing.T) {
	svc, adapter := testService(t)
	wsID := allocate(t, svc)

	info, err := svc.Clone(t.Context(), wsID, "https://example.com/repo.git", gitops.CloneOptions{})
	require.NoError(t, err)
	assert.Equal(t, "abc123", info.OID)
	assert.Equal(t, "https://example.com/repo.git", adapter.cloneURL)

	_, err = svc.Clone(t.Context(), wsID, "ftp://nope", gitops.CloneOptions{})
	var gitErr *giterr.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeInvalidRemoteURL, gitErr.Code)
	assert.Equal(t, int32(1), adapter.cloneCalls.Load())
}

func TestUnknownWorkspaceIsRepoNotFound(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Status(t.Context(), "no-such-workspace")
	var gitErr *giterr.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeRepoNotFound, gitErr.Code)
}

func TestStatusIsCachedUntilMutation(t *testing.T) {
	svc, adapter := testService(t)
	wsID := allocate(t, svc)
	ctx := t.Context()

	_, err := svc.Status(ctx, wsID)
	require.NoError(t, err)
	_, err = svc.Status(ctx, wsID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), adapter.statusCalls.Load())

	_, err = svc.Commit(ctx, wsID, gitops.CommitOptions{Message: "change"})
	require.NoError(t, err)

	_, err = svc.Status(ctx, wsID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), adapter.statusCalls.Load())
}

func TestPushSanitizesBranchAndSkipsRetryOnHardFailure(t *testing.T) {
	svc, adapter := testService(t)
	wsID := allocate(t, svc)

	require.NoError(t, svc.Push(t.Context(), wsID, gitops.PushOptions{Branch: "feature/x"}))
	assert.Equal(t, "feature/x", adapter.pushBranch)

	// Non-retryable failures must not be re-attempted.
	adapter.pushErr = giterr.New(giterr.CodeGitNotARepo, "Not a git repository")
	adapter.pushCalls.Store(0)
	err := svc.Push(t.Context(), wsID, gitops.PushOptions{})
	require.Error(t, err)
	assert.Equal(t, int32(1), adapter.pushCalls.Load())
}

func TestCreateBranchRejectsInvalidName(t *testing.T) {
	svc, adapter := testService(t)
	wsID := allocate(t, svc)

	err := svc.CreateBranch(t.Context(), wsID, "HEAD", false)
	var gitErr *giterr.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeInvalidBranchName, gitErr.Code)
	assert.Empty(t, adapter.branchName)

	require.NoError(t, svc.CreateBranch(t.Context(), wsID, "feature/y", false))
	assert.Equal(t, "feature/y", adapter.branchName)
}

func TestSyncOperationsAppendOperationLogs(t *testing.T) {
	svc, _ := testService(t)
	wsID := allocate(t, svc)
	ctx := t.Context()

	_, err := svc.Commit(ctx, wsID, gitops.CommitOptions{Message: "change"})
	require.NoError(t, err)
	require.NoError(t, svc.Push(ctx, wsID, gitops.PushOptions{Branch: "main"}))

	logs, err := svc.OperationLogs(ctx, wsID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "commit", logs[0].Operation)
	assert.Equal(t, "push", logs[1].Operation)
	assert.Equal(t, "info", logs[0].Level)
	assert.Equal(t, "ok", logs[0].Message)
}

func TestCreateGitTaskRunsClone(t *testing.T) {
	svc, adapter := testService(t)
	wsID := allocate(t, svc)
	ctx := t.Context()

	created, err := svc.CreateGitTask(ctx, "clone", wsID, map[string]any{
		"url": "https://example.com/repo.git",
	}, 0)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := svc.TaskStatus(ctx, created.ID)
		return err == nil && got.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)

	result, err := svc.TaskResult(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskCompleted, result.Status)
	assert.Equal(t, "abc123", result.Result["oid"])
	assert.Equal(t, int32(1), adapter.cloneCalls.Load())
}

func TestCreateGitTaskRejectsUnknownOperation(t *testing.T) {
	svc, _ := testService(t)
	wsID := allocate(t, svc)

	_, err := svc.CreateGitTask(t.Context(), "blame", wsID, nil, 0)
	var gitErr *giterr.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeParameterConflict, gitErr.Code)
}

func TestStats(t *testing.T) {
	svc, _ := testService(t)
	allocate(t, svc)

	stats, err := svc.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Workspaces)
	assert.Equal(t, int64(2), stats.Tasks.MaxConcurrent)
}
