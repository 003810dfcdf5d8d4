package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmcp/gitmcp/internal/giterr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTask(op string) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Operation: op,
		Status:    TaskQueued,
		Params:    map[string]any{"remote": "origin"},
	}
}

func TestTaskRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Now().UTC().Add(-time.Minute)
	completed := time.Now().UTC()
	in := &Task{
		ID:            uuid.NewString(),
		Operation:     "clone",
		Status:        TaskCompleted,
		WorkspacePath: "/tmp/ws/abc",
		Params:        map[string]any{"url": "https://example.com/r.git", "depth": float64(1)},
		Result:        map[string]any{"commit": "abc123"},
		ErrorMessage:  "",
		Progress:      100,
		Priority:      2,
		StartedAt:     &started,
		CompletedAt:   &completed,
	}
	require.NoError(t, s.CreateTask(ctx, in))

	out, err := s.GetTask(ctx, in.ID)
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Operation, out.Operation)
	assert.Equal(t, in.Status, out.Status)
	assert.Equal(t, in.WorkspacePath, out.WorkspacePath)
	assert.Equal(t, in.Params, out.Params)
	assert.Equal(t, in.Result, out.Result)
	assert.Equal(t, in.Progress, out.Progress)
	assert.Equal(t, in.Priority, out.Priority)
	// Timestamps survive to second precision.
	assert.Equal(t, in.CreatedAt.Unix(), out.CreatedAt.Unix())
	assert.Equal(t, started.Unix(), out.StartedAt.Unix())
	assert.Equal(t, completed.Unix(), out.CompletedAt.Unix())
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTask(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, giterr.CodeTaskNotFound, giterr.CodeOf(err))
}

func TestUpdateTaskWhitelist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := newTask("status")
	require.NoError(t, s.CreateTask(ctx, task))

	t.Run("allowed columns", func(t *testing.T) {
		now := time.Now().UTC()
		err := s.UpdateTask(ctx, task.ID, map[string]any{
			"status":        TaskRunning,
			"progress":      50,
			"started_at":    now,
			"result":        map[string]any{"ok": true},
			"error_message": "",
		})
		require.NoError(t, err)

		got, err := s.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, TaskRunning, got.Status)
		assert.Equal(t, 50, got.Progress)
		require.NotNil(t, got.StartedAt)
		assert.Equal(t, now.Unix(), got.StartedAt.Unix())
	})

	t.Run("unknown column rejected", func(t *testing.T) {
		err := s.UpdateTask(ctx, task.ID, map[string]any{"status": TaskFailed, "evil; DROP TABLE tasks": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not updatable")

		// Nothing was applied.
		got, err := s.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, TaskRunning, got.Status)
	})

	t.Run("unknown task id", func(t *testing.T) {
		err := s.UpdateTask(ctx, "missing", map[string]any{"progress": 10})
		assert.Equal(t, giterr.CodeTaskNotFound, giterr.CodeOf(err))
	})
}

func TestGetTasksBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		task := newTask("status")
		require.NoError(t, s.CreateTask(ctx, task))
		ids = append(ids, task.ID)
	}

	got, err := s.GetTasksBatch(ctx, append(ids[:3], "missing"))
	require.NoError(t, err)
	assert.Len(t, got, 3)

	empty, err := s.GetTasksBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetPendingTasksOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	mk := func(priority int, offset time.Duration) string {
		task := newTask("clone")
		task.Priority = priority
		task.CreatedAt = base.Add(offset)
		require.NoError(t, s.CreateTask(ctx, task))
		return task.ID
	}

	lowOld := mk(0, 0)
	lowNew := mk(0, 10*time.Second)
	high := mk(5, 20*time.Second)

	// A running task must not appear.
	running := newTask("push")
	running.Status = TaskRunning
	require.NoError(t, s.CreateTask(ctx, running))

	pending, err := s.GetPendingTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, high, pending[0].ID)
	assert.Equal(t, lowOld, pending[1].ID)
	assert.Equal(t, lowNew, pending[2].ID)
}

func TestLogOperationAcceptsWorkspaceKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Synchronous facade operations log under the workspace id, which
	// has no row in tasks; the insert must still succeed.
	wsID := uuid.NewString()
	require.NoError(t, s.LogOperation(ctx, wsID, "clone", "info", "ok"))
	require.NoError(t, s.LogOperation(ctx, wsID, "status", "error", "not a repository"))

	logs, err := s.GetOperationLogs(ctx, wsID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "clone", logs[0].Operation)
	assert.Equal(t, "error", logs[1].Level)
}

func TestDeleteWorkspaceRemovesLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w := &Workspace{ID: uuid.NewString(), Path: "/tmp/ws/" + uuid.NewString()}
	require.NoError(t, s.CreateWorkspace(ctx, w))
	require.NoError(t, s.LogOperation(ctx, w.ID, "status", "info", "ok"))

	existed, err := s.DeleteWorkspace(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	logs, err := s.GetOperationLogs(ctx, w.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestDeleteTaskCascadesLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := newTask("commit")
	require.NoError(t, s.CreateTask(ctx, task))
	require.NoError(t, s.LogOperation(ctx, task.ID, "commit", "info", "started"))
	require.NoError(t, s.LogOperation(ctx, task.ID, "commit", "info", "finished"))

	logs, err := s.GetOperationLogs(ctx, task.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "started", logs[0].Message)

	existed, err := s.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	logs, err = s.GetOperationLogs(ctx, task.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	existed, err = s.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestCleanupExpiredTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-2 * time.Hour)
	expired := newTask("clone")
	expired.Status = TaskCompleted
	expired.CompletedAt = &old
	require.NoError(t, s.CreateTask(ctx, expired))
	require.NoError(t, s.LogOperation(ctx, expired.ID, "clone", "info", "completed"))

	fresh := time.Now().UTC()
	recent := newTask("clone")
	recent.Status = TaskFailed
	recent.CompletedAt = &fresh
	require.NoError(t, s.CreateTask(ctx, recent))

	// Non-terminal tasks are never cleaned even if old.
	running := newTask("push")
	running.Status = TaskRunning
	running.CreatedAt = old
	require.NoError(t, s.CreateTask(ctx, running))

	n, err := s.CleanupExpiredTasks(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetTask(ctx, expired.ID)
	assert.Error(t, err)
	_, err = s.GetTask(ctx, recent.ID)
	assert.NoError(t, err)
	_, err = s.GetTask(ctx, running.ID)
	assert.NoError(t, err)

	logs, err := s.GetOperationLogs(ctx, expired.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestListTasksFilterAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		task := newTask("log")
		if i%2 == 0 {
			task.Status = TaskCompleted
		}
		task.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		require.NoError(t, s.CreateTask(ctx, task))
	}

	completed, err := s.ListTasks(ctx, TaskCompleted, 10, 0)
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	all, err := s.ListTasks(ctx, "", 3, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rest, err := s.ListTasks(ctx, "", 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestWorkspaceCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w := &Workspace{
		ID:       uuid.NewString(),
		Path:     "/tmp/ws/" + uuid.NewString(),
		Metadata: map[string]any{"purpose": "test"},
	}
	require.NoError(t, s.CreateWorkspace(ctx, w))

	t.Run("get by id and path", func(t *testing.T) {
		byID, err := s.GetWorkspace(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, w.Path, byID.Path)
		assert.Equal(t, w.Metadata, byID.Metadata)

		byPath, err := s.GetWorkspaceByPath(ctx, w.Path)
		require.NoError(t, err)
		assert.Equal(t, w.ID, byPath.ID)
	})

	t.Run("duplicate path rejected", func(t *testing.T) {
		dup := &Workspace{ID: uuid.NewString(), Path: w.Path}
		assert.Error(t, s.CreateWorkspace(ctx, dup))
	})

	t.Run("update whitelist", func(t *testing.T) {
		require.NoError(t, s.UpdateWorkspace(ctx, w.ID, map[string]any{"size_bytes": int64(2048)}))
		got, err := s.GetWorkspace(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2048), got.SizeBytes)

		assert.Error(t, s.UpdateWorkspace(ctx, w.ID, map[string]any{"path": "/evil"}))
	})

	t.Run("delete twice", func(t *testing.T) {
		existed, err := s.DeleteWorkspace(ctx, w.ID)
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = s.DeleteWorkspace(ctx, w.ID)
		require.NoError(t, err)
		assert.False(t, existed)
	})
}

func TestOldestWorkspacesOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	mk := func(created, accessed time.Duration) string {
		w := &Workspace{
			ID:             uuid.NewString(),
			Path:           "/tmp/ws/" + uuid.NewString(),
			CreatedAt:      base.Add(created),
			LastAccessedAt: base.Add(accessed),
			SizeBytes:      100,
		}
		require.NoError(t, s.CreateWorkspace(ctx, w))
		return w.ID
	}

	// Created first but accessed recently; created later but idle.
	a := mk(0, 30*time.Minute)
	b := mk(10*time.Minute, 0)

	lru, err := s.GetOldestWorkspaces(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lru, 1)
	assert.Equal(t, b, lru[0].ID)

	fifo, err := s.GetOldestWorkspacesByCreation(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fifo, 1)
	assert.Equal(t, a, fifo[0].ID)

	total, err := s.GetWorkspaceTotalSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)

	count, err := s.CountWorkspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBatchTaskRetrievalIsFast(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		task := newTask(fmt.Sprintf("op-%d", i%4))
		require.NoError(t, s.CreateTask(ctx, task))
		ids = append(ids, task.ID)
	}

	start := time.Now()
	got, err := s.GetTasksBatch(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, 100)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
