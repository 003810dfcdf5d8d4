package task

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/storage"
)

func testManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store, cfg, nil)
}

func waitForStatus(t *testing.T, m *Manager, taskID string, want storage.TaskStatus) *storage.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := m.Get(context.Background(), taskID)
		require.NoError(t, err)
		if got.Status == want {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never reached status %s", taskID, want)
	return nil
}

func TestCreateQueuesTask(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	created, err := m.Create(ctx, "clone", map[string]any{"url": "https://example.com/r.git"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskQueued, created.Status)
	assert.Equal(t, "clone", created.Operation)

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestSubmitRunsToCompletion(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	created, err := m.Create(ctx, "status", nil, "", 0)
	require.NoError(t, err)

	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"clean": true}, nil
	}))

	got := waitForStatus(t, m, created.ID, storage.TaskCompleted)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, true, got.Result["clean"])
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
}

func TestSubmitFailureRecordsMessage(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	created, err := m.Create(ctx, "push", nil, "", 0)
	require.NoError(t, err)

	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		return nil, errors.New("remote hung up")
	}))

	got := waitForStatus(t, m, created.ID, storage.TaskFailed)
	assert.Equal(t, "remote hung up", got.ErrorMessage)
}

func TestSubmitUnknownTask(t *testing.T) {
	m := testManager(t, DefaultConfig())
	err := m.Submit(context.Background(), "no-such-task", func(ctx context.Context) (map[string]any, error) {
		return nil, nil
	})
	var gitErr *giterr.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeTaskNotFound, gitErr.Code)
}

func TestTimeoutFailsTask(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	m := testManager(t, cfg)
	ctx := context.Background()

	created, err := m.Create(ctx, "clone", nil, "", 0)
	require.NoError(t, err)

	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	got := waitForStatus(t, m, created.ID, storage.TaskFailed)
	assert.Contains(t, got.ErrorMessage, "Task timed out after")
}

func TestCancelRunningTask(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	started := make(chan struct{})
	created, err := m.Create(ctx, "clone", nil, "", 0)
	require.NoError(t, err)

	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	<-started

	cancelled, err := m.Cancel(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	waitForStatus(t, m, created.ID, storage.TaskCancelled)

	// Second cancel is a no-op on a terminal record.
	cancelled, err = m.Cancel(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCancelUnknownTask(t *testing.T) {
	m := testManager(t, DefaultConfig())
	_, err := m.Cancel(context.Background(), "missing")
	var gitErr *giterr.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeTaskNotFound, gitErr.Code)
}

func TestLifecycleAppendsOperationLogs(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	created, err := m.Create(ctx, "clone", nil, "", 0)
	require.NoError(t, err)
	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		return nil, nil
	}))
	waitForStatus(t, m, created.ID, storage.TaskCompleted)

	// The terminal log line lands just after the status flip; poll.
	var logs []*storage.OperationLog
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		logs, err = m.store.GetOperationLogs(ctx, created.ID, 10)
		require.NoError(t, err)
		if len(logs) >= 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Len(t, logs, 3)
	assert.Equal(t, "queued", logs[0].Message)
	assert.Equal(t, "started", logs[1].Message)
	assert.Equal(t, "completed", logs[2].Message)
	for _, l := range logs {
		assert.Equal(t, "clone", l.Operation)
	}
}

func TestUpdateProgressMonotone(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	created, err := m.Create(ctx, "clone", nil, "", 0)
	require.NoError(t, err)

	// Queued tasks take no progress updates.
	err = m.UpdateProgress(ctx, created.ID, 10)
	var gitErr *giterr.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeTaskExecutorError, gitErr.Code)

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		close(started)
		<-release
		return nil, nil
	}))
	<-started

	progressAfter := func(n int) int {
		t.Helper()
		require.NoError(t, m.UpdateProgress(ctx, created.ID, n))
		got, err := m.Get(ctx, created.ID)
		require.NoError(t, err)
		return got.Progress
	}

	assert.Equal(t, 30, progressAfter(30))
	// Regressions are ignored, values clamp at 100.
	assert.Equal(t, 30, progressAfter(20))
	assert.Equal(t, 100, progressAfter(150))

	close(release)
	waitForStatus(t, m, created.ID, storage.TaskCompleted)

	err = m.UpdateProgress(ctx, created.ID, 50)
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeTaskExecutorError, gitErr.Code)
}

func TestTerminalStateIsMonotone(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	created, err := m.Create(ctx, "fetch", nil, "", 0)
	require.NoError(t, err)
	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	}))
	waitForStatus(t, m, created.ID, storage.TaskCompleted)

	assert.False(t, m.Fail(created.ID, "too late"))
	assert.False(t, m.Complete(created.ID, nil))

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskCompleted, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestConcurrencyBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrent = 2
	m := testManager(t, cfg)
	ctx := context.Background()

	var running, peak atomic.Int64
	release := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		created, err := m.Create(ctx, "status", nil, "", 0)
		require.NoError(t, err)

		wg.Add(1)
		require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return nil, nil
		}))
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestCallbacksFire(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	var mu sync.Mutex
	var events []string
	m.OnStart = func(t *storage.Task) {
		mu.Lock()
		events = append(events, "start")
		mu.Unlock()
	}
	m.OnComplete = func(taskID string, result map[string]any) {
		mu.Lock()
		events = append(events, "complete")
		mu.Unlock()
	}
	m.OnError = func(taskID, msg string) {
		mu.Lock()
		events = append(events, "error")
		mu.Unlock()
	}

	created, err := m.Create(ctx, "status", nil, "", 0)
	require.NoError(t, err)
	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		return nil, nil
	}))
	waitForStatus(t, m, created.ID, storage.TaskCompleted)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"start", "complete"}, events)
}

func TestCallbackPanicDoesNotKillTask(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	m.OnComplete = func(string, map[string]any) { panic("callback bug") }

	created, err := m.Create(ctx, "status", nil, "", 0)
	require.NoError(t, err)
	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		return nil, nil
	}))
	waitForStatus(t, m, created.ID, storage.TaskCompleted)
}

func TestGetResult(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	created, err := m.Create(ctx, "log", nil, "", 0)
	require.NoError(t, err)
	require.NoError(t, m.Submit(ctx, created.ID, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"count": float64(3)}, nil
	}))
	waitForStatus(t, m, created.ID, storage.TaskCompleted)

	result, err := m.GetResult(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskCompleted, result.Status)
	assert.Equal(t, float64(3), result.Result["count"])
	assert.NotNil(t, result.CompletedAt)
}

func TestQueuedTasksPriorityOrder(t *testing.T) {
	m := testManager(t, DefaultConfig())
	ctx := context.Background()

	low, err := m.Create(ctx, "clone", nil, "", 0)
	require.NoError(t, err)
	high, err := m.Create(ctx, "clone", nil, "", 5)
	require.NoError(t, err)

	queued, err := m.QueuedTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, high.ID, queued[0].ID)
	assert.Equal(t, low.ID, queued[1].ID)
}

func TestStats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrent = 3
	m := testManager(t, cfg)

	s := m.Stats()
	assert.Equal(t, int64(3), s.MaxConcurrent)
	assert.Equal(t, int64(3), s.AvailableSlots)
	assert.Zero(t, s.ActiveTasks)
}

func TestStartStop(t *testing.T) {
	m := testManager(t, DefaultConfig())
	require.NoError(t, m.Start())
	require.NoError(t, m.Stop())
}
