// Package task manages the lifecycle of asynchronous git tasks:
// creation, bounded execution, timeout enforcement, cancellation, and
// result retention.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/metrics"
	"github.com/gitmcp/gitmcp/internal/storage"
)

// Config controls task execution.
type Config struct {
	MaxConcurrent   int64
	Timeout         time.Duration
	ResultRetention time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig mirrors the server defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   10,
		Timeout:         300 * time.Second,
		ResultRetention: time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

// Func is a task body. The context carries the task deadline.
type Func func(ctx context.Context) (map[string]any, error)

// Result is the retained outcome of a task.
type Result struct {
	TaskID       string             `json:"task_id"`
	Status       storage.TaskStatus `json:"status"`
	Result       map[string]any     `json:"result,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

// Stats is the manager's observable state.
type Stats struct {
	ActiveTasks     int           `json:"active_tasks"`
	MaxConcurrent   int64         `json:"max_concurrent"`
	AvailableSlots  int64         `json:"available_slots"`
	Timeout         time.Duration `json:"timeout_seconds"`
	ResultRetention time.Duration `json:"result_retention_seconds"`
}

// Manager runs tasks under a concurrency bound and keeps the store in
// sync with their lifecycle.
type Manager struct {
	store *storage.Store
	cfg   Config
	sem   *semaphore.Weighted
	rec   metrics.Recorder
	log   *slog.Logger

	// Lifecycle callbacks; errors are logged, never propagated.
	OnStart    func(t *storage.Task)
	OnComplete func(taskID string, result map[string]any)
	OnError    func(taskID string, errorMessage string)

	mu      sync.Mutex
	active  map[string]context.CancelFunc
	running int64

	wg        sync.WaitGroup
	scheduler gocron.Scheduler
}

// NewManager creates a task manager. rec may be nil.
func NewManager(store *storage.Store, cfg Config, rec metrics.Recorder) *Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig().CleanupInterval
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Manager{
		store:  store,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		rec:    rec,
		log:    slog.Default().With(slog.String("component", "task")),
		active: make(map[string]context.CancelFunc),
	}
}

// Start launches the periodic cleanup and timeout watchdog.
func (m *Manager) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return giterr.Wrap(err, giterr.CodeSystemError, "Failed to create task scheduler")
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(m.cfg.CleanupInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, cleanupErr := m.CleanupExpired(ctx); cleanupErr != nil {
				m.log.Error("task cleanup failed", logfields.Error(cleanupErr))
			}
			m.checkTimeouts(ctx)
		}),
	)
	if err != nil {
		return giterr.Wrap(err, giterr.CodeSystemError, "Failed to schedule task cleanup")
	}

	scheduler.Start()
	m.scheduler = scheduler
	m.log.Info("task manager started",
		slog.Int64("max_concurrent", m.cfg.MaxConcurrent),
		slog.Duration("timeout", m.cfg.Timeout),
	)
	return nil
}

// Stop cancels all active tasks and waits for them to settle.
func (m *Manager) Stop() error {
	if m.scheduler != nil {
		if err := m.scheduler.Shutdown(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	for _, cancel := range m.active {
		cancel()
	}
	m.mu.Unlock()

	m.wg.Wait()
	m.log.Info("task manager stopped")
	return nil
}

// Create persists a queued task.
func (m *Manager) Create(ctx context.Context, operation string, params map[string]any, workspacePath string, priority int) (*storage.Task, error) {
	t := &storage.Task{
		ID:            uuid.NewString(),
		Operation:     operation,
		Status:        storage.TaskQueued,
		WorkspacePath: workspacePath,
		Params:        params,
		Priority:      priority,
		CreatedAt:     time.Now().UTC(),
	}
	if err := m.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	m.logLine(t.ID, operation, "info", "queued")
	m.log.Info("task created", logfields.TaskID(t.ID), logfields.Operation(operation))
	return t, nil
}

// Submit schedules a created task for execution under the concurrency
// bound. Returns immediately; the task runs in the background.
func (m *Manager) Submit(ctx context.Context, taskID string, fn Func) error {
	if _, err := m.store.GetTask(ctx, taskID); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.active[taskID] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.removeActive(taskID)

		if err := m.sem.Acquire(runCtx, 1); err != nil {
			// Cancelled while queued.
			m.markCancelled(taskID)
			return
		}
		defer m.sem.Release(1)

		m.mu.Lock()
		m.running++
		m.rec.SetActiveTasks(int(m.running))
		m.mu.Unlock()
		defer func() {
			m.mu.Lock()
			m.running--
			m.rec.SetActiveTasks(int(m.running))
			m.mu.Unlock()
		}()

		m.execute(runCtx, taskID, fn)
	}()
	return nil
}

// execute drives one task through running to a terminal state.
func (m *Manager) execute(runCtx context.Context, taskID string, fn Func) {
	if !m.markRunning(taskID) {
		return
	}

	taskCtx, cancel := context.WithTimeout(runCtx, m.cfg.Timeout)
	defer cancel()

	result, err := fn(taskCtx)
	switch {
	case err == nil:
		m.Complete(taskID, result)
	case errors.Is(taskCtx.Err(), context.DeadlineExceeded):
		m.Fail(taskID, fmt.Sprintf("Task timed out after %d seconds", int(m.cfg.Timeout.Seconds())))
	case errors.Is(taskCtx.Err(), context.Canceled):
		m.markCancelled(taskID)
	default:
		m.Fail(taskID, err.Error())
	}
}

// markRunning transitions a queued task to running and fires OnStart.
func (m *Manager) markRunning(taskID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t, err := m.store.GetTask(ctx, taskID)
	if err != nil || t.Status != storage.TaskQueued {
		return false
	}

	if err := m.store.UpdateTask(ctx, taskID, map[string]any{
		"status":     storage.TaskRunning,
		"started_at": time.Now().UTC(),
	}); err != nil {
		m.log.Error("failed to mark task running", logfields.TaskID(taskID), logfields.Error(err))
		return false
	}

	m.logLine(taskID, t.Operation, "info", "started")
	m.log.Info("task started", logfields.TaskID(taskID))
	if m.OnStart != nil {
		func() {
			defer m.recoverCallback("start", taskID)
			m.OnStart(t)
		}()
	}
	return true
}

// Complete moves a task to completed with full progress. Terminal
// states are never overwritten.
func (m *Manager) Complete(taskID string, result map[string]any) bool {
	ok := m.finish(taskID, storage.TaskCompleted, map[string]any{
		"progress": 100,
		"result":   result,
	})
	if ok {
		m.rec.IncTaskOutcome("completed")
		m.log.Info("task completed", logfields.TaskID(taskID))
		if m.OnComplete != nil {
			func() {
				defer m.recoverCallback("complete", taskID)
				m.OnComplete(taskID, result)
			}()
		}
	}
	return ok
}

// Fail moves a task to failed with the given message.
func (m *Manager) Fail(taskID, errorMessage string) bool {
	ok := m.finish(taskID, storage.TaskFailed, map[string]any{
		"error_message": errorMessage,
	})
	if ok {
		m.rec.IncTaskOutcome("failed")
		m.log.Error("task failed",
			logfields.TaskID(taskID),
			slog.String("error_message", errorMessage),
		)
		if m.OnError != nil {
			func() {
				defer m.recoverCallback("error", taskID)
				m.OnError(taskID, errorMessage)
			}()
		}
	}
	return ok
}

// Cancel stops an active task and marks it cancelled. Returns true on
// the first effective cancellation; later calls on a terminal task
// return false.
func (m *Manager) Cancel(ctx context.Context, taskID string) (bool, error) {
	t, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return false, err
	}
	if t.Status.IsTerminal() {
		return false, nil
	}

	m.mu.Lock()
	if cancel, ok := m.active[taskID]; ok {
		cancel()
	}
	m.mu.Unlock()

	if !m.markCancelled(taskID) {
		// The execution goroutine may have observed the cancellation
		// first; that still counts as this call's doing.
		if t, getErr := m.store.GetTask(ctx, taskID); getErr != nil || t.Status != storage.TaskCancelled {
			return false, nil
		}
	}
	m.log.Info("task cancelled", logfields.TaskID(taskID))
	return true, nil
}

// markCancelled is the idempotent terminal transition to cancelled.
func (m *Manager) markCancelled(taskID string) bool {
	ok := m.finish(taskID, storage.TaskCancelled, nil)
	if ok {
		m.rec.IncTaskOutcome("cancelled")
	}
	return ok
}

// finish applies a terminal transition, refusing to alter a record
// that is already terminal.
func (m *Manager) finish(taskID string, status storage.TaskStatus, extra map[string]any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t, err := m.store.GetTask(ctx, taskID)
	if err != nil || t.Status.IsTerminal() {
		return false
	}

	updates := map[string]any{
		"status":       status,
		"completed_at": time.Now().UTC(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	if err := m.store.UpdateTask(ctx, taskID, updates); err != nil {
		m.log.Error("failed to finish task", logfields.TaskID(taskID), logfields.Error(err))
		return false
	}

	level, message := "info", string(status)
	if status == storage.TaskFailed {
		level = "error"
		if em, ok := extra["error_message"].(string); ok && em != "" {
			message = em
		}
	}
	m.logLine(taskID, t.Operation, level, message)
	return true
}

// UpdateProgress records intermediate progress for a running task.
// Values are clamped to 100 and never move backwards, so readers see a
// monotonically non-decreasing sequence until the terminal transition.
func (m *Manager) UpdateProgress(ctx context.Context, taskID string, progress int) error {
	t, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if t.Status != storage.TaskRunning {
		return giterr.New(giterr.CodeTaskExecutorError,
			fmt.Sprintf("Task %s is %s; progress updates apply only to running tasks", taskID, t.Status))
	}
	if progress > 100 {
		progress = 100
	}
	if progress <= t.Progress {
		return nil
	}
	return m.store.UpdateTask(ctx, taskID, map[string]any{"progress": progress})
}

// logLine appends one operation log entry; failures never interrupt the
// transition that produced them.
func (m *Manager) logLine(taskID, operation, level, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.LogOperation(ctx, taskID, operation, level, message); err != nil {
		m.log.Warn("failed to append operation log", logfields.TaskID(taskID), logfields.Error(err))
	}
}

// Get returns a task by ID.
func (m *Manager) Get(ctx context.Context, taskID string) (*storage.Task, error) {
	return m.store.GetTask(ctx, taskID)
}

// GetResult returns the retained outcome of a task.
func (m *Manager) GetResult(ctx context.Context, taskID string) (*Result, error) {
	t, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &Result{
		TaskID:       t.ID,
		Status:       t.Status,
		Result:       t.Result,
		ErrorMessage: t.ErrorMessage,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	}, nil
}

// List returns tasks, optionally filtered by status.
func (m *Manager) List(ctx context.Context, status storage.TaskStatus, limit, offset int) ([]*storage.Task, error) {
	return m.store.ListTasks(ctx, status, limit, offset)
}

// ActiveTasks returns the running tasks currently tracked.
func (m *Manager) ActiveTasks(ctx context.Context) ([]*storage.Task, error) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var tasks []*storage.Task
	for _, id := range ids {
		t, err := m.store.GetTask(ctx, id)
		if err != nil {
			continue
		}
		if t.Status == storage.TaskRunning {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// QueuedTasks returns pending tasks in admission order.
func (m *Manager) QueuedTasks(ctx context.Context, limit int) ([]*storage.Task, error) {
	return m.store.GetPendingTasks(ctx, limit)
}

// CleanupExpired removes terminal tasks past the retention window.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.CleanupExpiredTasks(ctx, m.cfg.ResultRetention)
}

// Stats reports the manager's current state.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		ActiveTasks:     len(m.active),
		MaxConcurrent:   m.cfg.MaxConcurrent,
		AvailableSlots:  m.cfg.MaxConcurrent - m.running,
		Timeout:         m.cfg.Timeout,
		ResultRetention: m.cfg.ResultRetention,
	}
}

// checkTimeouts fails running tasks whose deadline has passed. This is
// the watchdog for bodies that ignore their context.
func (m *Manager) checkTimeouts(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		t, err := m.store.GetTask(ctx, id)
		if err != nil || t.Status != storage.TaskRunning || t.StartedAt == nil {
			continue
		}
		if time.Since(*t.StartedAt) <= m.cfg.Timeout {
			continue
		}

		m.log.Warn("task timeout detected", logfields.TaskID(id))
		m.mu.Lock()
		if cancel, ok := m.active[id]; ok {
			cancel()
		}
		m.mu.Unlock()
		m.Fail(id, fmt.Sprintf("Task timed out after %d seconds", int(m.cfg.Timeout.Seconds())))
	}
}

func (m *Manager) removeActive(taskID string) {
	m.mu.Lock()
	if cancel, ok := m.active[taskID]; ok {
		cancel()
		delete(m.active, taskID)
	}
	m.mu.Unlock()
}

func (m *Manager) recoverCallback(kind, taskID string) {
	if r := recover(); r != nil {
		m.log.Error("task callback panicked",
			logfields.TaskID(taskID),
			slog.String("callback", kind),
			slog.Any("panic", r),
		)
	}
}
