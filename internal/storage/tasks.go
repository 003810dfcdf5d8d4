package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gitmcp/gitmcp/internal/giterr"
)

const taskColumns = "id, operation, status, workspace_path, params, result, error_message, progress, priority, created_at, started_at, completed_at"

// taskUpdateColumns is the whitelist for UpdateTask. Unknown columns fail
// the call before any statement is emitted.
var taskUpdateColumns = map[string]bool{
	"status":         true,
	"workspace_path": true,
	"params":         true,
	"result":         true,
	"error_message":  true,
	"progress":       true,
	"priority":       true,
	"started_at":     true,
	"completed_at":   true,
}

// CreateTask persists a new task record.
func (s *Store) CreateTask(ctx context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := marshalJSON(t.Params)
	if err != nil {
		return err
	}
	result, err := marshalJSON(t.Result)
	if err != nil {
		return err
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = TaskQueued
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, operation, status, workspace_path, params, result, error_message, progress, priority, created_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Operation, string(t.Status), t.WorkspacePath, params, result,
		t.ErrorMessage, t.Progress, t.Priority,
		t.CreatedAt.UTC().Unix(), nullableUnix(t.StartedAt), nullableUnix(t.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	return nil
}

// GetTask loads one task, or a TASK_NOT_FOUND error.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, giterr.TaskNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query task %s: %w", id, err)
	}
	return t, nil
}

// GetTasksBatch loads many tasks in one statement. Missing ids are simply
// absent from the result.
func (s *Store) GetTasksBatch(ctx context.Context, ids []string) ([]*Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks batch: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListTasks returns tasks filtered by status ("" means all), newest first.
func (s *Store) ListTasks(ctx context.Context, status TaskStatus, limit, offset int) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + taskColumns + " FROM tasks"
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetPendingTasks returns queued tasks ordered by priority descending,
// then creation time ascending.
func (s *Store) GetPendingTasks(ctx context.Context, limit int) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE status = ? ORDER BY priority DESC, created_at ASC LIMIT ?",
		string(TaskQueued), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// UpdateTask applies whitelisted column updates to one task.
func (s *Store) UpdateTask(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	sets := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for col, val := range updates {
		if !taskUpdateColumns[col] {
			return fmt.Errorf("update task: column %q is not updatable", col)
		}
		converted, err := convertColumnValue(val)
		if err != nil {
			return fmt.Errorf("update task column %q: %w", col, err)
		}
		sets = append(sets, col+" = ?")
		args = append(args, converted)
	}
	args = append(args, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return giterr.TaskNotFound(id)
	}
	return nil
}

// DeleteTask removes a task and its operation logs. Returns whether a
// record existed.
func (s *Store) DeleteTask(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM operation_logs WHERE task_id = ?", id); err != nil {
		return false, fmt.Errorf("delete operation logs for task %s: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CleanupExpiredTasks deletes terminal tasks whose completed_at is older
// than now - retention. Returns the deleted count.
func (s *Store) CleanupExpiredTasks(ctx context.Context, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-retention).Unix()
	expired := `SELECT id FROM tasks
		 WHERE status IN (?, ?, ?) AND completed_at IS NOT NULL AND completed_at < ?`
	statuses := []any{string(TaskCompleted), string(TaskFailed), string(TaskCancelled), cutoff}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM operation_logs WHERE task_id IN ("+expired+")", statuses...); err != nil {
		return 0, fmt.Errorf("cleanup expired task logs: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id IN ("+expired+")", statuses...)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired tasks: %w", err)
	}
	return res.RowsAffected()
}

// convertColumnValue maps Go values to their SQLite representation:
// time.Time becomes Unix seconds, maps become JSON, statuses become text.
func convertColumnValue(val any) (any, error) {
	switch v := val.(type) {
	case time.Time:
		return v.UTC().Unix(), nil
	case *time.Time:
		return nullableUnix(v), nil
	case map[string]any:
		return marshalJSON(v)
	case TaskStatus:
		return string(v), nil
	default:
		return val, nil
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var status string
	var workspacePath, errorMessage sql.NullString
	var params, result sql.NullString
	var createdAt int64
	var startedAt, completedAt sql.NullInt64

	err := row.Scan(&t.ID, &t.Operation, &status, &workspacePath, &params, &result,
		&errorMessage, &t.Progress, &t.Priority, &createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	t.Status = TaskStatus(status)
	t.WorkspacePath = workspacePath.String
	t.ErrorMessage = errorMessage.String
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.StartedAt = unixPtr(startedAt)
	t.CompletedAt = unixPtr(completedAt)

	if t.Params, err = unmarshalJSON(params); err != nil {
		return nil, err
	}
	if t.Result, err = unmarshalJSON(result); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}
