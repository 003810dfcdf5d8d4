package storage

import (
	"context"
	"fmt"
	"time"
)

// LogOperation appends one log line. taskID is the owning task id, or a
// workspace id for synchronous facade operations.
func (s *Store) LogOperation(ctx context.Context, taskID, operation, level, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO operation_logs (task_id, operation, level, message, timestamp) VALUES (?, ?, ?, ?, ?)",
		taskID, operation, level, message, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert operation log for task %s: %w", taskID, err)
	}
	return nil
}

// GetOperationLogs returns the log lines recorded under one task or
// workspace id, oldest first.
func (s *Store) GetOperationLogs(ctx context.Context, taskID string, limit int) ([]*OperationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, task_id, operation, level, message, timestamp FROM operation_logs WHERE task_id = ? ORDER BY id ASC LIMIT ?",
		taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("query operation logs for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var logs []*OperationLog
	for rows.Next() {
		var l OperationLog
		var ts int64
		if err := rows.Scan(&l.ID, &l.TaskID, &l.Operation, &l.Level, &l.Message, &ts); err != nil {
			return nil, fmt.Errorf("scan operation log: %w", err)
		}
		l.Timestamp = time.Unix(ts, 0).UTC()
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation logs: %w", err)
	}
	return logs, nil
}
