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

const workspaceColumns = "id, path, size_bytes, last_accessed_at, created_at, metadata"

var workspaceUpdateColumns = map[string]bool{
	"size_bytes":       true,
	"last_accessed_at": true,
	"metadata":         true,
}

// CreateWorkspace persists a new workspace record.
func (s *Store) CreateWorkspace(ctx context.Context, w *Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadata, err := marshalJSON(w.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.LastAccessedAt.IsZero() {
		w.LastAccessedAt = now
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, path, size_bytes, last_accessed_at, created_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.Path, w.SizeBytes, w.LastAccessedAt.UTC().Unix(), w.CreatedAt.UTC().Unix(), metadata)
	if err != nil {
		return fmt.Errorf("insert workspace %s: %w", w.ID, err)
	}
	return nil
}

// GetWorkspace loads one workspace by id.
func (s *Store) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+workspaceColumns+" FROM workspaces WHERE id = ?", id)
	w, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, giterr.New(giterr.CodeRepoNotFound, fmt.Sprintf("Workspace not found: %s", id)).
			WithOperation("workspace_query").WithParam("workspace_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query workspace %s: %w", id, err)
	}
	return w, nil
}

// GetWorkspaceByPath loads one workspace by its filesystem path.
func (s *Store) GetWorkspaceByPath(ctx context.Context, path string) (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+workspaceColumns+" FROM workspaces WHERE path = ?", path)
	w, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, giterr.RepositoryNotFound(path)
	}
	if err != nil {
		return nil, fmt.Errorf("query workspace by path %s: %w", path, err)
	}
	return w, nil
}

// GetWorkspacesBatch loads many workspaces in one statement.
func (s *Store) GetWorkspacesBatch(ctx context.Context, ids []string) ([]*Workspace, error) {
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
		"SELECT "+workspaceColumns+" FROM workspaces WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("query workspaces batch: %w", err)
	}
	defer rows.Close()

	return scanWorkspaces(rows)
}

// ListWorkspaces returns all workspaces ordered by creation time.
func (s *Store) ListWorkspaces(ctx context.Context) ([]*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+workspaceColumns+" FROM workspaces ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	return scanWorkspaces(rows)
}

// GetOldestWorkspaces returns up to n workspaces, least recently accessed
// first (LRU order).
func (s *Store) GetOldestWorkspaces(ctx context.Context, n int) ([]*Workspace, error) {
	return s.oldestWorkspacesBy(ctx, "last_accessed_at", n)
}

// GetOldestWorkspacesByCreation returns up to n workspaces in FIFO order.
func (s *Store) GetOldestWorkspacesByCreation(ctx context.Context, n int) ([]*Workspace, error) {
	return s.oldestWorkspacesBy(ctx, "created_at", n)
}

func (s *Store) oldestWorkspacesBy(ctx context.Context, column string, n int) ([]*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+workspaceColumns+" FROM workspaces ORDER BY "+column+" ASC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("query oldest workspaces: %w", err)
	}
	defer rows.Close()

	return scanWorkspaces(rows)
}

// GetWorkspaceTotalSize sums size_bytes across all workspaces.
func (s *Store) GetWorkspaceTotalSize(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT SUM(size_bytes) FROM workspaces").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum workspace sizes: %w", err)
	}
	return total.Int64, nil
}

// CountWorkspaces returns the number of workspace records.
func (s *Store) CountWorkspaces(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workspaces").Scan(&n); err != nil {
		return 0, fmt.Errorf("count workspaces: %w", err)
	}
	return n, nil
}

// UpdateWorkspace applies whitelisted column updates to one workspace.
func (s *Store) UpdateWorkspace(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	sets := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for col, val := range updates {
		if !workspaceUpdateColumns[col] {
			return fmt.Errorf("update workspace: column %q is not updatable", col)
		}
		converted, err := convertColumnValue(val)
		if err != nil {
			return fmt.Errorf("update workspace column %q: %w", col, err)
		}
		sets = append(sets, col+" = ?")
		args = append(args, converted)
	}
	args = append(args, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE workspaces SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update workspace %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return giterr.New(giterr.CodeRepoNotFound, fmt.Sprintf("Workspace not found: %s", id))
	}
	return nil
}

// DeleteWorkspace removes a workspace record and the operation logs
// keyed by its id; returns whether it existed.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM operation_logs WHERE task_id = ?", id); err != nil {
		return false, fmt.Errorf("delete operation logs for workspace %s: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM workspaces WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete workspace %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanWorkspace(row rowScanner) (*Workspace, error) {
	var w Workspace
	var metadata sql.NullString
	var lastAccessed, createdAt int64

	err := row.Scan(&w.ID, &w.Path, &w.SizeBytes, &lastAccessed, &createdAt, &metadata)
	if err != nil {
		return nil, err
	}

	w.LastAccessedAt = time.Unix(lastAccessed, 0).UTC()
	w.CreatedAt = time.Unix(createdAt, 0).UTC()
	if w.Metadata, err = unmarshalJSON(metadata); err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWorkspaces(rows *sql.Rows) ([]*Workspace, error) {
	var workspaces []*Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}
	return workspaces, nil
}
