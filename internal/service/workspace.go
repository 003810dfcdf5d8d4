package service

import (
	"context"
	"time"

	"github.com/gitmcp/gitmcp/internal/storage"
	"github.com/gitmcp/gitmcp/internal/workspace"
)

// WorkspaceInfo is the wire form of a workspace record.
type WorkspaceInfo struct {
	WorkspaceID    string    `json:"workspace_id"`
	Path           string    `json:"path"`
	SizeBytes      int64     `json:"size_bytes"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

func workspaceInfo(ws *storage.Workspace) *WorkspaceInfo {
	return &WorkspaceInfo{
		WorkspaceID:    ws.ID,
		Path:           ws.Path,
		SizeBytes:      ws.SizeBytes,
		CreatedAt:      ws.CreatedAt,
		LastAccessedAt: ws.LastAccessedAt,
	}
}

// AllocateWorkspace creates a fresh workspace directory.
func (s *Service) AllocateWorkspace(ctx context.Context) (*WorkspaceInfo, error) {
	start := time.Now()
	ws, err := s.workspaces.Allocate(ctx)
	s.observe(ctx, "allocate_workspace", "", start, err)
	if err != nil {
		return nil, err
	}
	return workspaceInfo(ws), nil
}

// GetWorkspace returns one workspace record.
func (s *Service) GetWorkspace(ctx context.Context, workspaceID string) (*WorkspaceInfo, error) {
	ws, err := s.workspaces.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return workspaceInfo(ws), nil
}

// ReleaseWorkspace removes the workspace directory and record. Returns
// false when the workspace was already gone.
func (s *Service) ReleaseWorkspace(ctx context.Context, workspaceID string) (bool, error) {
	start := time.Now()
	released, err := s.workspaces.Release(ctx, workspaceID)
	s.observe(ctx, "release_workspace", "", start, err)
	if released {
		s.cache.Invalidate(workspaceID)
	}
	return released, err
}

// ListWorkspaces returns up to limit workspace records.
func (s *Service) ListWorkspaces(ctx context.Context, limit int) ([]*WorkspaceInfo, error) {
	if limit <= 0 {
		limit = 100
	}
	workspaces, err := s.workspaces.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	infos := make([]*WorkspaceInfo, 0, len(workspaces))
	for _, ws := range workspaces {
		infos = append(infos, workspaceInfo(ws))
	}
	return infos, nil
}

// WorkspaceUsage summarizes total workspace disk consumption.
func (s *Service) WorkspaceUsage(ctx context.Context) (*workspace.Usage, error) {
	return s.workspaces.Usage(ctx)
}

// DiskSpace reports filesystem capacity under the workspace root and
// whether free space is below the warning threshold.
func (s *Service) DiskSpace(warningThreshold float64) (*workspace.DiskWarning, error) {
	if warningThreshold <= 0 {
		warningThreshold = 20
	}
	return s.workspaces.CheckDiskSpaceWarning(warningThreshold)
}
