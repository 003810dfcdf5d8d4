package service

import (
	"context"
	"time"

	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/sanitize"
)

// ListBranches returns local (and optionally remote-tracking) branches.
// Cached briefly per workspace.
func (s *Service) ListBranches(ctx context.Context, workspaceID string, includeRemote bool) ([]gitops.BranchInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	kind := "branches"
	if includeRemote {
		kind = "branches_all"
	}
	return cachedList(s, workspaceID, kind, func() ([]gitops.BranchInfo, error) {
		return s.adapter.ListBranches(ctx, ws.Path, includeRemote)
	})
}

// CreateBranch creates a branch, optionally checking it out.
func (s *Service) CreateBranch(ctx context.Context, workspaceID, name string, checkout bool) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	if name, err = sanitize.BranchName(name); err != nil {
		return err
	}
	err = s.adapter.CreateBranch(ctx, ws.Path, name, checkout)
	s.observe(ctx, "create_branch", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// DeleteBranch removes a local branch.
func (s *Service) DeleteBranch(ctx context.Context, workspaceID, name string, force bool) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	if name, err = sanitize.BranchName(name); err != nil {
		return err
	}
	err = s.adapter.DeleteBranch(ctx, ws.Path, name, force)
	s.observe(ctx, "delete_branch", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// CurrentBranch returns the checked-out branch name.
func (s *Service) CurrentBranch(ctx context.Context, workspaceID string) (string, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	return s.adapter.CurrentBranch(ctx, ws.Path)
}
