package service

import (
	"context"
	"time"

	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/sanitize"
)

// ListTags returns all tags with the commits they point at. Cached
// briefly per workspace.
func (s *Service) ListTags(ctx context.Context, workspaceID string) ([]gitops.TagInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return cachedList(s, workspaceID, "tags", func() ([]gitops.TagInfo, error) {
		return s.adapter.ListTags(ctx, ws.Path)
	})
}

// CreateTag creates a lightweight or annotated tag at HEAD.
func (s *Service) CreateTag(ctx context.Context, workspaceID string, opts gitops.TagOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	if opts.Name, err = sanitize.BranchName(opts.Name); err != nil {
		return err
	}
	if opts.Message != "" {
		opts.Message = sanitize.CommitMessage(opts.Message)
	}
	err = s.adapter.CreateTag(ctx, ws.Path, opts)
	s.observe(ctx, "create_tag", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// DeleteTag removes a tag.
func (s *Service) DeleteTag(ctx context.Context, workspaceID, name string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	if name, err = sanitize.BranchName(name); err != nil {
		return err
	}
	err = s.adapter.DeleteTag(ctx, ws.Path, name)
	s.observe(ctx, "delete_tag", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}
