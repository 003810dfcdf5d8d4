package service

import (
	"context"
	"time"

	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/sanitize"
)

// ListRemotes returns the configured remotes. Cached briefly per
// workspace.
func (s *Service) ListRemotes(ctx context.Context, workspaceID string) ([]gitops.RemoteInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return cachedList(s, workspaceID, "remotes", func() ([]gitops.RemoteInfo, error) {
		return s.adapter.ListRemotes(ctx, ws.Path)
	})
}

// AddRemote registers a remote under the given name.
func (s *Service) AddRemote(ctx context.Context, workspaceID, name, url string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	name = sanitize.Input(name)
	cleanURL, err := sanitize.RemoteURL(url)
	if err != nil {
		return err
	}
	err = s.adapter.AddRemote(ctx, ws.Path, name, cleanURL)
	s.observe(ctx, "add_remote", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// RemoveRemote deletes a remote and its tracking refs.
func (s *Service) RemoveRemote(ctx context.Context, workspaceID, name string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	err = s.adapter.RemoveRemote(ctx, ws.Path, sanitize.Input(name))
	s.observe(ctx, "remove_remote", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}
