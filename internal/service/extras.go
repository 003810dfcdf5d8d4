package service

import (
	"context"
	"time"

	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/sanitize"
	"github.com/gitmcp/gitmcp/internal/vault"
)

// LfsInit installs LFS hooks in the repository.
func (s *Service) LfsInit(ctx context.Context, workspaceID string) error {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	return s.adapter.LfsInit(ctx, ws.Path)
}

// LfsTrack registers patterns for LFS storage.
func (s *Service) LfsTrack(ctx context.Context, workspaceID string, opts gitops.LfsOptions) error {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	opts.Patterns = sanitizeAll(opts.Patterns)
	err = s.adapter.LfsTrack(ctx, ws.Path, opts)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// LfsUntrack removes patterns from LFS tracking.
func (s *Service) LfsUntrack(ctx context.Context, workspaceID string, patterns []string) error {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	err = s.adapter.LfsUntrack(ctx, ws.Path, sanitizeAll(patterns))
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// LfsStatus lists LFS-tracked files.
func (s *Service) LfsStatus(ctx context.Context, workspaceID string) ([]gitops.LfsFileInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return s.adapter.LfsStatus(ctx, ws.Path)
}

// LfsPull downloads LFS objects for the current checkout.
func (s *Service) LfsPull(ctx context.Context, workspaceID string, opts gitops.LfsOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	_, err = withRetry(ctx, s, "pull", func(ctx context.Context, cred *vault.Credential) (struct{}, error) {
		return struct{}{}, s.adapter.LfsPull(ctx, ws.Path, opts, cred)
	})
	s.observe(ctx, "lfs_pull", workspaceID, start, err)
	if err == nil {
		go s.remeasure(ws.ID)
	}
	return err
}

// LfsPush uploads LFS objects to the remote.
func (s *Service) LfsPush(ctx context.Context, workspaceID string, opts gitops.LfsOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	opts.Remote = sanitize.Input(opts.Remote)
	_, err = withRetry(ctx, s, "push", func(ctx context.Context, cred *vault.Credential) (struct{}, error) {
		return struct{}{}, s.adapter.LfsPush(ctx, ws.Path, opts, cred)
	})
	s.observe(ctx, "lfs_push", workspaceID, start, err)
	return err
}

// LfsFetch downloads LFS objects without updating the working tree.
func (s *Service) LfsFetch(ctx context.Context, workspaceID string, opts gitops.LfsOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	opts.Remote = sanitize.Input(opts.Remote)
	_, err = withRetry(ctx, s, "fetch", func(ctx context.Context, cred *vault.Credential) (struct{}, error) {
		return struct{}{}, s.adapter.LfsFetch(ctx, ws.Path, opts, cred)
	})
	s.observe(ctx, "lfs_fetch", workspaceID, start, err)
	if err == nil {
		go s.remeasure(ws.ID)
	}
	return err
}

// SparseCheckout replaces, extends, or shrinks the sparse checkout set.
func (s *Service) SparseCheckout(ctx context.Context, workspaceID string, opts gitops.SparseCheckoutOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	opts.Paths = sanitizeAll(opts.Paths)
	err = s.adapter.SparseCheckout(ctx, ws.Path, opts)
	s.observe(ctx, "sparse_checkout", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
		go s.remeasure(ws.ID)
	}
	return err
}

// SubmoduleAdd registers a submodule and stages .gitmodules.
func (s *Service) SubmoduleAdd(ctx context.Context, workspaceID, url, subPath string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	cleanURL, err := sanitize.RemoteURL(url)
	if err != nil {
		return err
	}
	err = s.adapter.SubmoduleAdd(ctx, ws.Path, cleanURL, sanitize.Input(subPath))
	s.observe(ctx, "submodule_add", workspaceID, start, err)
	if err != nil {
		return err
	}

	// git submodule add stages .gitmodules itself in most versions;
	// staging again is harmless and covers the ones that do not.
	if addErr := s.adapter.Add(ctx, ws.Path, []string{".gitmodules"}); addErr != nil {
		s.log.Debug("could not stage .gitmodules", logfields.Error(addErr))
	}
	s.invalidate(workspaceID)
	return nil
}

// SubmoduleUpdate clones or updates registered submodules.
func (s *Service) SubmoduleUpdate(ctx context.Context, workspaceID string, init, recursive bool) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	err = s.adapter.SubmoduleUpdate(ctx, ws.Path, init, recursive)
	s.observe(ctx, "submodule_update", workspaceID, start, err)
	if err == nil {
		go s.remeasure(ws.ID)
	}
	return err
}

// SubmoduleDeinit unregisters a submodule.
func (s *Service) SubmoduleDeinit(ctx context.Context, workspaceID, subPath string, force bool) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	err = s.adapter.SubmoduleDeinit(ctx, ws.Path, sanitize.Input(subPath), force)
	s.observe(ctx, "submodule_deinit", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// SubmoduleList returns the registered submodules.
func (s *Service) SubmoduleList(ctx context.Context, workspaceID string) ([]gitops.SubmoduleInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return s.adapter.SubmoduleList(ctx, ws.Path)
}
