package service

import (
	"context"
	"time"

	"github.com/gitmcp/gitmcp/internal/gitops"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/sanitize"
	"github.com/gitmcp/gitmcp/internal/vault"
)

// Clone clones url into the workspace and returns the head commit. The
// workspace size is remeasured in the background afterwards.
func (s *Service) Clone(ctx context.Context, workspaceID, url string, opts gitops.CloneOptions) (*gitops.CommitInfo, error) {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	cleanURL, err := sanitize.RemoteURL(url)
	if err != nil {
		return nil, err
	}
	if opts.Branch != "" {
		if opts.Branch, err = sanitize.BranchName(opts.Branch); err != nil {
			return nil, err
		}
	}

	info, err := withRetry(ctx, s, "clone", func(ctx context.Context, cred *vault.Credential) (*gitops.CommitInfo, error) {
		return s.adapter.Clone(ctx, cleanURL, ws.Path, opts, cred)
	})
	s.observe(ctx, "clone", workspaceID, start, err)
	if err != nil {
		return nil, err
	}

	s.invalidate(workspaceID)
	go s.remeasure(ws.ID)
	return info, nil
}

// remeasure refreshes the stored workspace size and enforces the
// per-workspace limit. Runs detached from the request context.
func (s *Service) remeasure(workspaceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.workspaces.UpdateSize(ctx, workspaceID); err != nil {
		s.log.Warn("failed to update workspace size", logfields.WorkspaceID(workspaceID), logfields.Error(err))
		return
	}
	if _, err := s.workspaces.EnforceSizeLimit(ctx, workspaceID); err != nil {
		s.log.Warn("failed to enforce workspace size limit", logfields.WorkspaceID(workspaceID), logfields.Error(err))
	}
}

// Init creates an empty repository in the workspace.
func (s *Service) Init(ctx context.Context, workspaceID string, bare bool) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	err = s.adapter.Init(ctx, ws.Path, bare)
	s.observe(ctx, "init", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// Status reports the working tree state. Results are cached briefly.
func (s *Service) Status(ctx context.Context, workspaceID string) (*gitops.StatusInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if v, ok := s.cache.Get(workspaceID, "status"); ok {
		if info, ok := v.(*gitops.StatusInfo); ok {
			return info, nil
		}
	}
	info, err := s.adapter.Status(ctx, ws.Path)
	if err != nil {
		return nil, err
	}
	s.cache.Put(workspaceID, "status", info)
	return info, nil
}

// Stage adds the given pathspecs to the index.
func (s *Service) Stage(ctx context.Context, workspaceID string, patterns []string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	cleaned := sanitizeAll(patterns)
	err = s.adapter.Add(ctx, ws.Path, cleaned)
	s.observe(ctx, "stage", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// Unstage removes the given pathspecs from the index.
func (s *Service) Unstage(ctx context.Context, workspaceID string, patterns []string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	cleaned := sanitizeAll(patterns)
	err = s.adapter.Reset(ctx, ws.Path, cleaned)
	s.observe(ctx, "unstage", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// Commit records staged changes and returns the new commit.
func (s *Service) Commit(ctx context.Context, workspaceID string, opts gitops.CommitOptions) (*gitops.CommitInfo, error) {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	opts.Message = sanitize.CommitMessage(opts.Message)

	info, err := s.adapter.Commit(ctx, ws.Path, opts)
	s.observe(ctx, "commit", workspaceID, start, err)
	if err != nil {
		return nil, err
	}
	s.invalidate(workspaceID)
	return info, nil
}

// Push publishes local commits to a remote.
func (s *Service) Push(ctx context.Context, workspaceID string, opts gitops.PushOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	if opts.Branch != "" {
		if opts.Branch, err = sanitize.BranchName(opts.Branch); err != nil {
			return err
		}
	}

	_, err = withRetry(ctx, s, "push", func(ctx context.Context, cred *vault.Credential) (struct{}, error) {
		return struct{}{}, s.adapter.Push(ctx, ws.Path, opts, cred)
	})
	s.observe(ctx, "push", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// Pull integrates remote changes into the current branch.
func (s *Service) Pull(ctx context.Context, workspaceID string, opts gitops.PullOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	if opts.Branch != "" {
		if opts.Branch, err = sanitize.BranchName(opts.Branch); err != nil {
			return err
		}
	}

	_, err = withRetry(ctx, s, "pull", func(ctx context.Context, cred *vault.Credential) (struct{}, error) {
		return struct{}{}, s.adapter.Pull(ctx, ws.Path, opts, cred)
	})
	s.observe(ctx, "pull", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
		go s.remeasure(ws.ID)
	}
	return err
}

// Fetch downloads objects and refs from a remote.
func (s *Service) Fetch(ctx context.Context, workspaceID, remote string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	remote = sanitize.Input(remote)

	_, err = withRetry(ctx, s, "fetch", func(ctx context.Context, cred *vault.Credential) (struct{}, error) {
		return struct{}{}, s.adapter.Fetch(ctx, ws.Path, remote, cred)
	})
	s.observe(ctx, "fetch", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// Checkout switches the working tree to a branch or revision.
func (s *Service) Checkout(ctx context.Context, workspaceID string, opts gitops.CheckoutOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	if opts.Branch, err = sanitize.BranchName(opts.Branch); err != nil {
		return err
	}
	err = s.adapter.Checkout(ctx, ws.Path, opts)
	s.observe(ctx, "checkout", workspaceID, start, err)
	if err == nil {
		s.invalidate(workspaceID)
	}
	return err
}

// Merge merges a source branch into the current one.
func (s *Service) Merge(ctx context.Context, workspaceID string, opts gitops.MergeOptions) (*gitops.MergeResult, error) {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if opts.SourceBranch, err = sanitize.BranchName(opts.SourceBranch); err != nil {
		return nil, err
	}

	result, err := s.adapter.Merge(ctx, ws.Path, opts)
	s.observe(ctx, "merge", workspaceID, start, err)
	s.invalidate(workspaceID)
	return result, err
}

// Rebase rebases the current branch, or aborts/continues an in-flight
// rebase.
func (s *Service) Rebase(ctx context.Context, workspaceID string, opts gitops.RebaseOptions) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	if opts.Branch != "" {
		if opts.Branch, err = sanitize.BranchName(opts.Branch); err != nil {
			return err
		}
	}
	err = s.adapter.Rebase(ctx, ws.Path, opts)
	s.observe(ctx, "rebase", workspaceID, start, err)
	s.invalidate(workspaceID)
	return err
}

// CherryPick applies one commit onto the current branch.
func (s *Service) CherryPick(ctx context.Context, workspaceID, commit string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	err = s.adapter.CherryPick(ctx, ws.Path, sanitize.Input(commit))
	s.observe(ctx, "cherry_pick", workspaceID, start, err)
	s.invalidate(workspaceID)
	return err
}

// Revert creates a commit undoing the given one.
func (s *Service) Revert(ctx context.Context, workspaceID, commit string) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	err = s.adapter.Revert(ctx, ws.Path, sanitize.Input(commit))
	s.observe(ctx, "revert", workspaceID, start, err)
	s.invalidate(workspaceID)
	return err
}

// Log returns commit history filtered by opts.
func (s *Service) Log(ctx context.Context, workspaceID string, opts gitops.LogOptions) ([]gitops.CommitInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if opts.Author != "" {
		opts.Author = sanitize.Input(opts.Author)
	}
	if opts.Path != "" {
		opts.Path = sanitize.Input(opts.Path)
	}
	return s.adapter.Log(ctx, ws.Path, opts)
}

// Show returns one commit by revision.
func (s *Service) Show(ctx context.Context, workspaceID, revision string) (*gitops.CommitInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return s.adapter.Show(ctx, ws.Path, sanitize.Input(revision))
}

// Diff returns a unified diff per opts.
func (s *Service) Diff(ctx context.Context, workspaceID string, opts gitops.DiffOptions) (*gitops.DiffInfo, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if opts.Path != "" {
		opts.Path = sanitize.Input(opts.Path)
	}
	if opts.CommitOID != "" {
		opts.CommitOID = sanitize.Input(opts.CommitOID)
	}
	return s.adapter.Diff(ctx, ws.Path, opts)
}

// Blame attributes lines of a file to commits.
func (s *Service) Blame(ctx context.Context, workspaceID string, opts gitops.BlameOptions) ([]gitops.BlameLine, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	opts.Path = sanitize.Input(opts.Path)
	return s.adapter.Blame(ctx, ws.Path, opts)
}

// Stash saves, applies, pops, or drops a stash entry. Returns the
// command output for save operations.
func (s *Service) Stash(ctx context.Context, workspaceID string, opts gitops.StashOptions) (string, error) {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if opts.Message != "" {
		opts.Message = sanitize.CommitMessage(opts.Message)
	}
	out, err := s.adapter.Stash(ctx, ws.Path, opts)
	s.observe(ctx, "stash", workspaceID, start, err)
	s.invalidate(workspaceID)
	return out, err
}

// ListStash returns the stash entries, newest first.
func (s *Service) ListStash(ctx context.Context, workspaceID string) ([]gitops.StashEntry, error) {
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return s.adapter.ListStash(ctx, ws.Path)
}

// Clean removes untracked files from the working tree.
func (s *Service) Clean(ctx context.Context, workspaceID string, force, directories bool) error {
	start := time.Now()
	ws, err := s.resolve(ctx, workspaceID)
	if err != nil {
		return err
	}
	err = s.adapter.Clean(ctx, ws.Path, force, directories)
	s.observe(ctx, "clean", workspaceID, start, err)
	if err == nil && force {
		s.invalidate(workspaceID)
		go s.remeasure(ws.ID)
	}
	return err
}

func sanitizeAll(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		cleaned = append(cleaned, sanitize.Input(v))
	}
	return cleaned
}
