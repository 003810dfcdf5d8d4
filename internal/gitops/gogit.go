package gitops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/vault"
)

// GoGit is the in-process backend built on go-git. Operations go-git
// cannot express return a typed error steering callers to the CLI
// backend.
type GoGit struct {
	log *slog.Logger
}

// NewGoGit returns the native backend.
func NewGoGit() *GoGit {
	return &GoGit{log: slog.Default().With(slog.String("component", "gitops.native"))}
}

// requiresCLI is the typed gap marker for go-git blind spots.
func requiresCLI(op string) *giterr.Error {
	return giterr.New(giterr.CodeGitCommandFailed,
		fmt.Sprintf("Operation %q is not supported by the native backend", op)).
		WithSuggestion("Use the CLI backend for this operation").
		WithOperation(op)
}

// authMethod maps a resolved credential onto a go-git transport auth.
func authMethod(cred *vault.Credential) (transport.AuthMethod, error) {
	if cred == nil {
		return nil, nil
	}
	switch cred.AuthType {
	case vault.AuthToken, vault.AuthUsernamePassword:
		pw := cred.BasicPassword()
		if pw == nil {
			return nil, nil
		}
		return &http.BasicAuth{
			Username: cred.BasicUsername(),
			Password: pw.Reveal(),
		}, nil
	case vault.AuthSSHKey:
		keys, err := ssh.NewPublicKeysFromFile("git", cred.SSHKeyPath, cred.SSHPassphrase.Reveal())
		if err != nil {
			return nil, giterr.Wrap(err, giterr.CodeAuthFailed, "Failed to load SSH key").
				WithParam("key_path", cred.SSHKeyPath)
		}
		return keys, nil
	case vault.AuthSSHAgent:
		agent, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			return nil, giterr.Wrap(err, giterr.CodeAuthFailed, "Failed to connect to SSH agent")
		}
		return agent, nil
	}
	return nil, nil
}

// mapNativeError translates go-git errors onto the error taxonomy.
func mapNativeError(err error, op string) error {
	if err == nil {
		return nil
	}
	var gitErr *giterr.Error
	if errors.As(err, &gitErr) {
		return gitErr
	}

	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return giterr.AuthFailed("Authentication failed").WithOperation(op)
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return giterr.New(giterr.CodeRepoNotFound, "Repository not found").WithOperation(op)
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return giterr.New(giterr.CodeGitNotARepo, "Not a git repository").WithOperation(op)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return giterr.New(giterr.CodeGitCommandFailed, "Invalid revision").WithOperation(op)
	case errors.Is(err, context.DeadlineExceeded):
		return giterr.Wrap(err, giterr.CodeTimeout, "Git operation timed out").WithOperation(op)
	case strings.Contains(err.Error(), "non-fast-forward"):
		return giterr.Wrap(err, giterr.CodeGitPushRejected, "Push rejected by remote").
			WithSuggestion("Pull the latest changes and try again").
			WithOperation(op)
	}
	return giterr.Wrap(err, giterr.CodeGitCommandFailed, "Git operation failed").WithOperation(op)
}

func openRepo(path string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, giterr.New(giterr.CodeGitNotARepo, "Not a git repository").
				WithRepoPath(path)
		}
		return nil, giterr.Wrap(err, giterr.CodeGitCommandFailed, "Failed to open repository").
			WithRepoPath(path)
	}
	return repo, nil
}

func (g *GoGit) Clone(ctx context.Context, url, path string, opts CloneOptions, cred *vault.Credential) (*CommitInfo, error) {
	if opts.Filter != "" || len(opts.SparsePaths) > 0 {
		return nil, requiresCLI("clone")
	}
	auth, err := authMethod(cred)
	if err != nil {
		return nil, err
	}

	cloneOpts := &gogit.CloneOptions{
		URL:          url,
		Depth:        opts.Depth,
		SingleBranch: opts.SingleBranch,
		Mirror:       opts.Mirror,
		Auth:         auth,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	start := time.Now()
	repo, err := gogit.PlainCloneContext(ctx, path, opts.Bare || opts.Mirror, cloneOpts)
	if err != nil {
		return nil, mapNativeError(err, "clone")
	}
	g.log.Debug("repository cloned",
		logfields.URL(url),
		logfields.Path(path),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())),
	)

	if opts.Bare || opts.Mirror {
		return &CommitInfo{}, nil
	}
	head, err := repo.Head()
	if err != nil {
		return &CommitInfo{}, nil
	}
	return g.commitInfo(repo, head.Hash())
}

func (g *GoGit) Init(ctx context.Context, path string, bare bool) error {
	_, err := gogit.PlainInit(path, bare)
	return mapNativeError(err, "init")
}

func (g *GoGit) IsRepository(ctx context.Context, path string) bool {
	_, err := gogit.PlainOpen(path)
	return err == nil
}

func (g *GoGit) Status(ctx context.Context, path string) (*StatusInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, mapNativeError(err, "status")
	}
	status, err := wt.Status()
	if err != nil {
		return nil, mapNativeError(err, "status")
	}

	info := &StatusInfo{Clean: status.IsClean()}
	if head, headErr := repo.Head(); headErr == nil && head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	for file, fs := range status {
		if fs.Staging == gogit.Unmodified && fs.Worktree == gogit.Unmodified {
			continue
		}
		info.Files = append(info.Files, FileStatus{
			Path:     file,
			Staging:  statusCode(fs.Staging),
			Worktree: statusCode(fs.Worktree),
		})
	}
	return info, nil
}

func statusCode(c gogit.StatusCode) string {
	if c == gogit.Unmodified {
		return ""
	}
	return string(rune(c))
}

func (g *GoGit) Add(ctx context.Context, path string, patterns []string) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return mapNativeError(err, "add")
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	for _, p := range patterns {
		if err := wt.AddWithOptions(&gogit.AddOptions{Glob: p}); err != nil {
			return mapNativeError(err, "add")
		}
	}
	return nil
}

func (g *GoGit) Reset(ctx context.Context, path string, patterns []string) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return mapNativeError(err, "reset")
	}
	if len(patterns) == 0 {
		return mapNativeError(wt.Reset(&gogit.ResetOptions{Mode: gogit.MixedReset}), "reset")
	}
	return mapNativeError(wt.Restore(&gogit.RestoreOptions{Staged: true, Files: patterns}), "reset")
}

func (g *GoGit) Commit(ctx context.Context, path string, opts CommitOptions) (*CommitInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, mapNativeError(err, "commit")
	}

	commitOpts := &gogit.CommitOptions{
		Amend:             opts.Amend,
		AllowEmptyCommits: opts.AllowEmpty,
	}
	if opts.AuthorName != "" && opts.AuthorEmail != "" {
		commitOpts.Author = &object.Signature{
			Name:  opts.AuthorName,
			Email: opts.AuthorEmail,
			When:  time.Now(),
		}
	}

	hash, err := wt.Commit(opts.Message, commitOpts)
	if err != nil {
		if errors.Is(err, gogit.ErrEmptyCommit) {
			return nil, giterr.New(giterr.CodeGitNoChanges, "No changes to commit").
				WithRepoPath(path)
		}
		return nil, mapNativeError(err, "commit")
	}
	return g.commitInfo(repo, hash)
}

func (g *GoGit) Fetch(ctx context.Context, path, remote string, cred *vault.Credential) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	auth, err := authMethod(cred)
	if err != nil {
		return err
	}
	if remote == "" {
		remote = "origin"
	}
	err = repo.FetchContext(ctx, &gogit.FetchOptions{RemoteName: remote, Auth: auth})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return mapNativeError(err, "fetch")
}

func (g *GoGit) Push(ctx context.Context, path string, opts PushOptions, cred *vault.Credential) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	auth, err := authMethod(cred)
	if err != nil {
		return err
	}

	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	pushOpts := &gogit.PushOptions{
		RemoteName: remote,
		Auth:       auth,
		Force:      opts.Force,
	}
	if opts.ForceWithLease {
		pushOpts.Force = false
		pushOpts.ForceWithLease = &gogit.ForceWithLease{}
	}
	if opts.Branch != "" {
		ref := plumbing.NewBranchReferenceName(opts.Branch)
		pushOpts.RefSpecs = []gitconfig.RefSpec{
			gitconfig.RefSpec(ref + ":" + ref),
		}
	}

	err = repo.PushContext(ctx, pushOpts)
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return mapNativeError(err, "push")
}

func (g *GoGit) Pull(ctx context.Context, path string, opts PullOptions, cred *vault.Credential) error {
	if opts.Rebase {
		return requiresCLI("pull --rebase")
	}
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return mapNativeError(err, "pull")
	}
	auth, err := authMethod(cred)
	if err != nil {
		return err
	}

	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	pullOpts := &gogit.PullOptions{RemoteName: remote, Auth: auth}
	if opts.Branch != "" {
		pullOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}

	err = wt.PullContext(ctx, pullOpts)
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return mapNativeError(err, "pull")
}

func (g *GoGit) ListBranches(ctx context.Context, path string, includeRemote bool) ([]BranchInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}

	var current plumbing.ReferenceName
	if head, headErr := repo.Head(); headErr == nil {
		current = head.Name()
	}

	var branches []BranchInfo
	iter, err := repo.Branches()
	if err != nil {
		return nil, mapNativeError(err, "branch")
	}
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, BranchInfo{
			Name:      ref.Name().Short(),
			Commit:    ref.Hash().String(),
			IsCurrent: ref.Name() == current,
		})
		return nil
	})

	if includeRemote {
		refs, refErr := repo.References()
		if refErr != nil {
			return nil, mapNativeError(refErr, "branch")
		}
		_ = refs.ForEach(func(ref *plumbing.Reference) error {
			if ref.Name().IsRemote() {
				branches = append(branches, BranchInfo{
					Name:     ref.Name().Short(),
					Commit:   ref.Hash().String(),
					IsRemote: true,
				})
			}
			return nil
		})
	}
	return branches, nil
}

func (g *GoGit) CreateBranch(ctx context.Context, path, name string, checkout bool) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}

	if checkout {
		wt, wtErr := repo.Worktree()
		if wtErr != nil {
			return mapNativeError(wtErr, "branch")
		}
		return mapNativeError(wt.Checkout(&gogit.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(name),
			Create: true,
		}), "branch")
	}

	head, err := repo.Head()
	if err != nil {
		return mapNativeError(err, "branch")
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	return mapNativeError(repo.Storer.SetReference(ref), "branch")
}

func (g *GoGit) DeleteBranch(ctx context.Context, path, name string, force bool) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}

	refName := plumbing.NewBranchReferenceName(name)
	if head, headErr := repo.Head(); headErr == nil && head.Name() == refName {
		return giterr.New(giterr.CodeGitCommandFailed, "Cannot delete the checked out branch").
			WithBranch(name).
			WithRepoPath(path)
	}
	if _, refErr := repo.Reference(refName, false); refErr != nil {
		return giterr.New(giterr.CodeGitCommandFailed, "Branch not found").
			WithBranch(name).
			WithRepoPath(path)
	}
	return mapNativeError(repo.Storer.RemoveReference(refName), "branch")
}

func (g *GoGit) Checkout(ctx context.Context, path string, opts CheckoutOptions) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return mapNativeError(err, "checkout")
	}
	return mapNativeError(wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(opts.Branch),
		Create: opts.CreateNew,
		Force:  opts.Force,
	}), "checkout")
}

func (g *GoGit) CurrentBranch(ctx context.Context, path string) (string, error) {
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", mapNativeError(err, "branch")
	}
	if !head.Name().IsBranch() {
		return "", giterr.New(giterr.CodeGitDetachedHead, "HEAD is detached").
			WithRepoPath(path).
			WithSuggestion("Checkout a branch before this operation")
	}
	return head.Name().Short(), nil
}

// Merge handles the up-to-date and fast-forward cases natively; true
// three-way merges need the CLI backend.
func (g *GoGit) Merge(ctx context.Context, path string, opts MergeOptions) (*MergeResult, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, mapNativeError(err, "merge")
	}
	sourceRef, err := repo.Reference(plumbing.NewBranchReferenceName(opts.SourceBranch), true)
	if err != nil {
		return nil, giterr.New(giterr.CodeGitCommandFailed, "Branch not found").
			WithBranch(opts.SourceBranch).
			WithRepoPath(path)
	}

	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, mapNativeError(err, "merge")
	}
	sourceCommit, err := repo.CommitObject(sourceRef.Hash())
	if err != nil {
		return nil, mapNativeError(err, "merge")
	}

	if sourceRef.Hash() == head.Hash() {
		return &MergeResult{Outcome: MergeUpToDate, Commit: head.Hash().String()}, nil
	}
	if ancestor, _ := sourceCommit.IsAncestor(headCommit); ancestor {
		return &MergeResult{Outcome: MergeUpToDate, Commit: head.Hash().String()}, nil
	}

	if ancestor, _ := headCommit.IsAncestor(sourceCommit); ancestor && opts.FastForward {
		wt, wtErr := repo.Worktree()
		if wtErr != nil {
			return nil, mapNativeError(wtErr, "merge")
		}
		ref := plumbing.NewHashReference(head.Name(), sourceRef.Hash())
		if setErr := repo.Storer.SetReference(ref); setErr != nil {
			return nil, mapNativeError(setErr, "merge")
		}
		if coErr := wt.Reset(&gogit.ResetOptions{Mode: gogit.HardReset, Commit: sourceRef.Hash()}); coErr != nil {
			return nil, mapNativeError(coErr, "merge")
		}
		return &MergeResult{Outcome: MergeFastForward, Commit: sourceRef.Hash().String()}, nil
	}

	return nil, requiresCLI("merge")
}

func (g *GoGit) Rebase(ctx context.Context, path string, opts RebaseOptions) error {
	return requiresCLI("rebase")
}

func (g *GoGit) CherryPick(ctx context.Context, path, commit string) error {
	return requiresCLI("cherry-pick")
}

func (g *GoGit) Revert(ctx context.Context, path, commit string) error {
	return requiresCLI("revert")
}

func (g *GoGit) Log(ctx context.Context, path string, opts LogOptions) ([]CommitInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}

	logOpts := &gogit.LogOptions{
		All:   opts.All,
		Since: opts.Since,
		Until: opts.Until,
	}
	if opts.Path != "" {
		logOpts.PathFilter = func(p string) bool { return strings.HasPrefix(p, opts.Path) }
	}

	iter, err := repo.Log(logOpts)
	if err != nil {
		return nil, mapNativeError(err, "log")
	}
	defer iter.Close()

	var commits []CommitInfo
	skipped := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if opts.Author != "" && !strings.Contains(c.Author.Name, opts.Author) &&
			!strings.Contains(c.Author.Email, opts.Author) {
			return nil
		}
		if skipped < opts.Skip {
			skipped++
			return nil
		}
		commits = append(commits, toCommitInfo(c))
		if opts.MaxCount > 0 && len(commits) >= opts.MaxCount {
			return storerStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storerStop) {
		return nil, mapNativeError(err, "log")
	}
	return commits, nil
}

// storerStop terminates commit iteration early.
var storerStop = errors.New("stop iteration")

func (g *GoGit) Show(ctx context.Context, path, revision string) (*CommitInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, giterr.New(giterr.CodeGitCommandFailed, "Invalid revision").
			WithCommit(revision).
			WithRepoPath(path)
	}
	return g.commitInfo(repo, *hash)
}

// Diff compares a commit against its first parent. Worktree and index
// diffs need the CLI backend.
func (g *GoGit) Diff(ctx context.Context, path string, opts DiffOptions) (*DiffInfo, error) {
	if opts.CommitOID == "" {
		return nil, requiresCLI("diff")
	}
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(opts.CommitOID))
	if err != nil {
		return nil, giterr.New(giterr.CodeGitCommandFailed, "Invalid revision").
			WithCommit(opts.CommitOID).
			WithRepoPath(path)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, mapNativeError(err, "diff")
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return nil, mapNativeError(parentErr, "diff")
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, mapNativeError(err, "diff")
		}
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, mapNativeError(err, "diff")
	}

	changes, err := parentTree.DiffContext(ctx, tree)
	if err != nil {
		return nil, mapNativeError(err, "diff")
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, mapNativeError(err, "diff")
	}
	return &DiffInfo{
		Patch:        patch.String(),
		FilesChanged: len(changes),
	}, nil
}

func (g *GoGit) Blame(ctx context.Context, path string, opts BlameOptions) ([]BlameLine, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, mapNativeError(err, "blame")
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, mapNativeError(err, "blame")
	}

	result, err := gogit.Blame(commit, opts.Path)
	if err != nil {
		return nil, mapNativeError(err, "blame")
	}

	var lines []BlameLine
	for i, line := range result.Lines {
		lineNo := i + 1
		if opts.StartLine > 0 && lineNo < opts.StartLine {
			continue
		}
		if opts.EndLine > 0 && lineNo > opts.EndLine {
			break
		}
		lines = append(lines, BlameLine{
			LineNo: lineNo,
			Commit: line.Hash.String(),
			Author: line.AuthorName,
			Text:   line.Text,
		})
	}
	return lines, nil
}

func (g *GoGit) HeadCommit(ctx context.Context, path string) (*CommitInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, mapNativeError(err, "show")
	}
	return g.commitInfo(repo, head.Hash())
}

func (g *GoGit) Stash(ctx context.Context, path string, opts StashOptions) (string, error) {
	return "", requiresCLI("stash")
}

func (g *GoGit) ListStash(ctx context.Context, path string) ([]StashEntry, error) {
	return nil, requiresCLI("stash")
}

func (g *GoGit) ListTags(ctx context.Context, path string) ([]TagInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, mapNativeError(err, "tag")
	}

	var tags []TagInfo
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		commit := ref.Hash()
		// Annotated tags point at a tag object; peel to the commit.
		if tagObj, tagErr := repo.TagObject(ref.Hash()); tagErr == nil {
			commit = tagObj.Target
		}
		tags = append(tags, TagInfo{Name: ref.Name().Short(), Commit: commit.String()})
		return nil
	})
	return tags, nil
}

func (g *GoGit) CreateTag(ctx context.Context, path string, opts TagOptions) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return mapNativeError(err, "tag")
	}

	if opts.Force {
		_ = repo.DeleteTag(opts.Name)
	}
	var createOpts *gogit.CreateTagOptions
	if opts.Message != "" {
		createOpts = &gogit.CreateTagOptions{Message: opts.Message}
	}
	_, err = repo.CreateTag(opts.Name, head.Hash(), createOpts)
	return mapNativeError(err, "tag")
}

func (g *GoGit) DeleteTag(ctx context.Context, path, name string) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	return mapNativeError(repo.DeleteTag(name), "tag")
}

func (g *GoGit) ListRemotes(ctx context.Context, path string) ([]RemoteInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, mapNativeError(err, "remote")
	}

	infos := make([]RemoteInfo, 0, len(remotes))
	for _, r := range remotes {
		cfg := r.Config()
		info := RemoteInfo{Name: cfg.Name}
		if len(cfg.URLs) > 0 {
			info.FetchURL = cfg.URLs[0]
			info.PushURL = cfg.URLs[0]
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (g *GoGit) AddRemote(ctx context.Context, path, name, url string) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	return mapNativeError(err, "remote")
}

func (g *GoGit) RemoveRemote(ctx context.Context, path, name string) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	return mapNativeError(repo.DeleteRemote(name), "remote")
}

func (g *GoGit) Clean(ctx context.Context, path string, force, directories bool) error {
	if !force {
		return nil
	}
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return mapNativeError(err, "clean")
	}
	return mapNativeError(wt.Clean(&gogit.CleanOptions{Dir: directories}), "clean")
}

func (g *GoGit) LfsInit(ctx context.Context, path string) error {
	return requiresCLI("lfs")
}

func (g *GoGit) LfsTrack(ctx context.Context, path string, opts LfsOptions) error {
	return requiresCLI("lfs")
}

func (g *GoGit) LfsUntrack(ctx context.Context, path string, patterns []string) error {
	return requiresCLI("lfs")
}

func (g *GoGit) LfsStatus(ctx context.Context, path string) ([]LfsFileInfo, error) {
	return nil, requiresCLI("lfs")
}

func (g *GoGit) LfsPull(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error {
	return requiresCLI("lfs")
}

func (g *GoGit) LfsPush(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error {
	return requiresCLI("lfs")
}

func (g *GoGit) LfsFetch(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error {
	return requiresCLI("lfs")
}

func (g *GoGit) SparseCheckout(ctx context.Context, path string, opts SparseCheckoutOptions) error {
	return requiresCLI("sparse-checkout")
}

func (g *GoGit) SubmoduleAdd(ctx context.Context, path, url, subPath string) error {
	return requiresCLI("submodule")
}

func (g *GoGit) SubmoduleUpdate(ctx context.Context, path string, init, recursive bool) error {
	repo, err := openRepo(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return mapNativeError(err, "submodule")
	}
	subs, err := wt.Submodules()
	if err != nil {
		return mapNativeError(err, "submodule")
	}

	updateOpts := &gogit.SubmoduleUpdateOptions{Init: init}
	if recursive {
		updateOpts.RecurseSubmodules = gogit.DefaultSubmoduleRecursionDepth
	}
	return mapNativeError(subs.UpdateContext(ctx, updateOpts), "submodule")
}

func (g *GoGit) SubmoduleDeinit(ctx context.Context, path, subPath string, force bool) error {
	return requiresCLI("submodule")
}

func (g *GoGit) SubmoduleList(ctx context.Context, path string) ([]SubmoduleInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, mapNativeError(err, "submodule")
	}
	subs, err := wt.Submodules()
	if err != nil {
		return nil, mapNativeError(err, "submodule")
	}

	var infos []SubmoduleInfo
	for _, s := range subs {
		cfg := s.Config()
		info := SubmoduleInfo{Name: cfg.Name, Path: cfg.Path, URL: cfg.URL}
		if status, statusErr := s.Status(); statusErr == nil {
			info.Commit = status.Current.String()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (g *GoGit) commitInfo(repo *gogit.Repository, hash plumbing.Hash) (*CommitInfo, error) {
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, mapNativeError(err, "show")
	}
	ci := toCommitInfo(commit)
	return &ci, nil
}

func toCommitInfo(c *object.Commit) CommitInfo {
	ci := CommitInfo{
		OID:         c.Hash.String(),
		Message:     strings.TrimSpace(c.Message),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		CommitTime:  c.Author.When.UTC(),
	}
	for _, p := range c.ParentHashes {
		ci.ParentOIDs = append(ci.ParentOIDs, p.String())
	}
	return ci
}
