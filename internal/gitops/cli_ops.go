package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/vault"
)

const (
	logFieldSep  = "\x1f"
	logRecordSep = "\x1e"
	logFormat    = "%H" + logFieldSep + "%an" + logFieldSep + "%ae" + logFieldSep +
		"%at" + logFieldSep + "%P" + logFieldSep + "%B" + logRecordSep
)

func (c *CLI) Clone(ctx context.Context, url, path string, opts CloneOptions, cred *vault.Credential) (*CommitInfo, error) {
	args := []string{"clone"}
	if opts.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.Depth))
	}
	if opts.SingleBranch {
		args = append(args, "--single-branch")
	}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch)
	}
	if opts.Filter != "" {
		args = append(args, "--filter="+opts.Filter)
	}
	if opts.Bare {
		args = append(args, "--bare")
	}
	if opts.Mirror {
		args = append(args, "--mirror")
	}
	if len(opts.SparsePaths) > 0 {
		args = append(args, "--sparse")
	}
	args = append(args, url, path)

	if _, err := c.run(ctx, filepath.Dir(path), credentialEnv(cred), args...); err != nil {
		return nil, err
	}
	if len(opts.SparsePaths) > 0 {
		if err := c.SparseCheckout(ctx, path, SparseCheckoutOptions{Paths: opts.SparsePaths, Mode: "replace"}); err != nil {
			return nil, err
		}
	}
	if opts.Bare || opts.Mirror {
		return &CommitInfo{}, nil
	}
	return c.HeadCommit(ctx, path)
}

func (c *CLI) Init(ctx context.Context, path string, bare bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return giterr.Wrap(err, giterr.CodeSystemError, "Failed to create repository directory").
			WithRepoPath(path)
	}
	args := []string{"init"}
	if bare {
		args = append(args, "--bare")
	}
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) IsRepository(ctx context.Context, path string) bool {
	_, err := c.run(ctx, path, nil, "rev-parse", "--git-dir")
	return err == nil
}

func (c *CLI) Status(ctx context.Context, path string) (*StatusInfo, error) {
	out, err := c.run(ctx, path, nil, "status", "--porcelain=v1", "--branch")
	if err != nil {
		return nil, err
	}

	info := &StatusInfo{}
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "## ") {
			branch := strings.TrimPrefix(line, "## ")
			if i := strings.IndexAny(branch, ". "); i > 0 {
				branch = branch[:i]
			}
			info.Branch = branch
			continue
		}
		if len(line) < 4 {
			continue
		}
		info.Files = append(info.Files, FileStatus{
			Staging:  strings.TrimSpace(line[0:1]),
			Worktree: strings.TrimSpace(line[1:2]),
			Path:     strings.TrimSpace(line[3:]),
		})
	}
	info.Clean = len(info.Files) == 0
	return info, nil
}

func (c *CLI) Add(ctx context.Context, path string, patterns []string) error {
	args := []string{"add", "--"}
	if len(patterns) == 0 {
		args = append(args, ".")
	} else {
		args = append(args, patterns...)
	}
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) Reset(ctx context.Context, path string, patterns []string) error {
	args := []string{"reset", "HEAD"}
	if len(patterns) > 0 {
		args = append(args, "--")
		args = append(args, patterns...)
	}
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) Commit(ctx context.Context, path string, opts CommitOptions) (*CommitInfo, error) {
	args := []string{"commit", "-m", opts.Message}
	if opts.Amend {
		args = append(args, "--amend")
	}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	if opts.AuthorName != "" && opts.AuthorEmail != "" {
		args = append(args, "--author", fmt.Sprintf("%s <%s>", opts.AuthorName, opts.AuthorEmail))
	}
	if _, err := c.run(ctx, path, nil, args...); err != nil {
		return nil, err
	}
	return c.HeadCommit(ctx, path)
}

func (c *CLI) Fetch(ctx context.Context, path, remote string, cred *vault.Credential) error {
	if remote == "" {
		remote = "origin"
	}
	_, err := c.run(ctx, path, credentialEnv(cred), "fetch", remote)
	return err
}

func (c *CLI) Push(ctx context.Context, path string, opts PushOptions, cred *vault.Credential) error {
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	args := []string{"push"}
	if opts.ForceWithLease {
		args = append(args, "--force-with-lease")
	} else if opts.Force {
		args = append(args, "--force")
	}
	args = append(args, remote)
	if opts.Branch != "" {
		args = append(args, opts.Branch)
	} else {
		args = append(args, "HEAD")
	}
	_, err := c.run(ctx, path, credentialEnv(cred), args...)
	return err
}

func (c *CLI) Pull(ctx context.Context, path string, opts PullOptions, cred *vault.Credential) error {
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	args := []string{"pull"}
	if opts.Rebase {
		args = append(args, "--rebase")
	}
	args = append(args, remote)
	if opts.Branch != "" {
		args = append(args, opts.Branch)
	}
	_, err := c.run(ctx, path, credentialEnv(cred), args...)
	return err
}

func (c *CLI) ListBranches(ctx context.Context, path string, includeRemote bool) ([]BranchInfo, error) {
	refs := []string{"refs/heads"}
	if includeRemote {
		refs = append(refs, "refs/remotes")
	}
	args := append([]string{
		"for-each-ref",
		"--format=%(refname:short)%00%(objectname)%00%(HEAD)%00%(refname)",
	}, refs...)

	out, err := c.run(ctx, path, nil, args...)
	if err != nil {
		return nil, err
	}

	var branches []BranchInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\x00")
		if len(parts) != 4 || parts[0] == "" {
			continue
		}
		branches = append(branches, BranchInfo{
			Name:      parts[0],
			Commit:    parts[1],
			IsCurrent: parts[2] == "*",
			IsRemote:  strings.HasPrefix(parts[3], "refs/remotes/"),
		})
	}
	return branches, nil
}

func (c *CLI) CreateBranch(ctx context.Context, path, name string, checkout bool) error {
	if checkout {
		_, err := c.run(ctx, path, nil, "checkout", "-b", name)
		return err
	}
	_, err := c.run(ctx, path, nil, "branch", name)
	return err
}

func (c *CLI) DeleteBranch(ctx context.Context, path, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := c.run(ctx, path, nil, "branch", flag, name)
	return err
}

func (c *CLI) Checkout(ctx context.Context, path string, opts CheckoutOptions) error {
	args := []string{"checkout"}
	if opts.CreateNew {
		args = append(args, "-b")
	}
	if opts.Force {
		args = append(args, "-f")
	}
	args = append(args, opts.Branch)
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) CurrentBranch(ctx context.Context, path string) (string, error) {
	out, err := c.run(ctx, path, nil, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", giterr.New(giterr.CodeGitDetachedHead, "HEAD is detached").
			WithRepoPath(path).
			WithSuggestion("Checkout a branch before this operation")
	}
	return branch, nil
}

func (c *CLI) Merge(ctx context.Context, path string, opts MergeOptions) (*MergeResult, error) {
	args := []string{"merge"}
	if !opts.FastForward {
		args = append(args, "--no-ff")
	}
	if !opts.Commit {
		args = append(args, "--no-commit")
	}
	args = append(args, opts.SourceBranch)

	out, err := c.run(ctx, path, nil, args...)
	if err != nil {
		var gitErr *giterr.Error
		if errors.As(err, &gitErr) && gitErr.Code == giterr.CodeGitMergeConflict {
			return &MergeResult{
				Outcome:    MergeConflicted,
				Conflicted: conflictedFilesFromStderr(gitErr.Details),
			}, gitErr
		}
		return nil, err
	}

	result := &MergeResult{Outcome: MergeMerged}
	switch {
	case strings.Contains(out, "Already up to date"):
		result.Outcome = MergeUpToDate
	case strings.Contains(out, "Fast-forward"):
		result.Outcome = MergeFastForward
	}
	if head, headErr := c.HeadCommit(ctx, path); headErr == nil {
		result.Commit = head.OID
	}
	return result, nil
}

func (c *CLI) Rebase(ctx context.Context, path string, opts RebaseOptions) error {
	args := []string{"rebase"}
	switch {
	case opts.Abort:
		args = append(args, "--abort")
	case opts.Continue:
		args = append(args, "--continue")
	default:
		if opts.Branch == "" {
			return giterr.Validation(giterr.CodeMissingRequiredParam, "Rebase requires a branch").
				WithParam("param", "branch")
		}
		args = append(args, opts.Branch)
	}
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) CherryPick(ctx context.Context, path, commit string) error {
	_, err := c.run(ctx, path, nil, "cherry-pick", commit)
	return err
}

func (c *CLI) Revert(ctx context.Context, path, commit string) error {
	_, err := c.run(ctx, path, nil, "revert", "--no-edit", commit)
	return err
}

func (c *CLI) Log(ctx context.Context, path string, opts LogOptions) ([]CommitInfo, error) {
	args := []string{"log", "--format=" + logFormat}
	if opts.MaxCount > 0 {
		args = append(args, "-n", strconv.Itoa(opts.MaxCount))
	}
	if opts.Skip > 0 {
		args = append(args, "--skip", strconv.Itoa(opts.Skip))
	}
	if opts.Author != "" {
		args = append(args, "--author", opts.Author)
	}
	if opts.Since != nil {
		args = append(args, "--since", opts.Since.Format(time.RFC3339))
	}
	if opts.Until != nil {
		args = append(args, "--until", opts.Until.Format(time.RFC3339))
	}
	if opts.All {
		args = append(args, "--all")
	}
	if opts.Path != "" {
		args = append(args, "--", opts.Path)
	}

	out, err := c.run(ctx, path, nil, args...)
	if err != nil {
		return nil, err
	}
	return parseLogRecords(out), nil
}

func (c *CLI) Show(ctx context.Context, path, revision string) (*CommitInfo, error) {
	out, err := c.run(ctx, path, nil, "show", "-s", "--format="+logFormat, revision)
	if err != nil {
		return nil, err
	}
	commits := parseLogRecords(out)
	if len(commits) == 0 {
		return nil, giterr.New(giterr.CodeGitCommandFailed, "Invalid revision").
			WithCommit(revision).
			WithRepoPath(path)
	}
	return &commits[0], nil
}

func (c *CLI) Diff(ctx context.Context, path string, opts DiffOptions) (*DiffInfo, error) {
	args := []string{"diff"}
	if opts.Cached {
		args = append(args, "--cached")
	}
	unified := opts.Unified
	if unified <= 0 {
		unified = 3
	}
	args = append(args, "-U"+strconv.Itoa(unified))
	if opts.CommitOID != "" {
		args = append(args, opts.CommitOID)
	}
	if opts.Path != "" {
		args = append(args, "--", opts.Path)
	}

	out, err := c.run(ctx, path, nil, args...)
	if err != nil {
		return nil, err
	}
	return &DiffInfo{
		Patch:        out,
		FilesChanged: strings.Count(out, "diff --git "),
	}, nil
}

func (c *CLI) Blame(ctx context.Context, path string, opts BlameOptions) ([]BlameLine, error) {
	args := []string{"blame", "--line-porcelain"}
	if opts.StartLine > 0 && opts.EndLine >= opts.StartLine {
		args = append(args, "-L", fmt.Sprintf("%d,%d", opts.StartLine, opts.EndLine))
	}
	args = append(args, "--", opts.Path)

	out, err := c.run(ctx, path, nil, args...)
	if err != nil {
		return nil, err
	}
	return parseBlamePorcelain(out), nil
}

func (c *CLI) HeadCommit(ctx context.Context, path string) (*CommitInfo, error) {
	return c.Show(ctx, path, "HEAD")
}

func (c *CLI) Stash(ctx context.Context, path string, opts StashOptions) (string, error) {
	var args []string
	switch {
	case opts.Save:
		args = []string{"stash", "push"}
		if opts.IncludeUntracked {
			args = append(args, "-u")
		}
		if opts.Message != "" {
			args = append(args, "-m", opts.Message)
		}
	case opts.Pop:
		args = []string{"stash", "pop", stashRef(opts.Index)}
	case opts.Apply:
		args = []string{"stash", "apply", stashRef(opts.Index)}
	case opts.Drop:
		args = []string{"stash", "drop", stashRef(opts.Index)}
	default:
		return "", giterr.Validation(giterr.CodeParameterConflict,
			"Stash requires exactly one of save, pop, apply, drop")
	}

	out, err := c.run(ctx, path, nil, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func stashRef(index int) string {
	return fmt.Sprintf("stash@{%d}", index)
}

func (c *CLI) ListStash(ctx context.Context, path string) ([]StashEntry, error) {
	out, err := c.run(ctx, path, nil, "stash", "list", "--format=%gd%x00%gs")
	if err != nil {
		return nil, err
	}

	var entries []StashEntry
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.SplitN(line, "\x00", 2)
		if len(parts) != 2 {
			continue
		}
		ref := strings.TrimSuffix(strings.TrimPrefix(parts[0], "stash@{"), "}")
		index, convErr := strconv.Atoi(ref)
		if convErr != nil {
			continue
		}
		entries = append(entries, StashEntry{Index: index, Message: parts[1]})
	}
	return entries, nil
}

func (c *CLI) ListTags(ctx context.Context, path string) ([]TagInfo, error) {
	out, err := c.run(ctx, path, nil,
		"for-each-ref", "refs/tags", "--format=%(refname:short)%00%(objectname)")
	if err != nil {
		return nil, err
	}

	var tags []TagInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\x00")
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		tags = append(tags, TagInfo{Name: parts[0], Commit: parts[1]})
	}
	return tags, nil
}

func (c *CLI) CreateTag(ctx context.Context, path string, opts TagOptions) error {
	args := []string{"tag"}
	if opts.Force {
		args = append(args, "-f")
	}
	if opts.Message != "" {
		args = append(args, "-a", "-m", opts.Message)
	}
	args = append(args, opts.Name)
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) DeleteTag(ctx context.Context, path, name string) error {
	_, err := c.run(ctx, path, nil, "tag", "-d", name)
	return err
}

func (c *CLI) ListRemotes(ctx context.Context, path string) ([]RemoteInfo, error) {
	out, err := c.run(ctx, path, nil, "remote", "-v")
	if err != nil {
		return nil, err
	}

	byName := map[string]*RemoteInfo{}
	var order []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		name, url, kind := fields[0], fields[1], fields[2]
		r, ok := byName[name]
		if !ok {
			r = &RemoteInfo{Name: name}
			byName[name] = r
			order = append(order, name)
		}
		switch kind {
		case "(fetch)":
			r.FetchURL = url
		case "(push)":
			r.PushURL = url
		}
	}

	remotes := make([]RemoteInfo, 0, len(order))
	for _, name := range order {
		remotes = append(remotes, *byName[name])
	}
	return remotes, nil
}

func (c *CLI) AddRemote(ctx context.Context, path, name, url string) error {
	_, err := c.run(ctx, path, nil, "remote", "add", name, url)
	return err
}

func (c *CLI) RemoveRemote(ctx context.Context, path, name string) error {
	_, err := c.run(ctx, path, nil, "remote", "remove", name)
	return err
}

func (c *CLI) Clean(ctx context.Context, path string, force, directories bool) error {
	args := []string{"clean"}
	if force {
		args = append(args, "-f")
	} else {
		args = append(args, "-n")
	}
	if directories {
		args = append(args, "-d")
	}
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) LfsInit(ctx context.Context, path string) error {
	_, err := c.run(ctx, path, nil, "lfs", "install", "--local")
	return err
}

func (c *CLI) LfsTrack(ctx context.Context, path string, opts LfsOptions) error {
	args := []string{"lfs", "track"}
	if opts.Lockable {
		args = append(args, "--lockable")
	}
	args = append(args, opts.Patterns...)
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) LfsUntrack(ctx context.Context, path string, patterns []string) error {
	args := append([]string{"lfs", "untrack"}, patterns...)
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) LfsStatus(ctx context.Context, path string) ([]LfsFileInfo, error) {
	out, err := c.run(ctx, path, nil, "lfs", "ls-files", "--long", "--size")
	if err != nil {
		return nil, err
	}

	var files []LfsFileInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		f := LfsFileInfo{OID: fields[0], Path: fields[2], Name: filepath.Base(fields[2])}
		// Trailing "(12 MB)" style annotation when --size is honored.
		if i := strings.Index(line, "("); i >= 0 {
			f.Size = parseLfsSize(line[i:])
		}
		files = append(files, f)
	}
	return files, nil
}

func (c *CLI) LfsPull(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error {
	_, err := c.run(ctx, path, credentialEnv(cred), "lfs", "pull", lfsRemote(opts))
	return err
}

func (c *CLI) LfsPush(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error {
	args := []string{"lfs", "push", lfsRemote(opts)}
	if opts.All {
		args = append(args, "--all")
	}
	_, err := c.run(ctx, path, credentialEnv(cred), args...)
	return err
}

func (c *CLI) LfsFetch(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error {
	_, err := c.run(ctx, path, credentialEnv(cred), "lfs", "fetch", lfsRemote(opts))
	return err
}

func lfsRemote(opts LfsOptions) string {
	if opts.Remote == "" {
		return "origin"
	}
	return opts.Remote
}

func (c *CLI) SparseCheckout(ctx context.Context, path string, opts SparseCheckoutOptions) error {
	switch opts.Mode {
	case "", "replace":
		args := append([]string{"sparse-checkout", "set"}, opts.Paths...)
		_, err := c.run(ctx, path, nil, args...)
		return err
	case "add":
		args := append([]string{"sparse-checkout", "add"}, opts.Paths...)
		_, err := c.run(ctx, path, nil, args...)
		return err
	case "remove":
		out, err := c.run(ctx, path, nil, "sparse-checkout", "list")
		if err != nil {
			return err
		}
		remove := make(map[string]bool, len(opts.Paths))
		for _, p := range opts.Paths {
			remove[p] = true
		}
		var kept []string
		for _, p := range strings.Split(strings.TrimSpace(out), "\n") {
			if p != "" && !remove[p] {
				kept = append(kept, p)
			}
		}
		args := append([]string{"sparse-checkout", "set"}, kept...)
		_, err = c.run(ctx, path, nil, args...)
		return err
	}
	return giterr.Validation(giterr.CodeMissingRequiredParam,
		"Sparse checkout mode must be replace, add, or remove").
		WithParam("mode", opts.Mode)
}

func (c *CLI) SubmoduleAdd(ctx context.Context, path, url, subPath string) error {
	_, err := c.run(ctx, path, nil, "submodule", "add", url, subPath)
	return err
}

func (c *CLI) SubmoduleUpdate(ctx context.Context, path string, init, recursive bool) error {
	args := []string{"submodule", "update"}
	if init {
		args = append(args, "--init")
	}
	if recursive {
		args = append(args, "--recursive")
	}
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) SubmoduleDeinit(ctx context.Context, path, subPath string, force bool) error {
	args := []string{"submodule", "deinit"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, subPath)
	_, err := c.run(ctx, path, nil, args...)
	return err
}

func (c *CLI) SubmoduleList(ctx context.Context, path string) ([]SubmoduleInfo, error) {
	out, err := c.run(ctx, path, nil,
		"config", "--file", ".gitmodules", "--get-regexp", `submodule\..*\.(path|url)`)
	if err != nil {
		// No .gitmodules means no submodules.
		if _, statErr := os.Stat(filepath.Join(path, ".gitmodules")); statErr != nil {
			return nil, nil
		}
		return nil, err
	}

	byName := map[string]*SubmoduleInfo{}
	var order []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		parts := strings.Split(key, ".")
		if len(parts) < 3 || parts[0] != "submodule" {
			continue
		}
		name := strings.Join(parts[1:len(parts)-1], ".")
		s, exists := byName[name]
		if !exists {
			s = &SubmoduleInfo{Name: name}
			byName[name] = s
			order = append(order, name)
		}
		switch parts[len(parts)-1] {
		case "path":
			s.Path = value
		case "url":
			s.URL = value
		}
	}

	subs := make([]SubmoduleInfo, 0, len(order))
	for _, name := range order {
		s := byName[name]
		if s.Path != "" {
			if oid, oidErr := c.run(ctx, path, nil, "rev-parse", "HEAD:"+s.Path); oidErr == nil {
				s.Commit = strings.TrimSpace(oid)
			}
		}
		subs = append(subs, *s)
	}
	return subs, nil
}

// parseLogRecords decodes the unit/record separated log format.
func parseLogRecords(out string) []CommitInfo {
	var commits []CommitInfo
	for _, record := range strings.Split(out, logRecordSep) {
		record = strings.TrimLeft(record, "\n")
		parts := strings.Split(record, logFieldSep)
		if len(parts) != 6 || parts[0] == "" {
			continue
		}
		ts, _ := strconv.ParseInt(parts[3], 10, 64)
		ci := CommitInfo{
			OID:         parts[0],
			AuthorName:  parts[1],
			AuthorEmail: parts[2],
			CommitTime:  time.Unix(ts, 0).UTC(),
			Message:     strings.TrimSpace(parts[5]),
		}
		if parents := strings.Fields(parts[4]); len(parents) > 0 {
			ci.ParentOIDs = parents
		}
		commits = append(commits, ci)
	}
	return commits
}

// parseBlamePorcelain decodes `git blame --line-porcelain` output.
func parseBlamePorcelain(out string) []BlameLine {
	var lines []BlameLine
	var current BlameLine
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "\t"):
			current.Text = strings.TrimPrefix(line, "\t")
			lines = append(lines, current)
			current = BlameLine{}
		case strings.HasPrefix(line, "author "):
			current.Author = strings.TrimPrefix(line, "author ")
		default:
			fields := strings.Fields(line)
			if len(fields) >= 3 && len(fields[0]) == 40 {
				current.Commit = fields[0]
				if n, err := strconv.Atoi(fields[2]); err == nil {
					current.LineNo = n
				}
			}
		}
	}
	return lines
}

// parseLfsSize decodes a "(12 MB)" annotation into bytes.
func parseLfsSize(s string) int64 {
	s = strings.Trim(s, "() \t")
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(fields[1]) {
	case "B":
		return int64(n)
	case "KB":
		return int64(n * 1024)
	case "MB":
		return int64(n * 1024 * 1024)
	case "GB":
		return int64(n * 1024 * 1024 * 1024)
	}
	return 0
}
