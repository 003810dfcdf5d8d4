// Package gitops defines the Git capability used by the service facade
// and provides two interchangeable implementations: GoGit (in-process,
// go-git) and CLI (shell-out to the git binary). Both speak the same
// error taxonomy; operations one backend cannot express return a typed
// GIT_COMMAND_FAILED pointing at the other backend.
package gitops

import (
	"context"
	"time"

	"github.com/gitmcp/gitmcp/internal/vault"
)

// CloneOptions controls repository cloning.
type CloneOptions struct {
	Depth        int
	SingleBranch bool
	Branch       string
	Filter       string // partial clone filter, e.g. blob:none
	Bare         bool
	Mirror       bool
	SparsePaths  []string
}

// CommitOptions controls commit creation.
type CommitOptions struct {
	Message     string
	AuthorName  string
	AuthorEmail string
	Amend       bool
	AllowEmpty  bool
}

// PushOptions controls pushing to a remote.
type PushOptions struct {
	Remote         string
	Branch         string
	Force          bool
	ForceWithLease bool
}

// PullOptions controls pulling from a remote.
type PullOptions struct {
	Remote string
	Branch string
	Rebase bool
}

// MergeOptions controls merging a branch into the current one.
type MergeOptions struct {
	SourceBranch string
	FastForward  bool
	Commit       bool
}

// CheckoutOptions controls branch checkout.
type CheckoutOptions struct {
	Branch    string
	CreateNew bool
	Force     bool
}

// RebaseOptions controls rebase operations.
type RebaseOptions struct {
	Branch   string
	Abort    bool
	Continue bool
}

// LogOptions filters commit history.
type LogOptions struct {
	MaxCount int
	Skip     int
	Author   string
	Since    *time.Time
	Until    *time.Time
	Path     string
	All      bool
}

// DiffOptions controls diff output.
type DiffOptions struct {
	Cached    bool
	CommitOID string
	Path      string
	Unified   int
}

// BlameOptions controls blame output.
type BlameOptions struct {
	Path      string
	StartLine int
	EndLine   int
}

// StashOptions selects a stash operation; exactly one of Save, Pop,
// Apply, Drop should be set.
type StashOptions struct {
	Save             bool
	Pop              bool
	Apply            bool
	Drop             bool
	Message          string
	IncludeUntracked bool
	Index            int
}

// TagOptions controls tag creation.
type TagOptions struct {
	Name    string
	Message string // non-empty creates an annotated tag
	Force   bool
}

// LfsOptions controls Git LFS operations.
type LfsOptions struct {
	Patterns []string
	Lockable bool
	Remote   string
	All      bool
}

// SparseCheckoutOptions controls the sparse checkout set.
type SparseCheckoutOptions struct {
	Paths []string
	Mode  string // replace | add | remove
}

// CommitInfo describes one commit.
type CommitInfo struct {
	OID         string    `json:"oid"`
	Message     string    `json:"message"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	CommitTime  time.Time `json:"commit_time"`
	ParentOIDs  []string  `json:"parent_oids,omitempty"`
}

// FileStatus is one path's index and worktree state.
type FileStatus struct {
	Path     string `json:"path"`
	Staging  string `json:"staging"`
	Worktree string `json:"worktree"`
}

// StatusInfo summarizes the working tree.
type StatusInfo struct {
	Branch string       `json:"branch"`
	Clean  bool         `json:"clean"`
	Files  []FileStatus `json:"files,omitempty"`
}

// BranchInfo describes one branch.
type BranchInfo struct {
	Name      string `json:"name"`
	Commit    string `json:"commit"`
	IsCurrent bool   `json:"is_current"`
	IsRemote  bool   `json:"is_remote"`
}

// DiffInfo carries a unified diff.
type DiffInfo struct {
	Patch        string `json:"patch"`
	FilesChanged int    `json:"files_changed"`
}

// BlameLine is one line's attribution.
type BlameLine struct {
	LineNo int    `json:"line_no"`
	Commit string `json:"commit"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

// StashEntry is one stash ref.
type StashEntry struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// TagInfo describes one tag.
type TagInfo struct {
	Name   string `json:"name"`
	Commit string `json:"commit"`
}

// RemoteInfo describes one configured remote.
type RemoteInfo struct {
	Name     string `json:"name"`
	FetchURL string `json:"fetch_url"`
	PushURL  string `json:"push_url"`
}

// LfsFileInfo describes one LFS-tracked file.
type LfsFileInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	OID  string `json:"oid,omitempty"`
}

// SubmoduleInfo describes one registered submodule.
type SubmoduleInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	URL    string `json:"url"`
	Commit string `json:"commit,omitempty"`
}

// MergeOutcome enumerates merge results.
type MergeOutcome string

const (
	MergeUpToDate    MergeOutcome = "already_up_to_date"
	MergeFastForward MergeOutcome = "fast_forward"
	MergeMerged      MergeOutcome = "merged"
	MergeConflicted  MergeOutcome = "conflicted"
)

// MergeResult is the outcome of a merge.
type MergeResult struct {
	Outcome    MergeOutcome `json:"outcome"`
	Commit     string       `json:"commit,omitempty"`
	Conflicted []string     `json:"conflicted,omitempty"`
}

// Adapter is the Git capability contract. path is always the repository
// working directory; network operations take the resolved credential
// (nil means anonymous).
type Adapter interface {
	Clone(ctx context.Context, url, path string, opts CloneOptions, cred *vault.Credential) (*CommitInfo, error)
	Init(ctx context.Context, path string, bare bool) error
	IsRepository(ctx context.Context, path string) bool

	Status(ctx context.Context, path string) (*StatusInfo, error)
	Add(ctx context.Context, path string, patterns []string) error
	Reset(ctx context.Context, path string, patterns []string) error
	Commit(ctx context.Context, path string, opts CommitOptions) (*CommitInfo, error)

	Fetch(ctx context.Context, path, remote string, cred *vault.Credential) error
	Push(ctx context.Context, path string, opts PushOptions, cred *vault.Credential) error
	Pull(ctx context.Context, path string, opts PullOptions, cred *vault.Credential) error

	ListBranches(ctx context.Context, path string, includeRemote bool) ([]BranchInfo, error)
	CreateBranch(ctx context.Context, path, name string, checkout bool) error
	DeleteBranch(ctx context.Context, path, name string, force bool) error
	Checkout(ctx context.Context, path string, opts CheckoutOptions) error
	CurrentBranch(ctx context.Context, path string) (string, error)

	Merge(ctx context.Context, path string, opts MergeOptions) (*MergeResult, error)
	Rebase(ctx context.Context, path string, opts RebaseOptions) error
	CherryPick(ctx context.Context, path, commit string) error
	Revert(ctx context.Context, path, commit string) error

	Log(ctx context.Context, path string, opts LogOptions) ([]CommitInfo, error)
	Show(ctx context.Context, path, revision string) (*CommitInfo, error)
	Diff(ctx context.Context, path string, opts DiffOptions) (*DiffInfo, error)
	Blame(ctx context.Context, path string, opts BlameOptions) ([]BlameLine, error)
	HeadCommit(ctx context.Context, path string) (*CommitInfo, error)

	Stash(ctx context.Context, path string, opts StashOptions) (string, error)
	ListStash(ctx context.Context, path string) ([]StashEntry, error)

	ListTags(ctx context.Context, path string) ([]TagInfo, error)
	CreateTag(ctx context.Context, path string, opts TagOptions) error
	DeleteTag(ctx context.Context, path, name string) error

	ListRemotes(ctx context.Context, path string) ([]RemoteInfo, error)
	AddRemote(ctx context.Context, path, name, url string) error
	RemoveRemote(ctx context.Context, path, name string) error

	Clean(ctx context.Context, path string, force, directories bool) error

	LfsInit(ctx context.Context, path string) error
	LfsTrack(ctx context.Context, path string, opts LfsOptions) error
	LfsUntrack(ctx context.Context, path string, patterns []string) error
	LfsStatus(ctx context.Context, path string) ([]LfsFileInfo, error)
	LfsPull(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error
	LfsPush(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error
	LfsFetch(ctx context.Context, path string, opts LfsOptions, cred *vault.Credential) error

	SparseCheckout(ctx context.Context, path string, opts SparseCheckoutOptions) error

	SubmoduleAdd(ctx context.Context, path, url, subPath string) error
	SubmoduleUpdate(ctx context.Context, path string, init, recursive bool) error
	SubmoduleDeinit(ctx context.Context, path, subPath string, force bool) error
	SubmoduleList(ctx context.Context, path string) ([]SubmoduleInfo, error)
}
