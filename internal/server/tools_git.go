package server

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gitmcp/gitmcp/internal/gitops"
)

// stringItems is the JSON schema for string-array tool arguments.
var stringItems = map[string]any{"type": "string"}

// timeArg parses an optional RFC 3339 argument into a *time.Time.
func timeArg(req mcp.CallToolRequest, key string) *time.Time {
	v := req.GetString(key, "")
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

func (s *Server) gitTools() []registeredTool {
	return []registeredTool{
		{
			def: mcp.NewTool("git_clone",
				mcp.WithDescription("Clone a repository into a workspace."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("url", mcp.Required(), mcp.Description("Repository URL")),
				mcp.WithNumber("depth", mcp.Description("Shallow clone depth")),
				mcp.WithString("branch", mcp.Description("Branch to check out")),
				mcp.WithBoolean("single_branch", mcp.Description("Fetch only one branch")),
				mcp.WithString("filter", mcp.Description("Partial clone filter, e.g. blob:none")),
				mcp.WithBoolean("bare", mcp.Description("Create a bare repository")),
				mcp.WithArray("sparse_paths", mcp.Description("Sparse checkout paths"), mcp.Items(stringItems)),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				url, err := req.RequireString("url")
				if err != nil {
					return nil, err
				}
				return s.svc.Clone(ctx, id, url, gitops.CloneOptions{
					Depth:        req.GetInt("depth", 0),
					Branch:       req.GetString("branch", ""),
					SingleBranch: req.GetBool("single_branch", false),
					Filter:       req.GetString("filter", ""),
					Bare:         req.GetBool("bare", false),
					SparsePaths:  req.GetStringSlice("sparse_paths", nil),
				})
			},
		},
		{
			def: mcp.NewTool("git_init",
				mcp.WithDescription("Initialize an empty repository in a workspace."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithBoolean("bare", mcp.Description("Create a bare repository")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Init(ctx, id, req.GetBool("bare", false))
			},
		},
		{
			def: mcp.NewTool("git_status",
				mcp.WithDescription("Report working tree status."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.Status(ctx, id)
			},
		},
		{
			def: mcp.NewTool("git_stage",
				mcp.WithDescription("Stage files for commit."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithArray("files", mcp.Required(), mcp.Description("Pathspecs to stage"), mcp.Items(stringItems)),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Stage(ctx, id, req.GetStringSlice("files", nil))
			},
		},
		{
			def: mcp.NewTool("git_unstage",
				mcp.WithDescription("Remove files from the index."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithArray("files", mcp.Description("Pathspecs to unstage; empty resets everything"), mcp.Items(stringItems)),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Unstage(ctx, id, req.GetStringSlice("files", nil))
			},
		},
		{
			def: mcp.NewTool("git_commit",
				mcp.WithDescription("Record staged changes as a commit."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("message", mcp.Required(), mcp.Description("Commit message")),
				mcp.WithString("author_name", mcp.Description("Author name override")),
				mcp.WithString("author_email", mcp.Description("Author email override")),
				mcp.WithBoolean("amend", mcp.Description("Amend the previous commit")),
				mcp.WithBoolean("allow_empty", mcp.Description("Permit a commit with no changes")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				message, err := req.RequireString("message")
				if err != nil {
					return nil, err
				}
				return s.svc.Commit(ctx, id, gitops.CommitOptions{
					Message:     message,
					AuthorName:  req.GetString("author_name", ""),
					AuthorEmail: req.GetString("author_email", ""),
					Amend:       req.GetBool("amend", false),
					AllowEmpty:  req.GetBool("allow_empty", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_push",
				mcp.WithDescription("Push commits to a remote."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("remote", mcp.Description("Remote name (default origin)")),
				mcp.WithString("branch", mcp.Description("Branch to push")),
				mcp.WithBoolean("force", mcp.Description("Force push")),
				mcp.WithBoolean("force_with_lease", mcp.Description("Force push only if the remote ref is unchanged")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Push(ctx, id, gitops.PushOptions{
					Remote:         req.GetString("remote", "origin"),
					Branch:         req.GetString("branch", ""),
					Force:          req.GetBool("force", false),
					ForceWithLease: req.GetBool("force_with_lease", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_pull",
				mcp.WithDescription("Pull changes from a remote."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("remote", mcp.Description("Remote name (default origin)")),
				mcp.WithString("branch", mcp.Description("Branch to pull")),
				mcp.WithBoolean("rebase", mcp.Description("Rebase instead of merge")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Pull(ctx, id, gitops.PullOptions{
					Remote: req.GetString("remote", "origin"),
					Branch: req.GetString("branch", ""),
					Rebase: req.GetBool("rebase", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_fetch",
				mcp.WithDescription("Fetch objects and refs from a remote."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("remote", mcp.Description("Remote name (default origin)")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Fetch(ctx, id, req.GetString("remote", "origin"))
			},
		},
		{
			def: mcp.NewTool("git_checkout",
				mcp.WithDescription("Switch the working tree to a branch or revision."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("branch", mcp.Required(), mcp.Description("Branch or revision")),
				mcp.WithBoolean("create", mcp.Description("Create the branch first")),
				mcp.WithBoolean("force", mcp.Description("Discard local changes")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				branch, err := req.RequireString("branch")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Checkout(ctx, id, gitops.CheckoutOptions{
					Branch:    branch,
					CreateNew: req.GetBool("create", false),
					Force:     req.GetBool("force", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_merge",
				mcp.WithDescription("Merge a branch into the current one."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("source_branch", mcp.Required(), mcp.Description("Branch to merge")),
				mcp.WithBoolean("fast_forward", mcp.Description("Allow fast-forward (default true)")),
				mcp.WithBoolean("commit", mcp.Description("Create the merge commit (default true)")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				source, err := req.RequireString("source_branch")
				if err != nil {
					return nil, err
				}
				return s.svc.Merge(ctx, id, gitops.MergeOptions{
					SourceBranch: source,
					FastForward:  req.GetBool("fast_forward", true),
					Commit:       req.GetBool("commit", true),
				})
			},
		},
		{
			def: mcp.NewTool("git_rebase",
				mcp.WithDescription("Rebase the current branch, or abort/continue an in-flight rebase."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("branch", mcp.Description("Branch to rebase onto")),
				mcp.WithBoolean("abort", mcp.Description("Abort the in-flight rebase")),
				mcp.WithBoolean("continue", mcp.Description("Continue the in-flight rebase")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Rebase(ctx, id, gitops.RebaseOptions{
					Branch:   req.GetString("branch", ""),
					Abort:    req.GetBool("abort", false),
					Continue: req.GetBool("continue", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_cherry_pick",
				mcp.WithDescription("Apply one commit onto the current branch."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("commit", mcp.Required(), mcp.Description("Commit to apply")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				commit, err := req.RequireString("commit")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.CherryPick(ctx, id, commit)
			},
		},
		{
			def: mcp.NewTool("git_revert",
				mcp.WithDescription("Create a commit undoing the given one."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("commit", mcp.Required(), mcp.Description("Commit to revert")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				commit, err := req.RequireString("commit")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Revert(ctx, id, commit)
			},
		},
		{
			def: mcp.NewTool("git_log",
				mcp.WithDescription("List commit history."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithNumber("max_count", mcp.Description("Maximum commits")),
				mcp.WithNumber("skip", mcp.Description("Commits to skip")),
				mcp.WithString("author", mcp.Description("Filter by author substring")),
				mcp.WithString("since", mcp.Description("Only commits after this RFC 3339 time")),
				mcp.WithString("until", mcp.Description("Only commits before this RFC 3339 time")),
				mcp.WithString("path", mcp.Description("Only commits touching this path")),
				mcp.WithBoolean("all", mcp.Description("Include all branches")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.Log(ctx, id, gitops.LogOptions{
					MaxCount: req.GetInt("max_count", 0),
					Skip:     req.GetInt("skip", 0),
					Author:   req.GetString("author", ""),
					Since:    timeArg(req, "since"),
					Until:    timeArg(req, "until"),
					Path:     req.GetString("path", ""),
					All:      req.GetBool("all", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_show",
				mcp.WithDescription("Show one commit by revision."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("revision", mcp.Required(), mcp.Description("Revision, e.g. HEAD~2 or an OID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				revision, err := req.RequireString("revision")
				if err != nil {
					return nil, err
				}
				return s.svc.Show(ctx, id, revision)
			},
		},
		{
			def: mcp.NewTool("git_diff",
				mcp.WithDescription("Produce a unified diff of the working tree, index, or a commit."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithBoolean("cached", mcp.Description("Diff the index against HEAD")),
				mcp.WithString("commit", mcp.Description("Diff this commit against its parent")),
				mcp.WithString("path", mcp.Description("Restrict to one path")),
				mcp.WithNumber("unified", mcp.Description("Context lines")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.Diff(ctx, id, gitops.DiffOptions{
					Cached:    req.GetBool("cached", false),
					CommitOID: req.GetString("commit", ""),
					Path:      req.GetString("path", ""),
					Unified:   req.GetInt("unified", 0),
				})
			},
		},
		{
			def: mcp.NewTool("git_blame",
				mcp.WithDescription("Attribute file lines to commits."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("path", mcp.Required(), mcp.Description("File to blame")),
				mcp.WithNumber("start_line", mcp.Description("First line (1-based)")),
				mcp.WithNumber("end_line", mcp.Description("Last line (inclusive)")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				path, err := req.RequireString("path")
				if err != nil {
					return nil, err
				}
				return s.svc.Blame(ctx, id, gitops.BlameOptions{
					Path:      path,
					StartLine: req.GetInt("start_line", 0),
					EndLine:   req.GetInt("end_line", 0),
				})
			},
		},
		{
			def: mcp.NewTool("git_clean",
				mcp.WithDescription("Remove untracked files from the working tree."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithBoolean("force", mcp.Description("Actually delete; dry run otherwise")),
				mcp.WithBoolean("directories", mcp.Description("Also remove untracked directories")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.Clean(ctx, id, req.GetBool("force", false), req.GetBool("directories", false))
			},
		},
	}
}
