package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gitmcp/gitmcp/internal/gitops"
)

func (s *Server) extraTools() []registeredTool {
	return []registeredTool{
		{
			def: mcp.NewTool("git_lfs_init",
				mcp.WithDescription("Install Git LFS hooks in the repository."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.LfsInit(ctx, id)
			},
		},
		{
			def: mcp.NewTool("git_lfs_track",
				mcp.WithDescription("Track file patterns with Git LFS."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithArray("patterns", mcp.Required(), mcp.Description("Glob patterns to track"), mcp.Items(stringItems)),
				mcp.WithBoolean("lockable", mcp.Description("Mark the patterns lockable")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.LfsTrack(ctx, id, gitops.LfsOptions{
					Patterns: req.GetStringSlice("patterns", nil),
					Lockable: req.GetBool("lockable", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_lfs_untrack",
				mcp.WithDescription("Stop tracking file patterns with Git LFS."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithArray("patterns", mcp.Required(), mcp.Description("Glob patterns to untrack"), mcp.Items(stringItems)),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.LfsUntrack(ctx, id, req.GetStringSlice("patterns", nil))
			},
		},
		{
			def: mcp.NewTool("git_lfs_status",
				mcp.WithDescription("List LFS-tracked files."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.LfsStatus(ctx, id)
			},
		},
		{
			def: mcp.NewTool("git_lfs_pull",
				mcp.WithDescription("Download LFS objects for the current checkout."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("remote", mcp.Description("Remote name (default origin)")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.LfsPull(ctx, id, gitops.LfsOptions{Remote: req.GetString("remote", "")})
			},
		},
		{
			def: mcp.NewTool("git_lfs_push",
				mcp.WithDescription("Upload LFS objects to a remote."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("remote", mcp.Description("Remote name (default origin)")),
				mcp.WithBoolean("all", mcp.Description("Push all objects, not just referenced ones")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.LfsPush(ctx, id, gitops.LfsOptions{
					Remote: req.GetString("remote", "origin"),
					All:    req.GetBool("all", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_lfs_fetch",
				mcp.WithDescription("Download LFS objects without touching the working tree."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("remote", mcp.Description("Remote name (default origin)")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.LfsFetch(ctx, id, gitops.LfsOptions{Remote: req.GetString("remote", "")})
			},
		},
		{
			def: mcp.NewTool("git_sparse_checkout",
				mcp.WithDescription("Replace, extend, or shrink the sparse checkout path set."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithArray("paths", mcp.Required(), mcp.Description("Directory paths"), mcp.Items(stringItems)),
				mcp.WithString("mode", mcp.Description("replace (default), add, or remove")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.SparseCheckout(ctx, id, gitops.SparseCheckoutOptions{
					Paths: req.GetStringSlice("paths", nil),
					Mode:  req.GetString("mode", "replace"),
				})
			},
		},
		{
			def: mcp.NewTool("git_submodule_add",
				mcp.WithDescription("Register a submodule."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("url", mcp.Required(), mcp.Description("Submodule repository URL")),
				mcp.WithString("path", mcp.Required(), mcp.Description("Path inside the repository")),
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
				subPath, err := req.RequireString("path")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.SubmoduleAdd(ctx, id, url, subPath)
			},
		},
		{
			def: mcp.NewTool("git_submodule_update",
				mcp.WithDescription("Clone or update registered submodules."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithBoolean("init", mcp.Description("Initialize first (default true)")),
				mcp.WithBoolean("recursive", mcp.Description("Recurse into nested submodules")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return nil, s.svc.SubmoduleUpdate(ctx, id, req.GetBool("init", true), req.GetBool("recursive", false))
			},
		},
		{
			def: mcp.NewTool("git_submodule_deinit",
				mcp.WithDescription("Unregister a submodule."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("path", mcp.Required(), mcp.Description("Submodule path")),
				mcp.WithBoolean("force", mcp.Description("Discard local changes")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				subPath, err := req.RequireString("path")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.SubmoduleDeinit(ctx, id, subPath, req.GetBool("force", false))
			},
		},
		{
			def: mcp.NewTool("git_submodule_list",
				mcp.WithDescription("List registered submodules."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.SubmoduleList(ctx, id)
			},
		},
	}
}
