package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/gitops"
)

func (s *Server) refTools() []registeredTool {
	return []registeredTool{
		{
			def: mcp.NewTool("git_list_branches",
				mcp.WithDescription("List branches."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithBoolean("include_remote", mcp.Description("Include remote-tracking branches")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.ListBranches(ctx, id, req.GetBool("include_remote", false))
			},
		},
		{
			def: mcp.NewTool("git_create_branch",
				mcp.WithDescription("Create a branch."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("Branch name")),
				mcp.WithBoolean("checkout", mcp.Description("Check the new branch out")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				name, err := req.RequireString("name")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.CreateBranch(ctx, id, name, req.GetBool("checkout", false))
			},
		},
		{
			def: mcp.NewTool("git_delete_branch",
				mcp.WithDescription("Delete a local branch."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("Branch name")),
				mcp.WithBoolean("force", mcp.Description("Delete even if unmerged")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				name, err := req.RequireString("name")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.DeleteBranch(ctx, id, name, req.GetBool("force", false))
			},
		},
		{
			def: mcp.NewTool("git_stash",
				mcp.WithDescription("Save, apply, pop, or drop a stash entry."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("action", mcp.Required(), mcp.Description("save, pop, apply, or drop")),
				mcp.WithString("message", mcp.Description("Stash message (save only)")),
				mcp.WithBoolean("include_untracked", mcp.Description("Include untracked files (save only)")),
				mcp.WithNumber("index", mcp.Description("Stash index for pop/apply/drop")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				action, err := req.RequireString("action")
				if err != nil {
					return nil, err
				}
				opts := gitops.StashOptions{
					Message:          req.GetString("message", ""),
					IncludeUntracked: req.GetBool("include_untracked", false),
					Index:            req.GetInt("index", 0),
				}
				switch action {
				case "save":
					opts.Save = true
				case "pop":
					opts.Pop = true
				case "apply":
					opts.Apply = true
				case "drop":
					opts.Drop = true
				default:
					return nil, giterr.Validation(giterr.CodeMissingRequiredParam,
						fmt.Sprintf("Unknown stash action %q", action)).
						WithSuggestion("Use save, pop, apply, or drop")
				}
				out, err := s.svc.Stash(ctx, id, opts)
				if err != nil {
					return nil, err
				}
				return map[string]any{"output": out}, nil
			},
		},
		{
			def: mcp.NewTool("git_list_stash",
				mcp.WithDescription("List stash entries, newest first."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.ListStash(ctx, id)
			},
		},
		{
			def: mcp.NewTool("git_list_tags",
				mcp.WithDescription("List tags with the commits they point at."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.ListTags(ctx, id)
			},
		},
		{
			def: mcp.NewTool("git_create_tag",
				mcp.WithDescription("Create a lightweight or annotated tag at HEAD."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("Tag name")),
				mcp.WithString("message", mcp.Description("Annotation message; omit for a lightweight tag")),
				mcp.WithBoolean("force", mcp.Description("Replace an existing tag")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				name, err := req.RequireString("name")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.CreateTag(ctx, id, gitops.TagOptions{
					Name:    name,
					Message: req.GetString("message", ""),
					Force:   req.GetBool("force", false),
				})
			},
		},
		{
			def: mcp.NewTool("git_delete_tag",
				mcp.WithDescription("Delete a tag."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("Tag name")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				name, err := req.RequireString("name")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.DeleteTag(ctx, id, name)
			},
		},
		{
			def: mcp.NewTool("git_list_remotes",
				mcp.WithDescription("List configured remotes."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				return s.svc.ListRemotes(ctx, id)
			},
		},
		{
			def: mcp.NewTool("git_add_remote",
				mcp.WithDescription("Register a remote."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("Remote name")),
				mcp.WithString("url", mcp.Required(), mcp.Description("Remote URL")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				name, err := req.RequireString("name")
				if err != nil {
					return nil, err
				}
				url, err := req.RequireString("url")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.AddRemote(ctx, id, name, url)
			},
		},
		{
			def: mcp.NewTool("git_remove_remote",
				mcp.WithDescription("Delete a remote and its tracking refs."),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("Remote name")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				id, err := workspaceID(req)
				if err != nil {
					return nil, err
				}
				name, err := req.RequireString("name")
				if err != nil {
					return nil, err
				}
				return nil, s.svc.RemoveRemote(ctx, id, name)
			},
		},
	}
}
