package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
)

// CreateGroupTool creates a sidebar menu group.
type CreateGroupTool struct{ deps Deps }

func NewCreateGroupTool(deps Deps) *CreateGroupTool { return &CreateGroupTool{deps: deps} }

func (t *CreateGroupTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_create_group",
		mcp.WithDescription("Create a sidebar menu group. Pages created under it share the group heading."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Group title shown in the sidebar."),
		),
		mcp.WithNumber("parent_id",
			mcp.Description("Parent group route ID for nesting. Omit for top level."),
		),
		mcp.WithString("icon",
			mcp.Description("Ant Design icon name, e.g. \"appstoreoutlined\"."),
		),
	)
}

func (t *CreateGroupTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	b := t.deps.newBuilder()
	id, err := b.Group(ctx, title, req.GetInt("parent_id", 0), req.GetString("icon", "appstoreoutlined"))
	if err != nil {
		return apiErrorResult("create group", err), nil
	}
	return jsonResult(map[string]any{"id": id, "title": title})
}

// CreatePageTool creates a flowPage route.
type CreatePageTool struct{ deps Deps }

func NewCreatePageTool(deps Deps) *CreatePageTool { return &CreatePageTool{deps: deps} }

func (t *CreatePageTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_create_page",
		mcp.WithDescription(
			"Create a page under a menu group. Returns the tab UID(s) that "+
				"page tools (nb_page_layout, nb_table_block...) build content on.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Page title."),
		),
		mcp.WithNumber("parent_id",
			mcp.Required(),
			mcp.Description("Route ID of the parent group."),
		),
		mcp.WithString("icon",
			mcp.Description("Ant Design icon name."),
		),
		mcp.WithString("tabs_json",
			mcp.Description(`Optional JSON array of tab titles for a multi-tab page: ["Overview","Details"].`),
		),
	)
}

func (t *CreatePageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	parentID := req.GetInt("parent_id", 0)
	if title == "" || parentID == 0 {
		return mcp.NewToolResultError("'title' and 'parent_id' are required"), nil
	}
	var tabs []string
	if raw := req.GetString("tabs_json", ""); raw != "" {
		if msg := decodeJSONArg("tabs_json", raw, &tabs); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	b := t.deps.newBuilder()
	rt, err := b.Page(ctx, title, parentID, req.GetString("icon", "appstoreoutlined"), tabs)
	if err != nil {
		return apiErrorResult("create page", err), nil
	}
	out := map[string]any{"id": rt.ID, "title": title, "page_uid": rt.PageUID}
	if len(rt.TabUIDs) > 0 {
		out["tab_uids"] = rt.TabUIDs
	} else {
		out["tab_uid"] = rt.TabUID
	}
	return jsonResult(out)
}

// CreateMenuTool creates a group plus its pages in one call.
type CreateMenuTool struct{ deps Deps }

func NewCreateMenuTool(deps Deps) *CreateMenuTool { return &CreateMenuTool{deps: deps} }

func (t *CreateMenuTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_create_menu",
		mcp.WithDescription(
			"Create a menu group with several pages at once. Returns each "+
				"page's tab UID for content building.",
		),
		mcp.WithString("group_title",
			mcp.Required(),
			mcp.Description("Menu group title."),
		),
		mcp.WithString("pages_json",
			mcp.Required(),
			mcp.Description(`JSON array of pages: [{"title":"Projects","icon":"projectoutlined"},{"title":"Tasks"}].`),
		),
		mcp.WithNumber("parent_id",
			mcp.Description("Parent route ID for nesting. Omit for top level."),
		),
		mcp.WithString("group_icon",
			mcp.Description("Icon for the group itself."),
		),
	)
}

func (t *CreateMenuTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupTitle := req.GetString("group_title", "")
	rawPages := req.GetString("pages_json", "")
	if groupTitle == "" || rawPages == "" {
		return mcp.NewToolResultError("'group_title' and 'pages_json' are required"), nil
	}
	var pages []builder.MenuPage
	if msg := decodeJSONArg("pages_json", rawPages, &pages); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if len(pages) == 0 {
		return mcp.NewToolResultError("'pages_json' must contain at least one page"), nil
	}

	b := t.deps.newBuilder()
	tabs, err := b.Menu(ctx, groupTitle, req.GetInt("parent_id", 0), pages, req.GetString("group_icon", "appstoreoutlined"))
	if err != nil {
		return apiErrorResult("create menu", err), nil
	}
	return jsonResult(map[string]any{"group": groupTitle, "tab_uids": tabs})
}

// ListRoutesTool shows the sidebar route tree.
type ListRoutesTool struct{ deps Deps }

func NewListRoutesTool(deps Deps) *ListRoutesTool { return &ListRoutesTool{deps: deps} }

func (t *ListRoutesTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_list_routes",
		mcp.WithDescription("List the sidebar route tree: groups, pages, and tabs with their IDs and schema UIDs."),
	)
}

func (t *ListRoutesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	routes, err := t.deps.Client.ListRoutes(ctx)
	if err != nil {
		return apiErrorResult("list routes", err), nil
	}
	if len(routes) == 0 {
		return mcp.NewToolResultText("No routes defined"), nil
	}
	return mcp.NewToolResultText(builder.FormatRouteTree(routes)), nil
}

// DeleteRouteTool removes a route.
type DeleteRouteTool struct{ deps Deps }

func NewDeleteRouteTool(deps Deps) *DeleteRouteTool { return &DeleteRouteTool{deps: deps} }

func (t *DeleteRouteTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_delete_route",
		mcp.WithDescription("Delete a route (page or group) by ID. Child routes of a group are removed with it."),
		mcp.WithNumber("route_id",
			mcp.Required(),
			mcp.Description("Route ID from nb_list_routes."),
		),
	)
}

func (t *DeleteRouteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetInt("route_id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'route_id' is required"), nil
	}
	if err := t.deps.Client.DestroyRoute(ctx, id); err != nil {
		return apiErrorResult("delete route", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted route %d", id)), nil
}
