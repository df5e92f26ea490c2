// Package prompts implements the MCP prompts guiding a full system
// build and a status check.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// BuildSystemPrompt walks the host through building a complete NocoBase
// application from a description.
type BuildSystemPrompt struct{}

func NewBuildSystemPrompt() *BuildSystemPrompt { return &BuildSystemPrompt{} }

func (p *BuildSystemPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("nb-build-system",
		mcp.WithPromptDescription(
			"Build a complete NocoBase application — schema, pages, "+
				"workflows — from a short description.",
		),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("What the system should manage, e.g. \"project management with tasks and time tracking\"."),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("prefix",
			mcp.ArgumentDescription("Table name prefix, e.g. \"nb_pm_\". Defaults to \"nb_app_\"."),
		),
	)
}

func (p *BuildSystemPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	description := req.Params.Arguments["description"]
	prefix := req.Params.Arguments["prefix"]
	if prefix == "" {
		prefix = "nb_app_"
	}

	text := fmt.Sprintf(`Build a NocoBase application for: %s

Use the table prefix %q for every collection. Work in this order:

1. SCHEMA
   - Design the collections and relations first; show me the plan before creating anything.
   - Create tables with nb_execute_sql (audit columns are added automatically).
   - Register each with nb_setup_collection: pass fields_json for interface
     upgrades (select with enum options, number with precision, datetime...)
     and relations_json for the relations. Check the result of each call.
   - Verify with nb_list_collections and nb_list_fields.

2. NAVIGATION
   - Create the sidebar with nb_create_menu: one group, one page per main collection,
     plus a Dashboard page first.

3. PAGES (for each page: nb_page_layout, then blocks, then nb_set_layout)
   - Dashboard: nb_kpi_block cards in one row, then tables or nb_js_block charts below.
   - List pages: nb_filter_form wired to an nb_table_block (pass target_uid),
     nb_addnew_form on the table's addnew_uid, nb_edit_action on its actions
     column, and nb_detail_popup on the click_field_uid with a details tab and
     one sub-table tab per child collection.
   - Always finish a page with nb_set_layout; filters only connect then.

4. WORKFLOWS
   - Automate what the description implies (status changes, notifications,
     computed fields) with nb_create_workflow + nb_add_node; read
     nocobase://workflow-nodes for node configs. Enable each workflow only
     after its nodes are in place.

5. REVIEW
   - Show me nb_list_pages and nb_list_workflows output as a final summary.

Consult the nocobase://interfaces resource before choosing field interfaces.
Ask me about anything ambiguous in the domain before creating schema.`, description, prefix)

	return &mcp.GetPromptResult{
		Description: "NocoBase application build plan",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(text)},
		},
	}, nil
}
