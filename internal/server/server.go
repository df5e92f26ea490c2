// Package server wires all MCP components and creates the server
// instance.
//
// This is the composition root: it loads configuration, creates the API
// client, and injects the shared dependencies into every tool, prompt,
// and resource. No business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/nocoforge/nocobase-mcp/internal/config"
	"github.com/nocoforge/nocobase-mcp/internal/logger"
	"github.com/nocoforge/nocobase-mcp/internal/nbclient"
	"github.com/nocoforge/nocobase-mcp/internal/prompts"
	"github.com/nocoforge/nocobase-mcp/internal/resources"
	"github.com/nocoforge/nocobase-mcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all tools, prompts, and resources
// registered. This is the single place where dependencies are resolved.
func New() (*server.MCPServer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New("nocobase-mcp")
	client := nbclient.New(nbclient.Options{
		BaseURL:  cfg.BaseURL,
		Account:  cfg.Account,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	}, log)

	deps := tools.Deps{
		Client:      client,
		Log:         log,
		DatabaseURL: cfg.DatabaseURL,
	}

	s := server.NewMCPServer(
		"nocobase-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, deps)

	// --- Prompts ---

	buildPrompt := prompts.NewBuildSystemPrompt()
	s.AddPrompt(buildPrompt.Definition(), buildPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Resources ---

	res := resources.NewHandler()
	s.AddResource(res.InterfacesResource(), res.HandleInterfaces)
	s.AddResource(res.WorkflowNodesResource(), res.HandleWorkflowNodes)

	log.Info().Str("base_url", cfg.BaseURL).Msg("server configured")
	return s, nil
}

func registerTools(s *server.MCPServer, deps tools.Deps) {
	// --- Collections & schema ---

	executeSQL := tools.NewExecuteSQLTool(deps)
	s.AddTool(executeSQL.Definition(), executeSQL.Handle)

	registerCollection := tools.NewRegisterCollectionTool(deps)
	s.AddTool(registerCollection.Definition(), registerCollection.Handle)

	syncFields := tools.NewSyncFieldsTool(deps)
	s.AddTool(syncFields.Definition(), syncFields.Handle)

	setupCollection := tools.NewSetupCollectionTool(deps)
	s.AddTool(setupCollection.Definition(), setupCollection.Handle)

	listCollections := tools.NewListCollectionsTool(deps)
	s.AddTool(listCollections.Definition(), listCollections.Handle)

	// --- Fields ---

	upgradeField := tools.NewUpgradeFieldTool(deps)
	s.AddTool(upgradeField.Definition(), upgradeField.Handle)

	listFields := tools.NewListFieldsTool(deps)
	s.AddTool(listFields.Definition(), listFields.Handle)

	createRelation := tools.NewCreateRelationTool(deps)
	s.AddTool(createRelation.Definition(), createRelation.Handle)

	// --- Navigation ---

	createGroup := tools.NewCreateGroupTool(deps)
	s.AddTool(createGroup.Definition(), createGroup.Handle)

	createPage := tools.NewCreatePageTool(deps)
	s.AddTool(createPage.Definition(), createPage.Handle)

	createMenu := tools.NewCreateMenuTool(deps)
	s.AddTool(createMenu.Definition(), createMenu.Handle)

	listRoutes := tools.NewListRoutesTool(deps)
	s.AddTool(listRoutes.Definition(), listRoutes.Handle)

	deleteRoute := tools.NewDeleteRouteTool(deps)
	s.AddTool(deleteRoute.Definition(), deleteRoute.Handle)

	// --- Page building ---

	pageLayout := tools.NewPageLayoutTool(deps)
	s.AddTool(pageLayout.Definition(), pageLayout.Handle)

	tableBlock := tools.NewTableBlockTool(deps)
	s.AddTool(tableBlock.Definition(), tableBlock.Handle)

	addNewForm := tools.NewAddNewFormTool(deps)
	s.AddTool(addNewForm.Definition(), addNewForm.Handle)

	editAction := tools.NewEditActionTool(deps)
	s.AddTool(editAction.Definition(), editAction.Handle)

	detailPopup := tools.NewDetailPopupTool(deps)
	s.AddTool(detailPopup.Definition(), detailPopup.Handle)

	filterForm := tools.NewFilterFormTool(deps)
	s.AddTool(filterForm.Definition(), filterForm.Handle)

	kpiBlock := tools.NewKPIBlockTool(deps)
	s.AddTool(kpiBlock.Definition(), kpiBlock.Handle)

	jsBlock := tools.NewJSBlockTool(deps)
	s.AddTool(jsBlock.Definition(), jsBlock.Handle)

	jsColumn := tools.NewJSColumnTool(deps)
	s.AddTool(jsColumn.Definition(), jsColumn.Handle)

	setLayout := tools.NewSetLayoutTool(deps)
	s.AddTool(setLayout.Definition(), setLayout.Handle)

	cleanTab := tools.NewCleanTabTool(deps)
	s.AddTool(cleanTab.Definition(), cleanTab.Handle)

	outline := tools.NewOutlineTool(deps)
	s.AddTool(outline.Definition(), outline.Handle)

	eventFlow := tools.NewEventFlowTool(deps)
	s.AddTool(eventFlow.Definition(), eventFlow.Handle)

	// --- Page maintenance ---

	showPage := tools.NewShowPageTool(deps)
	s.AddTool(showPage.Definition(), showPage.Handle)

	locateNode := tools.NewLocateNodeTool(deps)
	s.AddTool(locateNode.Definition(), locateNode.Handle)

	patchField := tools.NewPatchFieldTool(deps)
	s.AddTool(patchField.Definition(), patchField.Handle)

	patchColumn := tools.NewPatchColumnTool(deps)
	s.AddTool(patchColumn.Definition(), patchColumn.Handle)

	addField := tools.NewAddFieldTool(deps)
	s.AddTool(addField.Definition(), addField.Handle)

	removeField := tools.NewRemoveFieldTool(deps)
	s.AddTool(removeField.Definition(), removeField.Handle)

	addColumn := tools.NewAddColumnTool(deps)
	s.AddTool(addColumn.Definition(), addColumn.Handle)

	removeColumn := tools.NewRemoveColumnTool(deps)
	s.AddTool(removeColumn.Definition(), removeColumn.Handle)

	listPages := tools.NewListPagesTool(deps)
	s.AddTool(listPages.Definition(), listPages.Handle)

	// --- Workflows ---

	createWorkflow := tools.NewCreateWorkflowTool(deps)
	s.AddTool(createWorkflow.Definition(), createWorkflow.Handle)

	addNode := tools.NewAddNodeTool(deps)
	s.AddTool(addNode.Definition(), addNode.Handle)

	enableWorkflow := tools.NewEnableWorkflowTool(deps)
	s.AddTool(enableWorkflow.Definition(), enableWorkflow.Handle)

	listWorkflows := tools.NewListWorkflowsTool(deps)
	s.AddTool(listWorkflows.Definition(), listWorkflows.Handle)

	getWorkflow := tools.NewGetWorkflowTool(deps)
	s.AddTool(getWorkflow.Definition(), getWorkflow.Handle)

	deleteWorkflow := tools.NewDeleteWorkflowTool(deps)
	s.AddTool(deleteWorkflow.Definition(), deleteWorkflow.Handle)

	deleteWorkflows := tools.NewDeleteWorkflowsByPrefixTool(deps)
	s.AddTool(deleteWorkflows.Definition(), deleteWorkflows.Handle)

	// --- AI employees ---

	createAIEmployee := tools.NewCreateAIEmployeeTool(deps)
	s.AddTool(createAIEmployee.Definition(), createAIEmployee.Handle)

	listAIEmployees := tools.NewListAIEmployeesTool(deps)
	s.AddTool(listAIEmployees.Definition(), listAIEmployees.Handle)

	getAIEmployee := tools.NewGetAIEmployeeTool(deps)
	s.AddTool(getAIEmployee.Definition(), getAIEmployee.Handle)

	updateAIEmployee := tools.NewUpdateAIEmployeeTool(deps)
	s.AddTool(updateAIEmployee.Definition(), updateAIEmployee.Handle)

	deleteAIEmployee := tools.NewDeleteAIEmployeeTool(deps)
	s.AddTool(deleteAIEmployee.Definition(), deleteAIEmployee.Handle)

	aiShortcut := tools.NewAIShortcutTool(deps)
	s.AddTool(aiShortcut.Definition(), aiShortcut.Handle)

	aiButton := tools.NewAIButtonTool(deps)
	s.AddTool(aiButton.Definition(), aiButton.Handle)
}

// serverInstructions tells the AI host how to drive the tools together.
func serverInstructions() string {
	return `You are connected to a NocoBase instance through this MCP server.
NocoBase is a no-code platform: data lives in collections (DB tables),
the UI is a tree of FlowModels built by these tools, and automation runs
as workflows.

## BUILD ORDER

Always work schema-first:
1. Tables: nb_execute_sql for DDL (audit columns are added automatically
   to new tables — never include createdAt/updatedAt/createdById/updatedById).
2. Metadata: nb_setup_collection per table (register + sync + interface
   upgrades + relations in one call). For fine-grained control use
   nb_register_collection, nb_sync_fields, nb_upgrade_field,
   nb_create_relation individually.
3. Navigation: nb_create_menu (or nb_create_group + nb_create_page).
4. Pages: nb_page_layout first, then blocks (nb_table_block,
   nb_filter_form, nb_kpi_block, nb_js_block), then ALWAYS nb_set_layout
   last — filter forms only connect to their tables when the layout is set.
5. Forms and popups: nb_addnew_form on the table's addnew_uid,
   nb_edit_action on actions_column_uid, nb_detail_popup on
   click_field_uid.
6. Workflows: nb_create_workflow + nb_add_node, then nb_enable_workflow.

## KEY RULES

- UIDs returned by one tool are the inputs of the next. Keep track of
  table_uid, addnew_uid, actions_column_uid, click_field_uid, grid_uid.
- Upgrade field interfaces BEFORE building pages: table columns and form
  fields pick their widgets from the field interface at build time.
- Page edits after the fact go through the maintenance tools:
  nb_show_page to see the tree, nb_locate_node to find a UID,
  nb_patch_field / nb_patch_column / nb_add_field / nb_add_column to
  change it. Prefer patching over rebuilding a page.
- nb_clean_tab and nb_page_layout erase existing page content. Confirm
  with the user before running them on a page you did not just create.
- Workflow deletion by prefix is bulk and permanent — list first.

## REFERENCE

- nocobase://interfaces — field interface catalogue with uiSchema templates
- nocobase://workflow-nodes — workflow node types with config schemas

Read these before choosing interfaces or building workflow nodes rather
than guessing at schemas.`
}
