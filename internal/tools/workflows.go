package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CreateWorkflowTool creates a workflow in the disabled state.
type CreateWorkflowTool struct{ deps Deps }

func NewCreateWorkflowTool(deps Deps) *CreateWorkflowTool { return &CreateWorkflowTool{deps: deps} }

func (t *CreateWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_create_workflow",
		mcp.WithDescription(
			"Create a workflow, disabled until nb_enable_workflow. Trigger "+
				"types: collection (record events), schedule (cron), action "+
				"(manual). Collection config example: "+
				`{"mode":1,"collection":"nb_pm_tasks"} where mode 1=create, `+
				"2=update, 3=create or update, 4=delete.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Workflow title. Use a common prefix per project for bulk cleanup."),
		),
		mcp.WithString("trigger_type",
			mcp.Required(),
			mcp.Description("collection, schedule, or action."),
		),
		mcp.WithString("config_json",
			mcp.Description("Trigger configuration as JSON, per the trigger type's schema."),
		),
		mcp.WithBoolean("sync",
			mcp.Description("Run synchronously inside the triggering transaction. Default false."),
		),
	)
}

func (t *CreateWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	triggerType := req.GetString("trigger_type", "")
	if title == "" || triggerType == "" {
		return mcp.NewToolResultError("'title' and 'trigger_type' are required"), nil
	}
	var config map[string]any
	if raw := req.GetString("config_json", ""); raw != "" {
		if msg := decodeJSONArg("config_json", raw, &config); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	b := t.deps.newBuilder()
	wf, err := b.CreateWorkflow(ctx, title, triggerType, config, req.GetBool("sync", false))
	if err != nil {
		return apiErrorResult("create workflow", err), nil
	}
	return jsonResult(wf)
}

// AddNodeTool appends a node to a workflow.
type AddNodeTool struct{ deps Deps }

func NewAddNodeTool(deps Deps) *AddNodeTool { return &AddNodeTool{deps: deps} }

func (t *AddNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_add_node",
		mcp.WithDescription(
			"Add a node to a workflow. Node types include condition, "+
				"calculation, create, update, destroy, query, sql, request, "+
				"delay, loop. See the nocobase://workflow-nodes resource for "+
				"config schemas. Chain nodes with upstream_id; open a branch "+
				"with branch_index (1 = true branch or loop body, 0 = false).",
		),
		mcp.WithNumber("workflow_id",
			mcp.Required(),
			mcp.Description("Workflow ID from nb_create_workflow."),
		),
		mcp.WithString("node_type",
			mcp.Required(),
			mcp.Description("Node type."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Node title shown in the canvas."),
		),
		mcp.WithString("config_json",
			mcp.Description("Node configuration as JSON."),
		),
		mcp.WithNumber("upstream_id",
			mcp.Description("ID of the node this one follows. Omit for the first node."),
		),
		mcp.WithNumber("branch_index",
			mcp.Description("Branch under the upstream node. Omit for straight-line flow."),
		),
	)
}

func (t *AddNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflowID := req.GetInt("workflow_id", 0)
	nodeType := req.GetString("node_type", "")
	title := req.GetString("title", "")
	if workflowID == 0 || nodeType == "" || title == "" {
		return mcp.NewToolResultError("'workflow_id', 'node_type', and 'title' are required"), nil
	}
	var config map[string]any
	if raw := req.GetString("config_json", ""); raw != "" {
		if msg := decodeJSONArg("config_json", raw, &config); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	b := t.deps.newBuilder()
	node, err := b.AddNode(ctx, workflowID, nodeType, title, config,
		req.GetInt("upstream_id", -1), req.GetInt("branch_index", -1))
	if err != nil {
		return apiErrorResult("add node", err), nil
	}
	return jsonResult(node)
}

// EnableWorkflowTool toggles a workflow on or off.
type EnableWorkflowTool struct{ deps Deps }

func NewEnableWorkflowTool(deps Deps) *EnableWorkflowTool { return &EnableWorkflowTool{deps: deps} }

func (t *EnableWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_enable_workflow",
		mcp.WithDescription("Enable or disable a workflow. Enable only after all nodes are in place."),
		mcp.WithNumber("workflow_id",
			mcp.Required(),
			mcp.Description("Workflow ID."),
		),
		mcp.WithBoolean("enabled",
			mcp.Description("Target state. Default true."),
		),
	)
}

func (t *EnableWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflowID := req.GetInt("workflow_id", 0)
	if workflowID == 0 {
		return mcp.NewToolResultError("'workflow_id' is required"), nil
	}
	enabled := req.GetBool("enabled", true)

	b := t.deps.newBuilder()
	if err := b.EnableWorkflow(ctx, workflowID, enabled); err != nil {
		return apiErrorResult("enable workflow", err), nil
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Workflow %d %s", workflowID, state)), nil
}

// ListWorkflowsTool lists current workflow versions.
type ListWorkflowsTool struct{ deps Deps }

func NewListWorkflowsTool(deps Deps) *ListWorkflowsTool { return &ListWorkflowsTool{deps: deps} }

func (t *ListWorkflowsTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_list_workflows",
		mcp.WithDescription("List workflows (current versions only), optionally filtered by enabled state or title prefix."),
		mcp.WithBoolean("enabled",
			mcp.Description("Only workflows in this enabled state."),
		),
		mcp.WithString("prefix",
			mcp.Description("Only workflows whose title starts with this prefix."),
		),
	)
}

func (t *ListWorkflowsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var enabled *bool
	if v := req.GetBool("enabled", false); req.GetArguments()["enabled"] != nil {
		enabled = &v
	}

	b := t.deps.newBuilder()
	wfs, err := b.ListWorkflows(ctx, enabled, req.GetString("prefix", ""))
	if err != nil {
		return apiErrorResult("list workflows", err), nil
	}

	summaries := make([]map[string]any, 0, len(wfs))
	for _, w := range wfs {
		s := map[string]any{
			"id":      w["id"],
			"title":   w["title"],
			"type":    w["type"],
			"enabled": w["enabled"],
		}
		if config, ok := w["config"].(map[string]any); ok {
			if coll, ok := config["collection"].(string); ok && coll != "" {
				s["collection"] = coll
			}
		}
		summaries = append(summaries, s)
	}
	return jsonResult(summaries)
}

// GetWorkflowTool shows a workflow with its node graph.
type GetWorkflowTool struct{ deps Deps }

func NewGetWorkflowTool(deps Deps) *GetWorkflowTool { return &GetWorkflowTool{deps: deps} }

func (t *GetWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_get_workflow",
		mcp.WithDescription("Show a workflow's trigger config and node graph with upstream/downstream links."),
		mcp.WithNumber("workflow_id",
			mcp.Required(),
			mcp.Description("Workflow ID."),
		),
	)
}

func (t *GetWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflowID := req.GetInt("workflow_id", 0)
	if workflowID == 0 {
		return mcp.NewToolResultError("'workflow_id' is required"), nil
	}

	b := t.deps.newBuilder()
	wf, nodes, err := b.GetWorkflow(ctx, workflowID)
	if err != nil {
		return apiErrorResult("get workflow", err), nil
	}

	nodeSummaries := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		s := map[string]any{
			"id":     n["id"],
			"title":  n["title"],
			"type":   n["type"],
			"config": n["config"],
		}
		for _, key := range []string{"upstreamId", "downstreamId", "branchIndex"} {
			if v := n[key]; v != nil {
				s[key] = v
			}
		}
		nodeSummaries = append(nodeSummaries, s)
	}
	return jsonResult(map[string]any{
		"id":      wf["id"],
		"title":   wf["title"],
		"type":    wf["type"],
		"enabled": wf["enabled"],
		"config":  wf["config"],
		"nodes":   nodeSummaries,
	})
}

// DeleteWorkflowTool removes one workflow.
type DeleteWorkflowTool struct{ deps Deps }

func NewDeleteWorkflowTool(deps Deps) *DeleteWorkflowTool { return &DeleteWorkflowTool{deps: deps} }

func (t *DeleteWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_delete_workflow",
		mcp.WithDescription("Delete a workflow by ID. Enabled workflows are disabled first."),
		mcp.WithNumber("workflow_id",
			mcp.Required(),
			mcp.Description("Workflow ID."),
		),
	)
}

func (t *DeleteWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflowID := req.GetInt("workflow_id", 0)
	if workflowID == 0 {
		return mcp.NewToolResultError("'workflow_id' is required"), nil
	}
	b := t.deps.newBuilder()
	if err := b.DeleteWorkflow(ctx, workflowID); err != nil {
		return apiErrorResult("delete workflow", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted workflow %d", workflowID)), nil
}

// DeleteWorkflowsByPrefixTool bulk-removes workflows by title prefix.
type DeleteWorkflowsByPrefixTool struct{ deps Deps }

func NewDeleteWorkflowsByPrefixTool(deps Deps) *DeleteWorkflowsByPrefixTool {
	return &DeleteWorkflowsByPrefixTool{deps: deps}
}

func (t *DeleteWorkflowsByPrefixTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_delete_workflows_by_prefix",
		mcp.WithDescription(
			"Delete every workflow whose title starts with a prefix. Meant for "+
				"tearing down a project's workflows in one call; check the "+
				"prefix with nb_list_workflows first.",
		),
		mcp.WithString("prefix",
			mcp.Required(),
			mcp.Description("Title prefix, e.g. \"[PM] \"."),
		),
	)
}

func (t *DeleteWorkflowsByPrefixTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := req.GetString("prefix", "")
	if prefix == "" {
		return mcp.NewToolResultError("'prefix' is required"), nil
	}
	b := t.deps.newBuilder()
	deleted, err := b.DeleteWorkflowsByPrefix(ctx, prefix)
	if err != nil {
		return apiErrorResult("delete workflows", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %d workflows with prefix '%s'", deleted, prefix)), nil
}
