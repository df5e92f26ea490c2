// Package resources implements MCP resource handlers.
//
// Resources provide read-only reference data the host can consume for
// context. They use URI-based addressing (nocobase://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
)

// Handler serves the static reference catalogues.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

// InterfacesResource lists every field interface nb_upgrade_field
// accepts, with its UI schema template.
func (h *Handler) InterfacesResource() mcp.Resource {
	return mcp.NewResource(
		"nocobase://interfaces",
		"NocoBase Field Interfaces",
		mcp.WithResourceDescription("Field interface catalogue: names and uiSchema templates accepted by nb_upgrade_field and nb_setup_collection"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleInterfaces renders the interface catalogue as JSON.
func (h *Handler) HandleInterfaces(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names := builder.InterfaceNames()
	sort.Strings(names)

	catalogue := make(map[string]any, len(names))
	for _, name := range names {
		catalogue[name] = builder.InterfaceTemplate(name)
	}
	data, err := json.MarshalIndent(map[string]any{
		"interfaces": catalogue,
		"notes": []string{
			"select/multipleSelect/radioGroup/checkboxGroup take an enum of {value,label,color} options",
			"number/percent take a precision (decimal places)",
			"relation interfaces (m2o, o2m, m2m, o2o) go through nb_create_relation, not nb_upgrade_field",
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling interface catalogue: %w", err)
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

// workflowNodes documents the node types nb_add_node accepts with their
// config shapes. Kept as data so both the resource and any docs render
// from one source.
var workflowNodes = []map[string]any{
	{
		"type":        "condition",
		"description": "Branch on a calculation result. branch_index 1 = true, 0 = false.",
		"config":      map[string]any{"engine": "math.js", "expression": "{{$context.data.amount}} > 500"},
	},
	{
		"type":        "calculation",
		"description": "Compute a value for later nodes.",
		"config":      map[string]any{"engine": "math.js", "expression": "{{$context.data.price}} * {{$context.data.qty}}"},
	},
	{
		"type":        "create",
		"description": "Create a record.",
		"config": map[string]any{
			"collection": "nb_pm_tasks",
			"params":     map[string]any{"values": map[string]any{"title": "{{$context.data.name}}"}},
		},
	},
	{
		"type":        "update",
		"description": "Update matching records.",
		"config": map[string]any{
			"collection": "nb_pm_tasks",
			"params": map[string]any{
				"filter": map[string]any{"id": "{{$context.data.id}}"},
				"values": map[string]any{"status": "done"},
			},
		},
	},
	{
		"type":        "destroy",
		"description": "Delete matching records.",
		"config": map[string]any{
			"collection": "nb_pm_tasks",
			"params":     map[string]any{"filter": map[string]any{"status": "archived"}},
		},
	},
	{
		"type":        "query",
		"description": "Query records into the flow context. multiple=false returns one record.",
		"config": map[string]any{
			"collection": "nb_pm_tasks",
			"multiple":   false,
			"params":     map[string]any{"filter": map[string]any{"status": "open"}},
		},
	},
	{
		"type":        "sql",
		"description": "Run raw SQL against the configured data source.",
		"config":      map[string]any{"dataSource": "main", "sql": "UPDATE nb_pm_tasks SET status='late' WHERE due_date < NOW()"},
	},
	{
		"type":        "request",
		"description": "Call an external HTTP endpoint.",
		"config": map[string]any{
			"method": "POST", "url": "https://example.com/hook",
			"data": map[string]any{"id": "{{$context.data.id}}"},
		},
	},
	{
		"type":        "delay",
		"description": "Pause the flow. duration in milliseconds.",
		"config":      map[string]any{"duration": 60000, "endStatus": 1},
	},
	{
		"type":        "loop",
		"description": "Iterate over a list. branch_index 1 holds the loop body.",
		"config":      map[string]any{"target": "{{$jobsMapByNodeId.12}}"},
	},
}

// WorkflowNodesResource documents nb_add_node's node types.
func (h *Handler) WorkflowNodesResource() mcp.Resource {
	return mcp.NewResource(
		"nocobase://workflow-nodes",
		"NocoBase Workflow Node Types",
		mcp.WithResourceDescription("Workflow node type catalogue: config schemas accepted by nb_add_node"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleWorkflowNodes renders the node catalogue as JSON.
func (h *Handler) HandleWorkflowNodes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(map[string]any{
		"nodes": workflowNodes,
		"notes": []string{
			"Chain nodes with upstream_id; the first node omits it",
			"Variables: {{$context.data.FIELD}} is the trigger record, {{$jobsMapByNodeId.ID}} a node's result",
			strings.Join([]string{"Collection trigger modes", "1=create", "2=update", "3=create or update", "4=delete"}, ": "),
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling node catalogue: %w", err)
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

func jsonResource(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}
}
