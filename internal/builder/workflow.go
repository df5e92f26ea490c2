package builder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// WorkflowRef is the summary returned after creating a workflow.
type WorkflowRef struct {
	ID    int    `json:"id"`
	Key   string `json:"key"`
	Title string `json:"title"`
}

// NodeRef is the summary returned after creating a workflow node.
type NodeRef struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Type string `json:"type"`
}

// CreateWorkflow creates a disabled workflow with the given trigger.
// triggerType is "collection", "schedule", or "action"; config follows
// the trigger's own schema (mode, collection, cron...).
func (b *Builder) CreateWorkflow(ctx context.Context, title, triggerType string, config map[string]any, sync bool) (WorkflowRef, error) {
	if config == nil {
		config = map[string]any{}
	}
	wf, err := b.nb.CreateWorkflow(ctx, map[string]any{
		"title":   title,
		"type":    triggerType,
		"config":  config,
		"enabled": false,
		"sync":    sync,
	})
	if err != nil {
		return WorkflowRef{}, err
	}
	key, _ := wf["key"].(string)
	return WorkflowRef{ID: intField(wf, "id"), Key: key, Title: title}, nil
}

// AddNode appends a node to a workflow. upstreamID links the node after
// an existing one; branchIndex opens a branch under it (1 = true branch
// or loop body, 0 = false branch). Pass negative values to omit either.
func (b *Builder) AddNode(ctx context.Context, workflowID int, nodeType, title string, config map[string]any, upstreamID, branchIndex int) (NodeRef, error) {
	if config == nil {
		config = map[string]any{}
	}
	payload := map[string]any{"type": nodeType, "title": title, "config": config}
	if upstreamID >= 0 {
		payload["upstreamId"] = upstreamID
	}
	if branchIndex >= 0 {
		payload["branchIndex"] = branchIndex
	}
	node, err := b.nb.CreateWorkflowNode(ctx, workflowID, payload)
	if err != nil {
		return NodeRef{}, err
	}
	key, _ := node["key"].(string)
	ntype, _ := node["type"].(string)
	return NodeRef{ID: intField(node, "id"), Key: key, Type: ntype}, nil
}

// EnableWorkflow flips a workflow's enabled flag.
func (b *Builder) EnableWorkflow(ctx context.Context, workflowID int, enabled bool) error {
	return b.nb.UpdateWorkflow(ctx, workflowID, map[string]any{"enabled": enabled})
}

// ListWorkflows returns current workflow versions, optionally filtered
// by enabled state and title prefix.
func (b *Builder) ListWorkflows(ctx context.Context, enabled *bool, prefix string) ([]map[string]any, error) {
	var filter map[string]string
	if enabled != nil {
		filter = map[string]string{"filter[enabled]": strconv.FormatBool(*enabled)}
	}
	wfs, err := b.nb.ListWorkflows(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for _, w := range wfs {
		if current, ok := w["current"].(bool); ok && !current {
			continue
		}
		if prefix != "" {
			title, _ := w["title"].(string)
			if !strings.HasPrefix(title, prefix) {
				continue
			}
		}
		out = append(out, w)
	}
	return out, nil
}

// GetWorkflow fetches a workflow and its node list.
func (b *Builder) GetWorkflow(ctx context.Context, workflowID int) (map[string]any, []map[string]any, error) {
	wf, err := b.nb.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}
	nodes, err := b.nb.ListWorkflowNodes(ctx, workflowID)
	if err != nil {
		return nil, nil, fmt.Errorf("list nodes of workflow %d: %w", workflowID, err)
	}
	return wf, nodes, nil
}

// DeleteWorkflow disables a workflow before destroying it, since
// NocoBase rejects deleting an enabled one.
func (b *Builder) DeleteWorkflow(ctx context.Context, workflowID int) error {
	if err := b.nb.UpdateWorkflow(ctx, workflowID, map[string]any{"enabled": false}); err != nil {
		return err
	}
	return b.nb.DestroyWorkflow(ctx, workflowID)
}

// DeleteWorkflowsByPrefix removes every workflow whose title starts
// with prefix. Returns how many were deleted.
func (b *Builder) DeleteWorkflowsByPrefix(ctx context.Context, prefix string) (int, error) {
	wfs, err := b.ListWorkflows(ctx, nil, prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, w := range wfs {
		id := intField(w, "id")
		if id == 0 {
			continue
		}
		if err := b.DeleteWorkflow(ctx, id); err != nil {
			b.log.Warn().Err(err).Int("workflow", id).Msg("delete workflow failed")
			continue
		}
		deleted++
	}
	return deleted, nil
}
