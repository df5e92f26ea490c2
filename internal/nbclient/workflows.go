package nbclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// CreateWorkflow creates a workflow (disabled) and returns its record.
func (c *Client) CreateWorkflow(ctx context.Context, payload map[string]any) (map[string]any, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/workflows:create", nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeMap(data)
}

// UpdateWorkflow patches workflow fields (enabled, title...). The
// workflows:update endpoint accepts partial values, unlike flowModels.
func (c *Client) UpdateWorkflow(ctx context.Context, workflowID int, values map[string]any) error {
	_, err := c.do(ctx, http.MethodPost, "/api/workflows:update",
		map[string]string{"filterByTk": strconv.Itoa(workflowID)}, values)
	return err
}

// DestroyWorkflow deletes a workflow. Callers should disable it first.
func (c *Client) DestroyWorkflow(ctx context.Context, workflowID int) error {
	_, err := c.do(ctx, http.MethodPost, "/api/workflows:destroy",
		map[string]string{"filterByTk": strconv.Itoa(workflowID)}, nil)
	return err
}

// ListWorkflows returns workflows, newest versions included; filter is
// merged into the query string (e.g. "filter[enabled]": "true").
func (c *Client) ListWorkflows(ctx context.Context, filter map[string]string) ([]map[string]any, error) {
	query := map[string]string{"pageSize": "200"}
	for k, v := range filter {
		query[k] = v
	}
	data, err := c.do(ctx, http.MethodGet, "/api/workflows:list", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// GetWorkflow fetches one workflow record.
func (c *Client) GetWorkflow(ctx context.Context, workflowID int) (map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/workflows:get",
		map[string]string{"filterByTk": strconv.Itoa(workflowID)}, nil)
	if err != nil {
		return nil, err
	}
	wf, err := decodeMap(data)
	if err != nil {
		return nil, err
	}
	if len(wf) == 0 {
		return nil, fmt.Errorf("workflow %d: %w", workflowID, ErrNotFound)
	}
	return wf, nil
}

// ListWorkflowNodes returns the nodes of one workflow.
func (c *Client) ListWorkflowNodes(ctx context.Context, workflowID int) ([]map[string]any, error) {
	path := fmt.Sprintf("/api/workflows/%d/nodes:list", workflowID)
	data, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// CreateWorkflowNode adds a node to a workflow. Linking is driven by
// the payload's upstreamId/branchIndex keys.
func (c *Client) CreateWorkflowNode(ctx context.Context, workflowID int, payload map[string]any) (map[string]any, error) {
	path := fmt.Sprintf("/api/workflows/%d/nodes:create", workflowID)
	data, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeMap(data)
}
