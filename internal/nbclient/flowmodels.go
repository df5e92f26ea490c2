package nbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/nocoforge/nocobase-mcp/internal/merge"
)

const uidChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewUID generates an 11-char random lowercase alphanumeric UID, the
// format NocoBase uses for FlowModel identifiers.
func NewUID() string {
	b := make([]byte, 11)
	for i := range b {
		b[i] = uidChars[rand.Intn(len(uidChars))]
	}
	return string(b)
}

// SaveFlowModelRequest describes one flowModels:save call. UID is
// generated when empty.
type SaveFlowModelRequest struct {
	UID          string
	Use          string
	ParentID     string
	SubKey       string
	SubType      string
	StepParams   map[string]any
	SortIndex    int
	FlowRegistry map[string]any

	// Extra holds additional top-level payload keys (e.g. "props" for
	// AI employee bindings, "filterManager" for filter wiring).
	Extra map[string]any
}

// SaveFlowModel creates a FlowModel node and returns its UID.
func (c *Client) SaveFlowModel(ctx context.Context, req SaveFlowModelRequest) (string, error) {
	uid := req.UID
	if uid == "" {
		uid = NewUID()
	}
	stepParams := req.StepParams
	if stepParams == nil {
		stepParams = map[string]any{}
	}
	registry := req.FlowRegistry
	if registry == nil {
		registry = map[string]any{}
	}

	payload := map[string]any{
		"uid":          uid,
		"use":          req.Use,
		"parentId":     req.ParentID,
		"subKey":       req.SubKey,
		"subType":      req.SubType,
		"stepParams":   stepParams,
		"sortIndex":    req.SortIndex,
		"flowRegistry": registry,
	}
	for k, v := range req.Extra {
		payload[k] = v
	}

	if _, err := c.do(ctx, http.MethodPost, "/api/flowModels:save", nil, payload); err != nil {
		return "", fmt.Errorf("saving flow model %s(%s): %w", req.Use, uid, err)
	}
	return uid, nil
}

// GetFlowModel fetches the full current state of one FlowModel.
// Returns ErrNotFound when the UID does not exist.
func (c *Client) GetFlowModel(ctx context.Context, uid string) (map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/flowModels:get",
		map[string]string{"filterByTk": uid}, nil)
	if err != nil {
		return nil, err
	}

	model, err := decodeMap(data)
	if err != nil {
		return nil, err
	}
	if len(model) == 0 {
		return nil, fmt.Errorf("flow model %s: %w", uid, ErrNotFound)
	}
	return model, nil
}

// GetFlowModelRaw fetches one FlowModel as undecoded JSON, for callers
// that need the document order of object keys (grid rows carry their
// layout order in key order, which a generic map decode loses).
func (c *Client) GetFlowModelRaw(ctx context.Context, uid string) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/flowModels:get",
		map[string]string{"filterByTk": uid}, nil)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("flow model %s: %w", uid, ErrNotFound)
	}
	return data, nil
}

// UpdateFlowModel applies a partial patch to an existing FlowModel.
//
// flowModels:update has full-replace semantics: the submitted options
// object overwrites the whole stored configuration. Sending a partial
// payload would erase every field it omits, so this always runs the
// read-merge-write protocol — fetch the current state, deep-merge the
// patch onto it, submit the whole result. One read plus one write per
// call, and the fetched snapshot is never kept across calls.
//
// Two concurrent updates to the same UID race: the later write is
// merged against a snapshot that may predate the earlier write and
// silently discards it. NocoBase exposes no conditional-write
// primitive, so callers needing stronger guarantees must serialize
// updates per UID themselves.
func (c *Client) UpdateFlowModel(ctx context.Context, uid string, patch map[string]any) error {
	current, err := c.GetFlowModel(ctx, uid)
	if err != nil {
		return err
	}

	// Identity keys are addressing, not configuration — they never
	// belong in the options payload.
	delete(current, "uid")
	delete(current, "name")

	options := merge.Merge(current, patch)

	_, err = c.do(ctx, http.MethodPost, "/api/flowModels:update",
		map[string]string{"filterByTk": uid},
		map[string]any{"options": options})
	if err != nil {
		return fmt.Errorf("updating flow model %s: %w", uid, err)
	}
	return nil
}

// DestroyFlowModel deletes a single FlowModel node.
func (c *Client) DestroyFlowModel(ctx context.Context, uid string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/flowModels:destroy",
		map[string]string{"filterByTk": uid}, nil)
	return err
}

// ListFlowModels returns every FlowModel on the instance.
func (c *Client) ListFlowModels(ctx context.Context) ([]map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/flowModels:list",
		map[string]string{"paginate": "false"}, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// Descendants returns the UIDs of every node below root, breadth-first.
func (c *Client) Descendants(ctx context.Context, root string) ([]string, error) {
	models, err := c.ListFlowModels(ctx)
	if err != nil {
		return nil, err
	}

	children := map[string][]string{}
	for _, m := range models {
		pid, _ := m["parentId"].(string)
		uid, _ := m["uid"].(string)
		if pid != "" && uid != "" {
			children[pid] = append(children[pid], uid)
		}
	}

	var result []string
	queue := append([]string(nil), children[root]...)
	for len(queue) > 0 {
		uid := queue[0]
		queue = queue[1:]
		result = append(result, uid)
		queue = append(queue, children[uid]...)
	}
	return result, nil
}

// DestroyTree deletes a node and its whole subtree, leaves first.
// Returns the number of nodes deleted.
func (c *Client) DestroyTree(ctx context.Context, root string) (int, error) {
	descendants, err := c.Descendants(ctx, root)
	if err != nil {
		return 0, err
	}

	toDelete := append(descendants, root)
	for i := len(toDelete) - 1; i >= 0; i-- {
		if err := c.DestroyFlowModel(ctx, toDelete[i]); err != nil {
			return 0, fmt.Errorf("destroying %s: %w", toDelete[i], err)
		}
	}
	return len(toDelete), nil
}

// CleanTab deletes everything under a tab while keeping the tab node
// itself. Returns the number of nodes deleted.
func (c *Client) CleanTab(ctx context.Context, tabUID string) (int, error) {
	descendants, err := c.Descendants(ctx, tabUID)
	if err != nil {
		return 0, err
	}

	for i := len(descendants) - 1; i >= 0; i-- {
		if err := c.DestroyFlowModel(ctx, descendants[i]); err != nil {
			return 0, fmt.Errorf("destroying %s: %w", descendants[i], err)
		}
	}
	return len(descendants), nil
}

// SetFilterManager writes filter-to-target mappings on a grid node via
// flowModels:save (the filterManager key lives outside options).
func (c *Client) SetFilterManager(ctx context.Context, gridUID string, mappings []map[string]any) error {
	_, err := c.do(ctx, http.MethodPost, "/api/flowModels:save", nil,
		map[string]any{"uid": gridUID, "filterManager": mappings})
	return err
}

// intFromAny converts NocoBase's numeric JSON values (decoded as
// float64) into an int for IDs and sort indexes.
func intFromAny(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
