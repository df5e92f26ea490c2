package nbclient

import (
	"context"
	"net/http"
	"strconv"
)

// CreateRoute creates a desktop route (sidebar group, page, or tabs
// child) and returns the created route record.
func (c *Client) CreateRoute(ctx context.Context, payload map[string]any) (map[string]any, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/desktopRoutes:create", nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeMap(data)
}

// ListRoutes returns the sidebar route tree.
func (c *Client) ListRoutes(ctx context.Context) ([]map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/desktopRoutes:list",
		map[string]string{"paginate": "false", "tree": "true"}, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// DestroyRoute deletes a route and its children.
func (c *Client) DestroyRoute(ctx context.Context, routeID int) error {
	_, err := c.do(ctx, http.MethodPost, "/api/desktopRoutes:destroy",
		map[string]string{"filterByTk": strconv.Itoa(routeID)}, nil)
	return err
}

// InsertUISchema inserts a uiSchema node. flowPage routes need a
// FlowRoute stub schema bound to the page's schemaUid.
func (c *Client) InsertUISchema(ctx context.Context, schema map[string]any) error {
	_, err := c.do(ctx, http.MethodPost, "/api/uiSchemas:insert", nil, schema)
	return err
}
