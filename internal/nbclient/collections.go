package nbclient

import (
	"context"
	"fmt"
	"net/http"
)

// CreateCollection registers a collection in NocoBase metadata.
// Payload keys follow the collections:create contract (name, title,
// autoCreate, timestamps, tree...).
func (c *Client) CreateCollection(ctx context.Context, payload map[string]any) error {
	_, err := c.do(ctx, http.MethodPost, "/api/collections:create", nil, payload)
	return err
}

// ListCollections returns all registered collections.
func (c *Client) ListCollections(ctx context.Context) ([]map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/collections:list",
		map[string]string{"paginate": "false"}, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// ListFields returns the field metadata of one collection.
func (c *Client) ListFields(ctx context.Context, collection string) ([]map[string]any, error) {
	path := fmt.Sprintf("/api/collections/%s/fields:list", collection)
	data, err := c.do(ctx, http.MethodGet, path,
		map[string]string{"paginate": "false"}, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// CreateField adds a field to a collection.
func (c *Client) CreateField(ctx context.Context, collection string, payload map[string]any) error {
	path := fmt.Sprintf("/api/collections/%s/fields:create", collection)
	_, err := c.do(ctx, http.MethodPost, path, nil, payload)
	return err
}

// UpdateField updates a field by its key (not its name — field keys
// are globally unique across collections).
func (c *Client) UpdateField(ctx context.Context, fieldKey string, payload map[string]any) error {
	_, err := c.do(ctx, http.MethodPut, "/api/fields:update",
		map[string]string{"filterByTk": fieldKey}, payload)
	return err
}

// SyncFields triggers the DB-to-metadata field sync on the main data
// source. The endpoint returns an empty body on success.
func (c *Client) SyncFields(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/mainDataSource:syncFields", nil, nil)
	return err
}
