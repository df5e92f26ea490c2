package nbclient

import (
	"context"
	"fmt"
	"net/http"
)

// CreateAIEmployee creates an AI employee record and returns it.
func (c *Client) CreateAIEmployee(ctx context.Context, values map[string]any) (map[string]any, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/aiEmployees:create", nil, values)
	if err != nil {
		return nil, err
	}
	return decodeMap(data)
}

// ListAIEmployees returns all AI employees.
func (c *Client) ListAIEmployees(ctx context.Context) ([]map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/aiEmployees:list",
		map[string]string{"paginate": "false"}, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// GetAIEmployee fetches one AI employee by username (its primary key).
func (c *Client) GetAIEmployee(ctx context.Context, username string) (map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/aiEmployees:get",
		map[string]string{"filterByTk": username}, nil)
	if err != nil {
		return nil, err
	}
	emp, err := decodeMap(data)
	if err != nil {
		return nil, err
	}
	if len(emp) == 0 {
		return nil, fmt.Errorf("ai employee %s: %w", username, ErrNotFound)
	}
	return emp, nil
}

// UpdateAIEmployee patches AI employee fields.
func (c *Client) UpdateAIEmployee(ctx context.Context, username string, values map[string]any) error {
	_, err := c.do(ctx, http.MethodPost, "/api/aiEmployees:update",
		map[string]string{"filterByTk": username}, values)
	return err
}

// DestroyAIEmployee deletes an AI employee.
func (c *Client) DestroyAIEmployee(ctx context.Context, username string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/aiEmployees:destroy",
		map[string]string{"filterByTk": username}, nil)
	return err
}
