// Package nbclient is the NocoBase REST API client.
//
// It covers the endpoint families the tools drive: flowModels (page
// structure), desktopRoutes (sidebar), collections/fields (data model),
// workflows and aiEmployees. The remote instance is the sole source of
// truth — nothing fetched here is cached across calls, and the only
// local state is the session token.
package nbclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nocoforge/nocobase-mcp/internal/logger"
)

// Options configures a Client.
type Options struct {
	BaseURL  string
	Account  string
	Password string
	Timeout  time.Duration
}

// Client talks to one NocoBase instance. Safe for use from a single
// MCP session; the token mutex only protects against a re-login racing
// a concurrent call.
type Client struct {
	http    *resty.Client
	log     *logger.Logger
	account string
	pass    string

	mu    sync.Mutex
	token string
}

// New creates a Client. No network traffic happens until the first
// call; the session is established lazily and refreshed on a 401.
func New(opts Options, log *logger.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout)

	return &Client{
		http:    cli,
		log:     log,
		account: opts.Account,
		pass:    opts.Password,
	}
}

// envelope is the standard NocoBase response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Login signs in and stores the bearer token for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"account": c.account, "password": c.pass}).
		Post("/api/auth:signIn")
	if err != nil {
		return fmt.Errorf("sign in request: %w", err)
	}
	if err = mapAPIError(resp); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err = json.Unmarshal(resp.Body(), &body); err != nil {
		return fmt.Errorf("sign in response: %w", err)
	}
	if body.Data.Token == "" {
		return fmt.Errorf("sign in: %w: empty token in response", ErrUnauthorized)
	}

	c.mu.Lock()
	c.token = body.Data.Token
	c.mu.Unlock()

	c.log.Debug().Str("account", c.account).Msg("signed in")
	return nil
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do performs one authenticated request and returns the envelope data.
// On the first 401 it signs in (again) and retries once — sessions are
// established lazily and NocoBase tokens expire.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body any) (json.RawMessage, error) {
	data, err := c.doOnce(ctx, method, path, query, body)
	if err == nil || !errors.Is(err, ErrUnauthorized) {
		return data, err
	}

	if lerr := c.Login(ctx); lerr != nil {
		return nil, lerr
	}
	return c.doOnce(ctx, method, path, query, body)
}

func (c *Client) doOnce(ctx context.Context, method, path string, query map[string]string, body any) (json.RawMessage, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")

	if tok := c.bearer(); tok != "" {
		req.SetAuthToken(tok)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err = mapAPIError(resp); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	raw := resp.Body()
	if len(raw) == 0 {
		return nil, nil
	}
	var env envelope
	if err = json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return env.Data, nil
}

// decodeMap unmarshals envelope data into a generic mapping. Missing
// or null data yields an empty map.
func decodeMap(data json.RawMessage) (map[string]any, error) {
	if len(data) == 0 || string(data) == "null" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	return m, nil
}

// decodeList unmarshals envelope data into a list of mappings.
func decodeList(data json.RawMessage) ([]map[string]any, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var l []map[string]any
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	return l, nil
}
