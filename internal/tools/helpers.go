// Package tools contains the MCP tool handlers. Each tool is a struct
// with a Definition for registration and a Handle for execution;
// validation errors and remote API failures come back as tool results
// so the caller can correct and retry, while transport faults surface
// as Go errors.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
	"github.com/nocoforge/nocobase-mcp/internal/logger"
	"github.com/nocoforge/nocobase-mcp/internal/nbclient"
)

// Deps are the shared dependencies every tool draws from.
type Deps struct {
	Client *nbclient.Client
	Log    *logger.Logger

	// DatabaseURL is the PostgreSQL DSN used by the SQL tool. Direct
	// DB access is only needed for DDL; everything else goes through
	// the REST API.
	DatabaseURL string
}

// newBuilder returns a fresh page builder. Builders cache collection
// metadata, so each tool call starts from a clean snapshot.
func (d Deps) newBuilder() *builder.Builder {
	return builder.New(d.Client, d.Log)
}

// jsonResult marshals v as the tool's text payload.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// apiErrorResult renders a remote API failure as a tool error so the
// model can read the server's complaint and adjust.
func apiErrorResult(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
}

// decodeJSONArg parses a JSON string argument into dst. The returned
// message is non-empty on failure and names the argument.
func decodeJSONArg(name, raw string, dst any) string {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Sprintf("invalid JSON in %q: %v", name, err)
	}
	return ""
}
