package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
)

// CreateAIEmployeeTool creates a chat assistant.
type CreateAIEmployeeTool struct{ deps Deps }

func NewCreateAIEmployeeTool(deps Deps) *CreateAIEmployeeTool {
	return &CreateAIEmployeeTool{deps: deps}
}

func (t *CreateAIEmployeeTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_create_ai_employee",
		mcp.WithDescription(
			"Create an AI employee: a chat assistant users can talk to from "+
				"the UI. Place it on pages with nb_ai_shortcut or on blocks "+
				"with nb_ai_button.",
		),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("Unique identifier, lowercase, e.g. \"pm-assistant\"."),
		),
		mcp.WithString("nickname",
			mcp.Required(),
			mcp.Description("Display name shown in chat."),
		),
		mcp.WithString("position",
			mcp.Description("Job title, e.g. \"Project Assistant\"."),
		),
		mcp.WithString("bio",
			mcp.Description("Short description shown in the employee list."),
		),
		mcp.WithString("about",
			mcp.Required(),
			mcp.Description("System prompt defining the assistant's behavior and knowledge."),
		),
		mcp.WithString("greeting",
			mcp.Description("First message shown when a chat opens."),
		),
		mcp.WithString("avatar",
			mcp.Description("Avatar image URL or data URI."),
		),
		mcp.WithString("skills_json",
			mcp.Description("Skill settings as a JSON array, per the AI plugin's schema."),
		),
		mcp.WithString("model_settings_json",
			mcp.Description("LLM settings as JSON. Defaults to the platform's Gemini configuration."),
		),
	)
}

func (t *CreateAIEmployeeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec := builder.AIEmployeeSpec{
		Username: req.GetString("username", ""),
		Nickname: req.GetString("nickname", ""),
		Position: req.GetString("position", ""),
		Avatar:   req.GetString("avatar", ""),
		Bio:      req.GetString("bio", ""),
		About:    req.GetString("about", ""),
		Greeting: req.GetString("greeting", ""),
	}
	if spec.Username == "" || spec.Nickname == "" || spec.About == "" {
		return mcp.NewToolResultError("'username', 'nickname', and 'about' are required"), nil
	}
	if raw := req.GetString("skills_json", ""); raw != "" {
		if msg := decodeJSONArg("skills_json", raw, &spec.Skills); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}
	if raw := req.GetString("model_settings_json", ""); raw != "" {
		if msg := decodeJSONArg("model_settings_json", raw, &spec.ModelSettings); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	b := t.deps.newBuilder()
	username, err := b.CreateAIEmployee(ctx, spec)
	if err != nil {
		return apiErrorResult("create ai employee", err), nil
	}
	return jsonResult(map[string]any{"username": username, "nickname": spec.Nickname})
}

// ListAIEmployeesTool lists chat assistants.
type ListAIEmployeesTool struct{ deps Deps }

func NewListAIEmployeesTool(deps Deps) *ListAIEmployeesTool {
	return &ListAIEmployeesTool{deps: deps}
}

func (t *ListAIEmployeesTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_list_ai_employees",
		mcp.WithDescription("List AI employees with username, nickname, position, and enabled state."),
	)
}

func (t *ListAIEmployeesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	employees, err := t.deps.Client.ListAIEmployees(ctx)
	if err != nil {
		return apiErrorResult("list ai employees", err), nil
	}
	if len(employees) == 0 {
		return mcp.NewToolResultText("No AI employees defined"), nil
	}
	lines := []string{fmt.Sprintf("%-20s %-20s %-25s %s", "Username", "Nickname", "Position", "Enabled")}
	for _, e := range employees {
		username, _ := e["username"].(string)
		nickname, _ := e["nickname"].(string)
		position, _ := e["position"].(string)
		enabled, _ := e["enabled"].(bool)
		lines = append(lines, fmt.Sprintf("%-20s %-20s %-25s %v", username, nickname, position, enabled))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

// GetAIEmployeeTool shows one assistant's full configuration.
type GetAIEmployeeTool struct{ deps Deps }

func NewGetAIEmployeeTool(deps Deps) *GetAIEmployeeTool { return &GetAIEmployeeTool{deps: deps} }

func (t *GetAIEmployeeTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_get_ai_employee",
		mcp.WithDescription("Show an AI employee's full configuration, including its system prompt and model settings."),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("Employee username."),
		),
	)
}

func (t *GetAIEmployeeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username := req.GetString("username", "")
	if username == "" {
		return mcp.NewToolResultError("'username' is required"), nil
	}
	emp, err := t.deps.Client.GetAIEmployee(ctx, username)
	if err != nil {
		return apiErrorResult("get ai employee", err), nil
	}
	return jsonResult(emp)
}

// UpdateAIEmployeeTool patches assistant fields.
type UpdateAIEmployeeTool struct{ deps Deps }

func NewUpdateAIEmployeeTool(deps Deps) *UpdateAIEmployeeTool {
	return &UpdateAIEmployeeTool{deps: deps}
}

func (t *UpdateAIEmployeeTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_update_ai_employee",
		mcp.WithDescription("Update fields of an existing AI employee. Only the given values change."),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("Employee username."),
		),
		mcp.WithString("values_json",
			mcp.Required(),
			mcp.Description(`Fields to update as JSON: {"about":"new prompt","greeting":"Hi!","enabled":false}.`),
		),
	)
}

func (t *UpdateAIEmployeeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username := req.GetString("username", "")
	rawValues := req.GetString("values_json", "")
	if username == "" || rawValues == "" {
		return mcp.NewToolResultError("'username' and 'values_json' are required"), nil
	}
	var values map[string]any
	if msg := decodeJSONArg("values_json", rawValues, &values); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if len(values) == 0 {
		return mcp.NewToolResultError("'values_json' must set at least one field"), nil
	}

	if err := t.deps.Client.UpdateAIEmployee(ctx, username, values); err != nil {
		return apiErrorResult("update ai employee", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated AI employee '%s' (%d fields)", username, len(values))), nil
}

// DeleteAIEmployeeTool removes an assistant.
type DeleteAIEmployeeTool struct{ deps Deps }

func NewDeleteAIEmployeeTool(deps Deps) *DeleteAIEmployeeTool {
	return &DeleteAIEmployeeTool{deps: deps}
}

func (t *DeleteAIEmployeeTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_delete_ai_employee",
		mcp.WithDescription("Delete an AI employee by username. Shortcuts pointing at it stop working."),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("Employee username."),
		),
	)
}

func (t *DeleteAIEmployeeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username := req.GetString("username", "")
	if username == "" {
		return mcp.NewToolResultError("'username' is required"), nil
	}
	if err := t.deps.Client.DestroyAIEmployee(ctx, username); err != nil {
		return apiErrorResult("delete ai employee", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted AI employee '%s'", username)), nil
}

// AIShortcutTool places floating assistant avatars on a page.
type AIShortcutTool struct{ deps Deps }

func NewAIShortcutTool(deps Deps) *AIShortcutTool { return &AIShortcutTool{deps: deps} }

func (t *AIShortcutTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_ai_shortcut",
		mcp.WithDescription(
			"Place floating AI employee shortcuts on a page. Repeat calls for "+
				"the same page replace the previous set. Each employee can "+
				"carry preset task prompts.",
		),
		mcp.WithString("page_uid",
			mcp.Required(),
			mcp.Description("Page schema UID from nb_create_page."),
		),
		mcp.WithString("employees_json",
			mcp.Required(),
			mcp.Description(`JSON array: [{"username":"pm-assistant"},{"username":"reporter","tasks":[{"title":"Weekly report","message":{"user":"Write the weekly report"}}]}].`),
		),
	)
}

func (t *AIShortcutTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageUID := req.GetString("page_uid", "")
	rawEmployees := req.GetString("employees_json", "")
	if pageUID == "" || rawEmployees == "" {
		return mcp.NewToolResultError("'page_uid' and 'employees_json' are required"), nil
	}
	var employees []builder.ShortcutEmployee
	if msg := decodeJSONArg("employees_json", rawEmployees, &employees); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if len(employees) == 0 {
		return mcp.NewToolResultError("'employees_json' must contain at least one employee"), nil
	}

	b := t.deps.newBuilder()
	containerUID, err := b.AIShortcutList(ctx, pageUID, employees)
	if err != nil {
		return apiErrorResult("ai shortcut", err), nil
	}
	return jsonResult(map[string]any{"container_uid": containerUID, "employees": len(employees)})
}

// AIButtonTool adds an assistant button to a block's action bar.
type AIButtonTool struct{ deps Deps }

func NewAIButtonTool(deps Deps) *AIButtonTool { return &AIButtonTool{deps: deps} }

func (t *AIButtonTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_ai_button",
		mcp.WithDescription(
			"Add an AI employee button to a block's action bar. The chat "+
				"opens scoped to that block's data as work context.",
		),
		mcp.WithString("block_uid",
			mcp.Required(),
			mcp.Description("Block UID the button attaches to, e.g. a table from nb_table_block."),
		),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("AI employee username."),
		),
		mcp.WithString("tasks_json",
			mcp.Description("Preset task prompts as a JSON array."),
		),
	)
}

func (t *AIButtonTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockUID := req.GetString("block_uid", "")
	username := req.GetString("username", "")
	if blockUID == "" || username == "" {
		return mcp.NewToolResultError("'block_uid' and 'username' are required"), nil
	}
	var tasks []map[string]any
	if raw := req.GetString("tasks_json", ""); raw != "" {
		if msg := decodeJSONArg("tasks_json", raw, &tasks); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	b := t.deps.newBuilder()
	uid, err := b.AIButton(ctx, blockUID, username, tasks)
	if err != nil {
		return apiErrorResult("ai button", err), nil
	}
	return jsonResult(map[string]any{"button_uid": uid})
}
