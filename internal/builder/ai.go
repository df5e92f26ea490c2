package builder

import (
	"context"
	"fmt"
)

// AIEmployeeSpec describes a new AI employee. ModelSettings left nil
// gets the platform defaults.
type AIEmployeeSpec struct {
	Username      string
	Nickname      string
	Position      string
	Avatar        string
	Bio           string
	About         string
	Greeting      string
	Skills        []map[string]any
	ModelSettings map[string]any
}

func defaultModelSettings() map[string]any {
	return map[string]any{
		"llmService":  "gemini",
		"model":       "models/gemini-2.5-flash",
		"temperature": 0.7, "topP": 1,
		"frequencyPenalty": 0, "presencePenalty": 0,
		"timeout": 60000, "maxRetries": 1,
		"responseFormat": "text",
	}
}

// CreateAIEmployee creates a chat assistant record. Returns the
// username the server acknowledged.
func (b *Builder) CreateAIEmployee(ctx context.Context, spec AIEmployeeSpec) (string, error) {
	settings := spec.ModelSettings
	if settings == nil {
		settings = defaultModelSettings()
	}
	skills := spec.Skills
	if skills == nil {
		skills = []map[string]any{}
	}
	values := map[string]any{
		"username":      spec.Username,
		"nickname":      spec.Nickname,
		"position":      spec.Position,
		"avatar":        spec.Avatar,
		"bio":           spec.Bio,
		"about":         spec.About,
		"greeting":      spec.Greeting,
		"enabled":       true,
		"builtIn":       false,
		"skillSettings": map[string]any{"skills": skills},
		"modelSettings": settings,
		"enableKnowledgeBase": false,
		"knowledgeBase":       map[string]any{"topK": 3, "score": "0.6", "knowledgeBaseIds": []any{}},
		"knowledgeBasePrompt": "From knowledge base:\n{knowledgeBaseData}\nanswer user's question using this information.",
	}
	created, err := b.nb.CreateAIEmployee(ctx, values)
	if err != nil {
		return "", err
	}
	if username, ok := created["username"].(string); ok && username != "" {
		return username, nil
	}
	return spec.Username, nil
}

// ShortcutEmployee binds an AI employee to a page shortcut, optionally
// with preset conversation tasks.
type ShortcutEmployee struct {
	Username string           `json:"username"`
	Tasks    []map[string]any `json:"tasks,omitempty"`
}

// AIShortcutList places floating avatar shortcuts on a page tab. The
// container gets a stable UID derived from the page so repeat calls
// overwrite rather than stack.
func (b *Builder) AIShortcutList(ctx context.Context, pageSchemaUID string, employees []ShortcutEmployee) (string, error) {
	containerUID := fmt.Sprintf("ai-shortcuts-%s", pageSchemaUID)
	if _, err := b.saveUID(ctx, containerUID, "AIEmployeeShortcutListModel", pageSchemaUID,
		"ai-shortcuts", "object", nil, 0, nil); err != nil {
		return "", err
	}
	for i, emp := range employees {
		var sp map[string]any
		if len(emp.Tasks) > 0 {
			sp = map[string]any{"shortcutSettings": map[string]any{"editTasks": map[string]any{"tasks": emp.Tasks}}}
		}
		if _, err := b.saveUID(ctx, "", "AIEmployeeShortcutModel", containerUID,
			"shortcuts", "array", sp, i, map[string]any{
				"props": map[string]any{"aiEmployee": map[string]any{"username": emp.Username}},
			}); err != nil {
			return "", err
		}
	}
	return containerUID, nil
}

// AIButton adds an AI employee button to a block's action bar, scoped
// to that block's work context.
func (b *Builder) AIButton(ctx context.Context, blockUID, username string, tasks []map[string]any) (string, error) {
	var sp map[string]any
	if len(tasks) > 0 {
		sp = map[string]any{"shortcutSettings": map[string]any{"editTasks": map[string]any{"tasks": tasks}}}
	}
	return b.saveUID(ctx, "", "AIEmployeeButtonModel", blockUID, "actions", "array", sp, 98, map[string]any{
		"props": map[string]any{
			"aiEmployee": map[string]any{"username": username},
			"context": map[string]any{"workContext": []map[string]any{
				{"type": "flow-model", "uid": blockUID},
			}},
			"auto": false,
		},
	})
}
