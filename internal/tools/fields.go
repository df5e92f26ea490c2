package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
)

// UpgradeFieldTool changes a field's interface and UI schema.
type UpgradeFieldTool struct{ deps Deps }

func NewUpgradeFieldTool(deps Deps) *UpgradeFieldTool { return &UpgradeFieldTool{deps: deps} }

func (t *UpgradeFieldTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_upgrade_field",
		mcp.WithDescription(
			"Upgrade a synced field's interface: select, number, datetime, "+
				"markdown, etc. Use after nb_sync_fields, which leaves every "+
				"column as a plain input. See the nocobase://interfaces resource "+
				"for the full catalogue.",
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection the field belongs to."),
		),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field name."),
		),
		mcp.WithString("interface",
			mcp.Required(),
			mcp.Description("Target interface, e.g. select, number, integer, percent, datetime, markdown."),
		),
		mcp.WithString("enum_json",
			mcp.Description(`Options for select/multipleSelect/radioGroup as JSON: [{"value":"active","label":"Active","color":"green"}].`),
		),
		mcp.WithString("title",
			mcp.Description("Display title. Defaults to the existing title or one derived from the field name."),
		),
		mcp.WithNumber("precision",
			mcp.Description("Decimal places for number/percent fields."),
		),
	)
}

func (t *UpgradeFieldTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection := req.GetString("collection", "")
	field := req.GetString("field", "")
	iface := req.GetString("interface", "")
	if collection == "" || field == "" || iface == "" {
		return mcp.NewToolResultError("'collection', 'field', and 'interface' are required"), nil
	}

	opts := builder.FieldUpgradeOptions{Title: req.GetString("title", "")}
	if raw := req.GetString("enum_json", ""); raw != "" {
		if msg := decodeJSONArg("enum_json", raw, &opts.Enum); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}
	if p := req.GetInt("precision", -1); p >= 0 {
		opts.Precision = &p
	}

	fields, err := t.deps.Client.ListFields(ctx, collection)
	if err != nil {
		return apiErrorResult("list fields", err), nil
	}
	var existing map[string]any
	for _, f := range fields {
		if f["name"] == field {
			existing = f
			break
		}
	}
	if existing == nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"field '%s' not found in '%s' — run nb_sync_fields first", field, collection)), nil
	}

	existingTitle := ""
	if schema, ok := existing["uiSchema"].(map[string]any); ok {
		existingTitle, _ = schema["title"].(string)
	}
	payload := builder.FieldUpdatePayload(field, iface, opts, existingTitle)
	if payload == nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown interface '%s' — see nocobase://interfaces", iface)), nil
	}

	key, _ := existing["key"].(string)
	if err := t.deps.Client.UpdateField(ctx, key, payload); err != nil {
		return apiErrorResult("update field", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Upgraded %s.%s to interface '%s'", collection, field, iface)), nil
}

// ListFieldsTool shows the fields of a collection.
type ListFieldsTool struct{ deps Deps }

func NewListFieldsTool(deps Deps) *ListFieldsTool { return &ListFieldsTool{deps: deps} }

func (t *ListFieldsTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_list_fields",
		mcp.WithDescription("List the fields of a collection with name, type, interface, and relation target."),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection name."),
		),
	)
}

func (t *ListFieldsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection := req.GetString("collection", "")
	if collection == "" {
		return mcp.NewToolResultError("'collection' is required"), nil
	}
	fields, err := t.deps.Client.ListFields(ctx, collection)
	if err != nil {
		return apiErrorResult("list fields", err), nil
	}
	if len(fields) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No fields in '%s' — is it registered and synced?", collection)), nil
	}

	// id first, then alphabetical: mirrors the admin UI ordering.
	sort.Slice(fields, func(i, j int) bool {
		ni, _ := fields[i]["name"].(string)
		nj, _ := fields[j]["name"].(string)
		if (ni == "id") != (nj == "id") {
			return ni == "id"
		}
		return ni < nj
	})

	lines := []string{fmt.Sprintf("%-25s %-15s %-18s %s", "Name", "Type", "Interface", "Target")}
	for _, f := range fields {
		name, _ := f["name"].(string)
		ftype, _ := f["type"].(string)
		iface, _ := f["interface"].(string)
		target, _ := f["target"].(string)
		lines = append(lines, fmt.Sprintf("%-25s %-15s %-18s %s", name, ftype, iface, target))
	}
	lines = append(lines, fmt.Sprintf("\n%s: %d fields", collection, len(fields)))
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

// CreateRelationTool creates a relation field between two collections.
type CreateRelationTool struct{ deps Deps }

func NewCreateRelationTool(deps Deps) *CreateRelationTool { return &CreateRelationTool{deps: deps} }

func (t *CreateRelationTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_create_relation",
		mcp.WithDescription(
			"Create a relation field. The foreign key column must already "+
				"exist in the database (add it via nb_execute_sql first). "+
				"Types: m2o (belongsTo), o2m (hasMany), m2m (belongsToMany), o2o (hasOne).",
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection the relation field lives on."),
		),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Relation field name, e.g. \"project\"."),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Relation type: m2o, o2m, m2m, or o2o."),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Target collection name."),
		),
		mcp.WithString("foreign_key",
			mcp.Required(),
			mcp.Description("Foreign key column, e.g. \"project_id\"."),
		),
		mcp.WithString("label",
			mcp.Description("Target field shown as the option label. Defaults to \"id\"."),
		),
		mcp.WithString("title",
			mcp.Description("Display title. Defaults to one derived from the field name."),
		),
		mcp.WithString("other_key",
			mcp.Description("m2m only: foreign key pointing at the target in the through table."),
		),
		mcp.WithString("through",
			mcp.Description("m2m only: through (junction) table name."),
		),
	)
}

func (t *CreateRelationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection := req.GetString("collection", "")
	rel := RelationSpec{
		Field:      req.GetString("field", ""),
		Type:       req.GetString("type", ""),
		Target:     req.GetString("target", ""),
		ForeignKey: req.GetString("foreign_key", ""),
		Label:      req.GetString("label", ""),
		Title:      req.GetString("title", ""),
		OtherKey:   req.GetString("other_key", ""),
		Through:    req.GetString("through", ""),
	}
	if collection == "" || rel.Field == "" || rel.Type == "" || rel.Target == "" || rel.ForeignKey == "" {
		return mcp.NewToolResultError("'collection', 'field', 'type', 'target', and 'foreign_key' are required"), nil
	}

	if err := t.deps.Client.CreateField(ctx, collection, relationPayload(rel)); err != nil {
		return apiErrorResult("create relation", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created %s relation %s.%s -> %s (fk: %s)",
		rel.Type, collection, rel.Field, rel.Target, rel.ForeignKey)), nil
}
