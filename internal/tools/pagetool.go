package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
	"github.com/nocoforge/nocobase-mcp/internal/nbclient"
)

// ShowPageTool renders a page's model tree.
type ShowPageTool struct{ deps Deps }

func NewShowPageTool(deps Deps) *ShowPageTool { return &ShowPageTool{deps: deps} }

func (t *ShowPageTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_show_page",
		mcp.WithDescription(
			"Show a page's full model tree: every block, column, and field "+
				"with its UID. The starting point for page maintenance.",
		),
		mcp.WithString("page",
			mcp.Required(),
			mcp.Description("Page title as shown in the sidebar, or a tab UID directly."),
		),
	)
}

func (t *ShowPageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetString("page", "")
	if page == "" {
		return mcp.NewToolResultError("'page' is required"), nil
	}
	insp := t.deps.newBuilder().Inspector()

	tabUID, err := insp.FindTabUID(ctx, page)
	if err != nil {
		return apiErrorResult("resolve page", err), nil
	}
	if tabUID == "" {
		// Maybe the caller passed a tab UID already.
		if model, merr := insp.ModelByUID(ctx, page); merr == nil && model != nil {
			tabUID = page
		}
	}
	if tabUID == "" {
		return mcp.NewToolResultError(fmt.Sprintf("page '%s' not found — try nb_list_pages", page)), nil
	}

	tree, err := insp.Tree(ctx, tabUID)
	if err != nil {
		return apiErrorResult("load page tree", err), nil
	}
	header := fmt.Sprintf("Page '%s' (tab %s)\n\n", page, tabUID)
	return mcp.NewToolResultText(header + builder.FormatTree(tree)), nil
}

// LocateNodeTool finds a node UID by block type or field name.
type LocateNodeTool struct{ deps Deps }

func NewLocateNodeTool(deps Deps) *LocateNodeTool { return &LocateNodeTool{deps: deps} }

func (t *LocateNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_locate_node",
		mcp.WithDescription(
			"Find a node UID within a page by block type and/or bound field. "+
				"Block types: table, addnew, edit, filter, details, form_create, "+
				"form_edit, or any model class name.",
		),
		mcp.WithString("page",
			mcp.Required(),
			mcp.Description("Page title."),
		),
		mcp.WithString("block",
			mcp.Description("Block type to find."),
		),
		mcp.WithString("field",
			mcp.Description("Field name bound to the node."),
		),
	)
}

func (t *LocateNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetString("page", "")
	block := req.GetString("block", "")
	field := req.GetString("field", "")
	if page == "" {
		return mcp.NewToolResultError("'page' is required"), nil
	}
	if block == "" && field == "" {
		return mcp.NewToolResultError("give 'block', 'field', or both"), nil
	}

	insp := t.deps.newBuilder().Inspector()
	uid, err := insp.Locate(ctx, page, block, field)
	if err != nil {
		return apiErrorResult("locate node", err), nil
	}
	if uid == "" {
		return mcp.NewToolResultError(fmt.Sprintf(
			"no match in '%s' (block=%q field=%q) — nb_show_page lists everything", page, block, field)), nil
	}
	return jsonResult(map[string]any{"uid": uid})
}

// fieldPatchFromProps converts the props_json keys into an
// editItemSettings patch for UpdateFlowModel.
func fieldPatchFromProps(props map[string]any) map[string]any {
	eis := map[string]any{}
	for key, val := range props {
		switch key {
		case "defaultValue":
			eis["initialValue"] = map[string]any{"defaultValue": val}
		case "description":
			eis["description"] = map[string]any{"description": val}
		case "tooltip":
			eis["tooltip"] = map[string]any{"tooltip": val}
		case "placeholder":
			eis["placeholder"] = map[string]any{"placeholder": val}
		case "hidden":
			eis["hidden"] = map[string]any{"hidden": val}
		case "disabled":
			eis["disabled"] = map[string]any{"disabled": val}
		case "required":
			eis["required"] = map[string]any{"required": val}
		case "pattern":
			eis["pattern"] = map[string]any{"pattern": val}
		}
	}
	if len(eis) == 0 {
		return nil
	}
	return map[string]any{"stepParams": map[string]any{"editItemSettings": eis}}
}

// PatchFieldTool adjusts a form item's properties in place.
type PatchFieldTool struct{ deps Deps }

func NewPatchFieldTool(deps Deps) *PatchFieldTool { return &PatchFieldTool{deps: deps} }

func (t *PatchFieldTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_patch_field",
		mcp.WithDescription(
			"Patch a form item's settings without rebuilding the form. Only "+
				"the given keys change; everything else on the item survives.",
		),
		mcp.WithString("item_uid",
			mcp.Required(),
			mcp.Description("FormItemModel UID from nb_show_page or nb_locate_node."),
		),
		mcp.WithString("props_json",
			mcp.Required(),
			mcp.Description(`Properties to set as JSON: {"required":true,"defaultValue":"open","placeholder":"..."}. Keys: defaultValue, description, tooltip, placeholder, hidden, disabled, required, pattern.`),
		),
	)
}

func (t *PatchFieldTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemUID := req.GetString("item_uid", "")
	rawProps := req.GetString("props_json", "")
	if itemUID == "" || rawProps == "" {
		return mcp.NewToolResultError("'item_uid' and 'props_json' are required"), nil
	}
	var props map[string]any
	if msg := decodeJSONArg("props_json", rawProps, &props); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	patch := fieldPatchFromProps(props)
	if patch == nil {
		return mcp.NewToolResultError("no recognized keys in 'props_json'"), nil
	}

	if err := t.deps.Client.UpdateFlowModel(ctx, itemUID, patch); err != nil {
		return apiErrorResult("patch field", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Patched %s (%d properties)", itemUID, len(props))), nil
}

// columnPatch builds the tableColumnSettings patch for PatchColumnTool.
func columnPatch(title string, width int) map[string]any {
	tcs := map[string]any{}
	if title != "" {
		tcs["title"] = map[string]any{"title": title}
	}
	if width > 0 {
		tcs["width"] = map[string]any{"width": width}
	}
	if len(tcs) == 0 {
		return nil
	}
	return map[string]any{"stepParams": map[string]any{"tableColumnSettings": tcs}}
}

// PatchColumnTool adjusts a table column's title or width.
type PatchColumnTool struct{ deps Deps }

func NewPatchColumnTool(deps Deps) *PatchColumnTool { return &PatchColumnTool{deps: deps} }

func (t *PatchColumnTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_patch_column",
		mcp.WithDescription("Change a table column's title or width in place."),
		mcp.WithString("column_uid",
			mcp.Required(),
			mcp.Description("TableColumnModel UID."),
		),
		mcp.WithString("title",
			mcp.Description("New column header."),
		),
		mcp.WithNumber("width",
			mcp.Description("Fixed width in pixels."),
		),
	)
}

func (t *PatchColumnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	colUID := req.GetString("column_uid", "")
	if colUID == "" {
		return mcp.NewToolResultError("'column_uid' is required"), nil
	}
	patch := columnPatch(req.GetString("title", ""), req.GetInt("width", 0))
	if patch == nil {
		return mcp.NewToolResultError("give 'title', 'width', or both"), nil
	}
	if err := t.deps.Client.UpdateFlowModel(ctx, colUID, patch); err != nil {
		return apiErrorResult("patch column", err), nil
	}
	return mcp.NewToolResultText("Patched column " + colUID), nil
}

// AddFieldTool appends a field to an existing form or detail grid.
type AddFieldTool struct{ deps Deps }

func NewAddFieldTool(deps Deps) *AddFieldTool { return &AddFieldTool{deps: deps} }

func (t *AddFieldTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_add_field",
		mcp.WithDescription(
			"Add a field to an existing form or detail grid without "+
				"rebuilding it. The field lands in a new full-width row at the "+
				"bottom, or after a named sibling.",
		),
		mcp.WithString("grid_uid",
			mcp.Required(),
			mcp.Description("FormGridModel or DetailsGridModel UID."),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection the field belongs to."),
		),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field name to add."),
		),
		mcp.WithString("kind",
			mcp.Description("form (editable, default) or detail (read-only)."),
		),
		mcp.WithBoolean("required",
			mcp.Description("Mark the form field required."),
		),
		mcp.WithString("after",
			mcp.Description("Place the new row after the row holding this field."),
		),
	)
}

func (t *AddFieldTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gridUID := req.GetString("grid_uid", "")
	coll := req.GetString("collection", "")
	field := req.GetString("field", "")
	if gridUID == "" || coll == "" || field == "" {
		return mcp.NewToolResultError("'grid_uid', 'collection', and 'field' are required"), nil
	}
	b := t.deps.newBuilder()
	insp := b.Inspector()

	siblings, err := insp.Children(ctx, gridUID, "items")
	if err != nil {
		return apiErrorResult("inspect grid", err), nil
	}
	sortIdx := len(siblings)

	var itemUID string
	if req.GetString("kind", "form") == "detail" {
		itemUID, err = b.DetailField(ctx, gridUID, coll, field, sortIdx)
	} else {
		itemUID, err = b.FormField(ctx, gridUID, coll, field, sortIdx, req.GetBool("required", false), nil)
	}
	if err != nil {
		return apiErrorResult("add field", err), nil
	}

	if err := appendGridRow(ctx, t.deps.Client, gridUID, itemUID, req.GetString("after", ""), siblings); err != nil {
		return apiErrorResult("update grid layout", err), nil
	}
	return jsonResult(map[string]any{"item_uid": itemUID, "field": field})
}

// appendGridRow inserts a full-width row holding itemUID into the
// grid's gridSettings, directly after the row containing afterField
// when given, else at the bottom. Row order lives in the key order of
// the rows object, so the grid is fetched raw (a map decode would lose
// it) and the whole gridSettings value is rewritten through ordered
// maps.
func appendGridRow(ctx context.Context, client *nbclient.Client, gridUID, itemUID, afterField string, siblings []map[string]any) error {
	raw, err := client.GetFlowModelRaw(ctx, gridUID)
	if err != nil {
		return err
	}
	var doc struct {
		StepParams struct {
			GridSettings struct {
				Grid struct {
					Rows  json.RawMessage `json:"rows"`
					Sizes json.RawMessage `json:"sizes"`
				} `json:"grid"`
			} `json:"gridSettings"`
		} `json:"stepParams"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding grid %s: %w", gridUID, err)
	}
	rows, err := builder.DecodeOrdered(doc.StepParams.GridSettings.Grid.Rows)
	if err != nil {
		return fmt.Errorf("decoding grid %s rows: %w", gridUID, err)
	}
	sizes, err := builder.DecodeOrdered(doc.StepParams.GridSettings.Grid.Sizes)
	if err != nil {
		return fmt.Errorf("decoding grid %s sizes: %w", gridUID, err)
	}

	afterUID := ""
	if afterField != "" {
		for _, s := range siblings {
			sp, _ := s["stepParams"].(map[string]any)
			if fs, ok := sp["fieldSettings"].(map[string]any); ok {
				if init, ok := fs["init"].(map[string]any); ok && init["fieldPath"] == afterField {
					afterUID, _ = s["uid"].(string)
					break
				}
			}
		}
	}

	newRows, newSizes := insertFullWidthRow(rows, sizes, nbclient.NewUID(), itemUID, afterUID)

	return client.UpdateFlowModel(ctx, gridUID, map[string]any{
		"stepParams": map[string]any{"gridSettings": map[string]any{
			"grid": map[string]any{"rows": newRows, "sizes": newSizes},
		}},
	})
}

// insertFullWidthRow rebuilds rows/sizes with a new single-column row
// holding itemUID placed right after the row containing afterUID, or
// appended when afterUID is empty or not found.
func insertFullWidthRow(rows, sizes *builder.OrderedMap, newRowID, itemUID, afterUID string) (*builder.OrderedMap, *builder.OrderedMap) {
	newRows := builder.NewOrderedMap()
	newSizes := builder.NewOrderedMap()
	placed := false
	for _, rowID := range rows.Keys() {
		cols, _ := rows.Get(rowID)
		newRows.Set(rowID, cols)
		if sz, ok := sizes.Get(rowID); ok {
			newSizes.Set(rowID, sz)
		}
		if afterUID != "" && rowHoldsUID(cols, afterUID) {
			newRows.Set(newRowID, [][]string{{itemUID}})
			newSizes.Set(newRowID, []int{24})
			placed = true
		}
	}
	if !placed {
		newRows.Set(newRowID, [][]string{{itemUID}})
		newSizes.Set(newRowID, []int{24})
	}
	return newRows, newSizes
}

func rowHoldsUID(cols any, uid string) bool {
	list, ok := cols.([]any)
	if !ok {
		return false
	}
	for _, col := range list {
		cells, ok := col.([]any)
		if !ok {
			continue
		}
		for _, cell := range cells {
			if cell == uid {
				return true
			}
		}
	}
	return false
}

// RemoveFieldTool deletes a form or detail item.
type RemoveFieldTool struct{ deps Deps }

func NewRemoveFieldTool(deps Deps) *RemoveFieldTool { return &RemoveFieldTool{deps: deps} }

func (t *RemoveFieldTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_remove_field",
		mcp.WithDescription("Remove a form or detail item and its field model. Find the UID with nb_show_page or nb_locate_node."),
		mcp.WithString("item_uid",
			mcp.Required(),
			mcp.Description("FormItemModel or DetailsItemModel UID."),
		),
	)
}

func (t *RemoveFieldTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemUID := req.GetString("item_uid", "")
	if itemUID == "" {
		return mcp.NewToolResultError("'item_uid' is required"), nil
	}
	deleted, err := t.deps.Client.DestroyTree(ctx, itemUID)
	if err != nil {
		return apiErrorResult("remove field", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed %s (%d models)", itemUID, deleted)), nil
}

// AddColumnTool appends a column to an existing table.
type AddColumnTool struct{ deps Deps }

func NewAddColumnTool(deps Deps) *AddColumnTool { return &AddColumnTool{deps: deps} }

func (t *AddColumnTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_add_column",
		mcp.WithDescription("Add a field column to an existing table, placed before the actions column."),
		mcp.WithString("table_uid",
			mcp.Required(),
			mcp.Description("TableBlockModel UID."),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection the table lists."),
		),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field name for the new column."),
		),
		mcp.WithNumber("width",
			mcp.Description("Fixed width in pixels."),
		),
	)
}

func (t *AddColumnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableUID := req.GetString("table_uid", "")
	coll := req.GetString("collection", "")
	field := req.GetString("field", "")
	if tableUID == "" || coll == "" || field == "" {
		return mcp.NewToolResultError("'table_uid', 'collection', and 'field' are required"), nil
	}
	b := t.deps.newBuilder()
	insp := b.Inspector()

	cols, err := insp.Children(ctx, tableUID, "columns")
	if err != nil {
		return apiErrorResult("inspect table", err), nil
	}
	// Last data column sorts below the actions column at 99.
	maxSort := 0
	for _, c := range cols {
		if c["use"] == "TableActionsColumnModel" {
			continue
		}
		if s := intFromModel(c, "sortIndex"); s > maxSort {
			maxSort = s
		}
	}

	colUID, _, err := b.Col(ctx, tableUID, coll, field, maxSort+1, false, req.GetInt("width", 0))
	if err != nil {
		return apiErrorResult("add column", err), nil
	}
	return jsonResult(map[string]any{"column_uid": colUID, "field": field})
}

func intFromModel(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// RemoveColumnTool deletes a table column.
type RemoveColumnTool struct{ deps Deps }

func NewRemoveColumnTool(deps Deps) *RemoveColumnTool { return &RemoveColumnTool{deps: deps} }

func (t *RemoveColumnTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_remove_column",
		mcp.WithDescription("Remove a table column and its display field model."),
		mcp.WithString("column_uid",
			mcp.Required(),
			mcp.Description("TableColumnModel UID."),
		),
	)
}

func (t *RemoveColumnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	colUID := req.GetString("column_uid", "")
	if colUID == "" {
		return mcp.NewToolResultError("'column_uid' is required"), nil
	}
	deleted, err := t.deps.Client.DestroyTree(ctx, colUID)
	if err != nil {
		return apiErrorResult("remove column", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed column %s (%d models)", colUID, deleted)), nil
}

// ListPagesTool lists every page with its tab UID.
type ListPagesTool struct{ deps Deps }

func NewListPagesTool(deps Deps) *ListPagesTool { return &ListPagesTool{deps: deps} }

func (t *ListPagesTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_list_pages",
		mcp.WithDescription("List every page with its sidebar path, route ID, and content tab UID."),
	)
}

func (t *ListPagesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insp := t.deps.newBuilder().Inspector()
	pages, err := insp.Pages(ctx)
	if err != nil {
		return apiErrorResult("list pages", err), nil
	}
	if len(pages) == 0 {
		return mcp.NewToolResultText("No pages defined"), nil
	}
	lines := []string{fmt.Sprintf("%-40s %-8s %s", "Path", "Route", "Tab UID")}
	for _, p := range pages {
		lines = append(lines, fmt.Sprintf("%-40s %-8d %s", p.Path, p.RouteID, p.TabUID))
	}
	lines = append(lines, fmt.Sprintf("\nTotal: %d pages", len(pages)))
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
