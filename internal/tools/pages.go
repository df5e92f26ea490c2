package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
)

// PageLayoutTool wipes a tab and starts a fresh block grid.
type PageLayoutTool struct{ deps Deps }

func NewPageLayoutTool(deps Deps) *PageLayoutTool { return &PageLayoutTool{deps: deps} }

func (t *PageLayoutTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_page_layout",
		mcp.WithDescription(
			"Reset a page tab and create its block grid. Run this first, then "+
				"add blocks under the returned grid UID, then arrange them with "+
				"nb_set_layout.",
		),
		mcp.WithString("tab_uid",
			mcp.Required(),
			mcp.Description("Tab UID from nb_create_page or nb_show_page."),
		),
	)
}

func (t *PageLayoutTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tabUID := req.GetString("tab_uid", "")
	if tabUID == "" {
		return mcp.NewToolResultError("'tab_uid' is required"), nil
	}
	b := t.deps.newBuilder()
	grid, err := b.PageLayout(ctx, tabUID)
	if err != nil {
		return apiErrorResult("page layout", err), nil
	}
	return jsonResult(map[string]any{"grid_uid": grid})
}

// TableBlockTool creates a table block with toolbar and columns.
type TableBlockTool struct{ deps Deps }

func NewTableBlockTool(deps Deps) *TableBlockTool { return &TableBlockTool{deps: deps} }

func (t *TableBlockTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_table_block",
		mcp.WithDescription(
			"Create a table block for a collection: filter/refresh/add-new "+
				"toolbar, one column per field, and an actions column. Returns "+
				"UIDs for nb_addnew_form, nb_edit_action, and nb_detail_popup.",
		),
		mcp.WithString("parent_uid",
			mcp.Required(),
			mcp.Description("Grid UID from nb_page_layout."),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection to list."),
		),
		mcp.WithString("fields_json",
			mcp.Required(),
			mcp.Description(`JSON array of column field names: ["name","status","due_date"].`),
		),
		mcp.WithBoolean("first_click",
			mcp.Description("Make the first column click-to-open. Default true."),
		),
		mcp.WithString("title",
			mcp.Description("Card title above the table."),
		),
		mcp.WithString("link_actions_json",
			mcp.Description(`Extra toolbar link buttons as JSON: [{"title":"Export","icon":"downloadoutlined"}].`),
		),
	)
}

func (t *TableBlockTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := req.GetString("parent_uid", "")
	coll := req.GetString("collection", "")
	rawFields := req.GetString("fields_json", "")
	if parent == "" || coll == "" || rawFields == "" {
		return mcp.NewToolResultError("'parent_uid', 'collection', and 'fields_json' are required"), nil
	}
	var fields []string
	if msg := decodeJSONArg("fields_json", rawFields, &fields); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	var linkActions []builder.LinkAction
	if raw := req.GetString("link_actions_json", ""); raw != "" {
		if msg := decodeJSONArg("link_actions_json", raw, &linkActions); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	b := t.deps.newBuilder()
	res, err := b.TableBlock(ctx, parent, coll, fields, req.GetBool("first_click", true),
		req.GetString("title", ""), linkActions)
	if err != nil {
		return apiErrorResult("table block", err), nil
	}
	out := map[string]any{
		"table_uid":          res.Table,
		"addnew_uid":         res.AddNew,
		"actions_column_uid": res.ActionsColumn,
	}
	if res.ClickField != "" {
		out["click_field_uid"] = res.ClickField
	}
	return jsonResult(out)
}

// AddNewFormTool fills an AddNew action with a create form.
type AddNewFormTool struct{ deps Deps }

func NewAddNewFormTool(deps Deps) *AddNewFormTool { return &AddNewFormTool{deps: deps} }

const layoutDSLDoc = "Layout DSL: one field per line; \"a | b\" puts fields side by side; " +
	"\"name*\" marks required; \"name:16\" sets column span (of 24); " +
	"\"--- Title\" inserts a section divider; lines starting with # render as markdown."

func (t *AddNewFormTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_addnew_form",
		mcp.WithDescription("Build the create form behind a table's AddNew button. "+layoutDSLDoc),
		mcp.WithString("addnew_uid",
			mcp.Required(),
			mcp.Description("AddNew action UID from nb_table_block."),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection being created."),
		),
		mcp.WithString("fields_dsl",
			mcp.Required(),
			mcp.Description("Form layout in the DSL described above."),
		),
		mcp.WithString("required_json",
			mcp.Description(`Extra required fields as a JSON array (alternative to the * marker): ["name"].`),
		),
		mcp.WithString("props_json",
			mcp.Description(`Per-field overrides as JSON: {"status":{"defaultValue":"open"},"notes":{"placeholder":"Optional"}}. Keys: defaultValue, description, tooltip, placeholder, hidden, disabled, pattern.`),
		),
		mcp.WithString("mode",
			mcp.Description("Popup mode: drawer (default) or dialog."),
		),
		mcp.WithString("size",
			mcp.Description("Popup size: small, medium, or large (default)."),
		),
	)
}

func (t *AddNewFormTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addnewUID := req.GetString("addnew_uid", "")
	coll := req.GetString("collection", "")
	dsl := req.GetString("fields_dsl", "")
	if addnewUID == "" || coll == "" || dsl == "" {
		return mcp.NewToolResultError("'addnew_uid', 'collection', and 'fields_dsl' are required"), nil
	}
	required, props, msg := formExtras(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	b := t.deps.newBuilder()
	cp, err := b.AddNewForm(ctx, addnewUID, coll, dsl, required, props,
		req.GetString("mode", ""), req.GetString("size", ""))
	if err != nil {
		return apiErrorResult("addnew form", err), nil
	}
	return jsonResult(map[string]any{"child_page_uid": cp})
}

// EditActionTool adds an Edit button with an edit form.
type EditActionTool struct{ deps Deps }

func NewEditActionTool(deps Deps) *EditActionTool { return &EditActionTool{deps: deps} }

func (t *EditActionTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_edit_action",
		mcp.WithDescription("Add an Edit button to a table's actions column with an edit form behind it. "+layoutDSLDoc),
		mcp.WithString("actions_column_uid",
			mcp.Required(),
			mcp.Description("Actions column UID from nb_table_block."),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection being edited."),
		),
		mcp.WithString("fields_dsl",
			mcp.Required(),
			mcp.Description("Form layout in the DSL."),
		),
		mcp.WithString("required_json",
			mcp.Description("Extra required fields as a JSON array."),
		),
		mcp.WithString("props_json",
			mcp.Description("Per-field overrides as JSON (same shape as nb_addnew_form)."),
		),
		mcp.WithString("mode",
			mcp.Description("Popup mode: drawer (default) or dialog."),
		),
		mcp.WithString("size",
			mcp.Description("Popup size: small, medium, or large (default)."),
		),
	)
}

func (t *EditActionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actcol := req.GetString("actions_column_uid", "")
	coll := req.GetString("collection", "")
	dsl := req.GetString("fields_dsl", "")
	if actcol == "" || coll == "" || dsl == "" {
		return mcp.NewToolResultError("'actions_column_uid', 'collection', and 'fields_dsl' are required"), nil
	}
	required, props, msg := formExtras(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	b := t.deps.newBuilder()
	ea, err := b.EditAction(ctx, actcol, coll, dsl, required, props,
		req.GetString("mode", ""), req.GetString("size", ""))
	if err != nil {
		return apiErrorResult("edit action", err), nil
	}
	return jsonResult(map[string]any{"edit_action_uid": ea})
}

func formExtras(req mcp.CallToolRequest) ([]string, map[string]builder.FieldProps, string) {
	var required []string
	if raw := req.GetString("required_json", ""); raw != "" {
		if msg := decodeJSONArg("required_json", raw, &required); msg != "" {
			return nil, nil, msg
		}
	}
	var props map[string]builder.FieldProps
	if raw := req.GetString("props_json", ""); raw != "" {
		if msg := decodeJSONArg("props_json", raw, &props); msg != "" {
			return nil, nil, msg
		}
	}
	return required, props, ""
}

// DetailPopupTool attaches a record detail view.
type DetailPopupTool struct{ deps Deps }

func NewDetailPopupTool(deps Deps) *DetailPopupTool { return &DetailPopupTool{deps: deps} }

func (t *DetailPopupTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_detail_popup",
		mcp.WithDescription(
			"Attach a record detail popup to a click-to-open field or action. "+
				"Each tab shows field details, an association sub-table, an "+
				"editable form, or a custom mix of blocks.",
		),
		mcp.WithString("parent_uid",
			mcp.Required(),
			mcp.Description("click_field_uid or action UID the popup opens from."),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection of the record shown."),
		),
		mcp.WithString("tabs_json",
			mcp.Required(),
			mcp.Description(`JSON array of tabs. Details tab: {"title":"Info","fields":"name | status\nnotes"}. Sub-table tab: {"title":"Tasks","assoc":"tasks","coll":"nb_pm_tasks","fields":["title","status"]}. Mixed tab: {"title":"Overview","blocks":[{"type":"details","fields":"name"},{"type":"js","code":"..."}],"sizes":[16,8]}. Block types: details, js, sub_table, form.`),
		),
		mcp.WithString("mode",
			mcp.Description("Popup mode: drawer (default) or dialog."),
		),
		mcp.WithString("size",
			mcp.Description("Popup size: small, medium, or large (default)."),
		),
	)
}

func (t *DetailPopupTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := req.GetString("parent_uid", "")
	coll := req.GetString("collection", "")
	rawTabs := req.GetString("tabs_json", "")
	if parent == "" || coll == "" || rawTabs == "" {
		return mcp.NewToolResultError("'parent_uid', 'collection', and 'tabs_json' are required"), nil
	}
	var tabs []builder.Tab
	if msg := decodeJSONArg("tabs_json", rawTabs, &tabs); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if len(tabs) == 0 {
		return mcp.NewToolResultError("'tabs_json' must contain at least one tab"), nil
	}

	b := t.deps.newBuilder()
	cp, err := b.DetailPopup(ctx, parent, coll, tabs, req.GetString("mode", ""), req.GetString("size", ""))
	if err != nil {
		return apiErrorResult("detail popup", err), nil
	}
	return jsonResult(map[string]any{"child_page_uid": cp, "tabs": len(tabs)})
}

// FilterFormTool creates a search form wired to a table.
type FilterFormTool struct{ deps Deps }

func NewFilterFormTool(deps Deps) *FilterFormTool { return &FilterFormTool{deps: deps} }

func (t *FilterFormTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_filter_form",
		mcp.WithDescription(
			"Create a search/filter form block. With target_uid set, typing in "+
				"the form filters that table once nb_set_layout runs on the "+
				"shared grid.",
		),
		mcp.WithString("parent_uid",
			mcp.Required(),
			mcp.Description("Grid UID from nb_page_layout."),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection being searched."),
		),
		mcp.WithString("search_fields_json",
			mcp.Required(),
			mcp.Description(`JSON array of field paths the search matches: ["name","code"]. The first one is the visible form field.`),
		),
		mcp.WithString("target_uid",
			mcp.Description("Table block UID the filter drives."),
		),
		mcp.WithString("label",
			mcp.Description("Form item label. Defaults to \"Search\"."),
		),
	)
}

func (t *FilterFormTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := req.GetString("parent_uid", "")
	coll := req.GetString("collection", "")
	rawFields := req.GetString("search_fields_json", "")
	if parent == "" || coll == "" || rawFields == "" {
		return mcp.NewToolResultError("'parent_uid', 'collection', and 'search_fields_json' are required"), nil
	}
	var searchFields []string
	if msg := decodeJSONArg("search_fields_json", rawFields, &searchFields); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if len(searchFields) == 0 {
		return mcp.NewToolResultError("'search_fields_json' must contain at least one field"), nil
	}

	b := t.deps.newBuilder()
	fb, fi, err := b.FilterForm(ctx, parent, coll, searchFields[0],
		req.GetString("target_uid", ""), req.GetString("label", "Search"), searchFields)
	if err != nil {
		return apiErrorResult("filter form", err), nil
	}
	return jsonResult(map[string]any{"filter_block_uid": fb, "filter_item_uid": fi})
}

// KPIBlockTool creates a statistic card counting a collection.
type KPIBlockTool struct{ deps Deps }

func NewKPIBlockTool(deps Deps) *KPIBlockTool { return &KPIBlockTool{deps: deps} }

func (t *KPIBlockTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_kpi_block",
		mcp.WithDescription("Create a KPI card showing a record count, optionally filtered. Arrange several per row with nb_set_layout."),
		mcp.WithString("parent_uid",
			mcp.Required(),
			mcp.Description("Grid UID from nb_page_layout."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Statistic title, e.g. \"Open Tasks\"."),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection to count."),
		),
		mcp.WithString("filter_json",
			mcp.Description(`Optional NocoBase filter as JSON: {"status":"open"} or {"$and":[...]}.`),
		),
		mcp.WithString("color",
			mcp.Description("CSS color for the value, e.g. \"#cf1322\"."),
		),
	)
}

func (t *KPIBlockTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := req.GetString("parent_uid", "")
	title := req.GetString("title", "")
	coll := req.GetString("collection", "")
	if parent == "" || title == "" || coll == "" {
		return mcp.NewToolResultError("'parent_uid', 'title', and 'collection' are required"), nil
	}
	var filter map[string]any
	if raw := req.GetString("filter_json", ""); raw != "" {
		if msg := decodeJSONArg("filter_json", raw, &filter); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	b := t.deps.newBuilder()
	uid, err := b.KPI(ctx, parent, title, coll, filter, req.GetString("color", ""))
	if err != nil {
		return apiErrorResult("kpi block", err), nil
	}
	return jsonResult(map[string]any{"kpi_uid": uid})
}

// JSBlockTool creates a custom JS block.
type JSBlockTool struct{ deps Deps }

func NewJSBlockTool(deps Deps) *JSBlockTool { return &JSBlockTool{deps: deps} }

func (t *JSBlockTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_js_block",
		mcp.WithDescription(
			"Create a custom JavaScript block. The code runs client-side with "+
				"ctx.render, ctx.React.createElement, ctx.antd components, and "+
				"ctx.api.request for data.",
		),
		mcp.WithString("parent_uid",
			mcp.Required(),
			mcp.Description("Grid UID from nb_page_layout."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Card title."),
		),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("JavaScript source. Must call ctx.render(...) to show content."),
		),
	)
}

func (t *JSBlockTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := req.GetString("parent_uid", "")
	title := req.GetString("title", "")
	code := req.GetString("code", "")
	if parent == "" || title == "" || code == "" {
		return mcp.NewToolResultError("'parent_uid', 'title', and 'code' are required"), nil
	}
	b := t.deps.newBuilder()
	uid, err := b.JSBlock(ctx, parent, title, code)
	if err != nil {
		return apiErrorResult("js block", err), nil
	}
	return jsonResult(map[string]any{"js_block_uid": uid})
}

// JSColumnTool creates a scripted table column.
type JSColumnTool struct{ deps Deps }

func NewJSColumnTool(deps Deps) *JSColumnTool { return &JSColumnTool{deps: deps} }

func (t *JSColumnTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_js_column",
		mcp.WithDescription(
			"Add a scripted column to a table. The code runs per row with "+
				"ctx.record holding the row data.",
		),
		mcp.WithString("table_uid",
			mcp.Required(),
			mcp.Description("Table UID from nb_table_block."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Column header."),
		),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("JavaScript rendering the cell via ctx.render(...)."),
		),
		mcp.WithNumber("sort",
			mcp.Description("Column position. Default 50 (after data columns, before actions)."),
		),
		mcp.WithNumber("width",
			mcp.Description("Fixed column width in pixels."),
		),
	)
}

func (t *JSColumnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tbl := req.GetString("table_uid", "")
	title := req.GetString("title", "")
	code := req.GetString("code", "")
	if tbl == "" || title == "" || code == "" {
		return mcp.NewToolResultError("'table_uid', 'title', and 'code' are required"), nil
	}
	b := t.deps.newBuilder()
	uid, err := b.JSColumn(ctx, tbl, title, code, req.GetInt("sort", 50), req.GetInt("width", 0))
	if err != nil {
		return apiErrorResult("js column", err), nil
	}
	return jsonResult(map[string]any{"js_column_uid": uid})
}

// SetLayoutTool arranges blocks on a grid.
type SetLayoutTool struct{ deps Deps }

func NewSetLayoutTool(deps Deps) *SetLayoutTool { return &SetLayoutTool{deps: deps} }

func (t *SetLayoutTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_set_layout",
		mcp.WithDescription(
			"Arrange blocks on a page grid into rows and columns, and wire up "+
				"any pending filter forms. Run last, after all blocks exist.",
		),
		mcp.WithString("grid_uid",
			mcp.Required(),
			mcp.Description("Grid UID from nb_page_layout."),
		),
		mcp.WithString("rows_json",
			mcp.Required(),
			mcp.Description(`JSON array of rows. Each row is an array of columns; a column is either a block UID string (auto span) or ["uid", span] with span out of 24. Example: [[["kpi1",6],["kpi2",6],["kpi3",12]],["filterUid"],["tableUid"]].`),
		),
	)
}

func (t *SetLayoutTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gridUID := req.GetString("grid_uid", "")
	rawRows := req.GetString("rows_json", "")
	if gridUID == "" || rawRows == "" {
		return mcp.NewToolResultError("'grid_uid' and 'rows_json' are required"), nil
	}
	rows, msg := parseRowsSpec(rawRows)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	b := t.deps.newBuilder()
	if err := b.SetLayout(ctx, gridUID, rows); err != nil {
		return apiErrorResult("set layout", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Layout applied: %d rows", len(rows))), nil
}

// parseRowsSpec decodes the rows_json argument. Columns come as either a
// bare UID string or a ["uid", span] pair; omitted spans are distributed
// evenly across the row.
func parseRowsSpec(raw string) ([]builder.LayoutRow, string) {
	var spec [][]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, fmt.Sprintf("invalid JSON in %q: %v", "rows_json", err)
	}
	rows := make([]builder.LayoutRow, 0, len(spec))
	for ri, rawRow := range spec {
		row := make(builder.LayoutRow, 0, len(rawRow))
		explicit := false
		for ci, rawCol := range rawRow {
			var uid string
			if err := json.Unmarshal(rawCol, &uid); err == nil {
				row = append(row, builder.LayoutCol{Blocks: []string{uid}})
				continue
			}
			var pair []json.RawMessage
			if err := json.Unmarshal(rawCol, &pair); err != nil || len(pair) == 0 || len(pair) > 2 {
				return nil, fmt.Sprintf("rows_json row %d col %d: expected a UID string or [uid, span]", ri, ci)
			}
			if err := json.Unmarshal(pair[0], &uid); err != nil {
				return nil, fmt.Sprintf("rows_json row %d col %d: first element must be a UID string", ri, ci)
			}
			col := builder.LayoutCol{Blocks: []string{uid}}
			if len(pair) == 2 {
				if err := json.Unmarshal(pair[1], &col.Span); err != nil {
					return nil, fmt.Sprintf("rows_json row %d col %d: span must be a number", ri, ci)
				}
				explicit = true
			}
			row = append(row, col)
		}
		if !explicit && len(row) > 1 {
			for i, span := range builder.EvenSpans(len(row)) {
				row[i].Span = span
			}
		}
		rows = append(rows, row)
	}
	return rows, ""
}

// CleanTabTool wipes a tab's content.
type CleanTabTool struct{ deps Deps }

func NewCleanTabTool(deps Deps) *CleanTabTool { return &CleanTabTool{deps: deps} }

func (t *CleanTabTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_clean_tab",
		mcp.WithDescription("Delete all content under a page tab, keeping the tab itself. Destructive; there is no undo."),
		mcp.WithString("tab_uid",
			mcp.Required(),
			mcp.Description("Tab UID to clean."),
		),
	)
}

func (t *CleanTabTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tabUID := req.GetString("tab_uid", "")
	if tabUID == "" {
		return mcp.NewToolResultError("'tab_uid' is required"), nil
	}
	deleted, err := t.deps.Client.CleanTab(ctx, tabUID)
	if err != nil {
		return apiErrorResult("clean tab", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleaned tab %s: %d models removed", tabUID, deleted)), nil
}

// OutlineTool drops a planning placeholder card.
type OutlineTool struct{ deps Deps }

func NewOutlineTool(deps Deps) *OutlineTool { return &OutlineTool{deps: deps} }

func (t *OutlineTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_outline",
		mcp.WithDescription(
			"Place a styled placeholder card that documents what should be "+
				"built in its spot later. Useful for sketching a page before "+
				"implementing each block.",
		),
		mcp.WithString("parent_uid",
			mcp.Required(),
			mcp.Description("Grid UID (kind=block), table UID (kind=column), or form grid UID (kind=item)."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Placeholder heading."),
		),
		mcp.WithString("info_json",
			mcp.Description(`Context to display as key/value lines: {"collection":"nb_pm_tasks","note":"chart goes here"}.`),
		),
		mcp.WithString("kind",
			mcp.Description("block (default), column, or item."),
		),
	)
}

func (t *OutlineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := req.GetString("parent_uid", "")
	title := req.GetString("title", "")
	if parent == "" || title == "" {
		return mcp.NewToolResultError("'parent_uid' and 'title' are required"), nil
	}
	var info map[string]any
	if raw := req.GetString("info_json", ""); raw != "" {
		if msg := decodeJSONArg("info_json", raw, &info); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	b := t.deps.newBuilder()
	uid, err := b.Outline(ctx, parent, title, info, req.GetString("kind", "block"))
	if err != nil {
		return apiErrorResult("outline", err), nil
	}
	return jsonResult(map[string]any{"outline_uid": uid})
}

// EventFlowTool attaches a JS event handler to a model.
type EventFlowTool struct{ deps Deps }

func NewEventFlowTool(deps Deps) *EventFlowTool { return &EventFlowTool{deps: deps} }

func (t *EventFlowTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_event_flow",
		mcp.WithDescription(
			"Attach a JavaScript handler to a model's UI event, e.g. run code "+
				"when a form saves. Common events: onSubmitSuccess, onClick, "+
				"onRecordLoad.",
		),
		mcp.WithString("model_uid",
			mcp.Required(),
			mcp.Description("FlowModel UID the handler attaches to."),
		),
		mcp.WithString("event",
			mcp.Required(),
			mcp.Description("Event name."),
		),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("JavaScript to run when the event fires."),
		),
	)
}

func (t *EventFlowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modelUID := req.GetString("model_uid", "")
	event := req.GetString("event", "")
	code := req.GetString("code", "")
	if modelUID == "" || event == "" || code == "" {
		return mcp.NewToolResultError("'model_uid', 'event', and 'code' are required"), nil
	}
	b := t.deps.newBuilder()
	flowKey, err := b.EventFlow(ctx, modelUID, event, code)
	if err != nil {
		return apiErrorResult("event flow", err), nil
	}
	return jsonResult(map[string]any{"flow_key": flowKey, "event": event})
}
