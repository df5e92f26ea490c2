package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nocoforge/nocobase-mcp/internal/nbclient"
)

// ── Routes ───────────────────────────────────────────────────

// Group creates a sidebar menu group. parentID <= 0 means top level.
func (b *Builder) Group(ctx context.Context, title string, parentID int, icon string) (int, error) {
	payload := map[string]any{"type": "group", "title": title, "icon": icon}
	if parentID > 0 {
		payload["parentId"] = parentID
	}
	route, err := b.nb.CreateRoute(ctx, payload)
	if err != nil {
		return 0, err
	}
	return intField(route, "id"), nil
}

// Route is the result of creating a flowPage route.
type Route struct {
	ID      int
	PageUID string
	TabUID  string            // single-tab pages
	TabUIDs map[string]string // multi-tab pages, keyed by tab title
}

// Page creates a flowPage route under a group. With tab titles given,
// each tab gets its own schemaUid; otherwise a single hidden tab is
// created. A FlowRoute uiSchema stub is inserted for the page.
func (b *Builder) Page(ctx context.Context, title string, parentID int, icon string, tabs []string) (Route, error) {
	pageUID, menuUID := nbclient.NewUID(), nbclient.NewUID()
	payload := map[string]any{
		"type": "flowPage", "title": title, "parentId": parentID,
		"schemaUid": pageUID, "menuSchemaUid": menuUID, "icon": icon,
	}

	result := Route{PageUID: pageUID}
	if len(tabs) > 0 {
		result.TabUIDs = make(map[string]string, len(tabs))
		children := make([]map[string]any, 0, len(tabs))
		for i, t := range tabs {
			tu := nbclient.NewUID()
			result.TabUIDs[t] = tu
			children = append(children, map[string]any{
				"type": "tabs", "title": t, "schemaUid": tu,
				"tabSchemaName": nbclient.NewUID(), "hidden": i == 0,
			})
		}
		payload["enableTabs"] = true
		payload["children"] = children
	} else {
		result.TabUID = nbclient.NewUID()
		payload["enableTabs"] = false
		payload["children"] = []map[string]any{{
			"type": "tabs", "schemaUid": result.TabUID,
			"tabSchemaName": nbclient.NewUID(), "hidden": true,
		}}
	}

	route, err := b.nb.CreateRoute(ctx, payload)
	if err != nil {
		return Route{}, err
	}
	if err := b.nb.InsertUISchema(ctx, map[string]any{
		"type": "void", "x-component": "FlowRoute", "x-uid": pageUID,
	}); err != nil {
		return Route{}, fmt.Errorf("insert FlowRoute schema: %w", err)
	}
	result.ID = intField(route, "id")
	return result, nil
}

// MenuPage is one page entry for Menu.
type MenuPage struct {
	Title string
	Icon  string
}

// Menu creates a group with child pages in one shot. Returns page
// titles mapped to their tab UIDs.
func (b *Builder) Menu(ctx context.Context, groupTitle string, parentID int, pages []MenuPage, groupIcon string) (map[string]string, error) {
	gid, err := b.Group(ctx, groupTitle, parentID, groupIcon)
	if err != nil {
		return nil, err
	}
	tabs := make(map[string]string, len(pages))
	for _, p := range pages {
		icon := p.Icon
		if icon == "" {
			icon = "appstoreoutlined"
		}
		rt, err := b.Page(ctx, p.Title, gid, icon, nil)
		if err != nil {
			return nil, err
		}
		tabs[p.Title] = rt.TabUID
	}
	return tabs, nil
}

// ── Blocks ───────────────────────────────────────────────────

// LinkAction is an extra link button in a table toolbar.
type LinkAction struct {
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

// TableBlockResult carries the UIDs later tools hang content off.
type TableBlockResult struct {
	Table         string
	AddNew        string
	ActionsColumn string
	ClickField    string // display field of the click-to-open column, if any
}

// TableBlock creates a table with toolbar actions, columns, and an
// actions column. The first column opens the row when firstClick is
// set.
func (b *Builder) TableBlock(ctx context.Context, parent, coll string, fields []string, firstClick bool, title string, linkActions []LinkAction) (TableBlockResult, error) {
	sort := b.nextSort(parent)
	sp := map[string]any{
		"resourceSettings": map[string]any{"init": map[string]any{"dataSourceKey": "main", "collectionName": coll}},
		"tableSettings": map[string]any{"defaultSorting": map[string]any{
			"sort": []map[string]any{{"field": "createdAt", "direction": "desc"}},
		}},
	}
	if title != "" {
		sp["cardSettings"] = map[string]any{"titleDescription": map[string]any{"title": title}}
	}
	tbl, err := b.save(ctx, "TableBlockModel", parent, "items", "array", sp, sort)
	if err != nil {
		return TableBlockResult{}, err
	}
	if _, err := b.save(ctx, "FilterActionModel", tbl, "actions", "array", nil, 1); err != nil {
		return TableBlockResult{}, err
	}
	if _, err := b.save(ctx, "RefreshActionModel", tbl, "actions", "array", nil, 2); err != nil {
		return TableBlockResult{}, err
	}
	addnew, err := b.save(ctx, "AddNewActionModel", tbl, "actions", "array", map[string]any{
		"popupSettings": map[string]any{"openView": map[string]any{
			"collectionName": coll, "dataSourceKey": "main",
			"mode": "drawer", "size": "large", "pageModelClass": "ChildPageModel",
		}},
	}, 3)
	if err != nil {
		return TableBlockResult{}, err
	}
	for i, la := range linkActions {
		general := map[string]any{"title": la.Title, "type": "default"}
		if la.Icon != "" {
			general["icon"] = la.Icon
		}
		if _, err := b.save(ctx, "LinkActionModel", tbl, "actions", "array", map[string]any{
			"buttonSettings": map[string]any{"general": general},
		}, 4+i); err != nil {
			return TableBlockResult{}, err
		}
	}

	var clickField string
	for i, f := range fields {
		click := firstClick && i == 0
		_, fu, err := b.Col(ctx, tbl, coll, f, i+1, click, 0)
		if err != nil {
			return TableBlockResult{}, err
		}
		if click {
			clickField = fu
		}
	}
	actcol, err := b.save(ctx, "TableActionsColumnModel", tbl, "columns", "array", map[string]any{
		"tableColumnSettings": map[string]any{"title": map[string]any{"title": `{{t("Actions")}}`}},
	}, 99)
	if err != nil {
		return TableBlockResult{}, err
	}
	return TableBlockResult{Table: tbl, AddNew: addnew, ActionsColumn: actcol, ClickField: clickField}, nil
}

// FilterForm creates a search form block. With targetUID set, the
// filter is registered against the parent grid and connected to the
// table when SetLayout runs.
func (b *Builder) FilterForm(ctx context.Context, parent, coll, field, targetUID, label string, searchFields []string) (string, string, error) {
	sort := b.nextSort(parent)
	fb, err := b.save(ctx, "FilterFormBlockModel", parent, "items", "array", map[string]any{
		"formFilterBlockModelSettings": map[string]any{"layout": map[string]any{
			"layout": "horizontal", "labelAlign": "left",
			"labelWidth": 50, "labelWrap": false, "colon": true,
		}},
	}, sort)
	if err != nil {
		return "", "", err
	}
	fg, err := b.save(ctx, "FilterFormGridModel", fb, "grid", "object", nil, 0)
	if err != nil {
		return "", "", err
	}

	meta := b.fieldInfo(ctx, coll, field)
	initSettings := map[string]any{
		"filterField": map[string]any{
			"name":      field,
			"title":     TitleFromName(field),
			"interface": meta.Interface,
			"type":      meta.Type,
		},
	}
	if targetUID != "" {
		initSettings["defaultTargetUid"] = targetUID
	}
	fi, err := b.save(ctx, "FilterFormItemModel", fg, "items", "array", map[string]any{
		"fieldSettings": map[string]any{"init": map[string]any{
			"dataSourceKey": "main", "collectionName": coll, "fieldPath": field,
		}},
		"filterFormItemSettings": map[string]any{
			"init":      initSettings,
			"showLabel": map[string]any{"showLabel": true},
			"label":     map[string]any{"label": label},
		},
	}, 10)
	if err != nil {
		return "", "", err
	}
	if _, err := b.save(ctx, "InputFieldModel", fi, "field", "object", nil, 0); err != nil {
		return "", "", err
	}

	if targetUID != "" {
		paths := searchFields
		if len(paths) == 0 {
			paths = []string{field}
		}
		b.addFilterLink(parent, FilterMapping{FilterID: fi, TargetID: targetUID, FilterPaths: paths})
	}
	return fb, fi, nil
}

// PageLayout wipes a tab and creates a fresh BlockGridModel for it.
// Returns the grid UID.
func (b *Builder) PageLayout(ctx context.Context, tabUID string) (string, error) {
	if _, err := b.nb.CleanTab(ctx, tabUID); err != nil {
		return "", err
	}
	b.resetSort(tabUID)
	return b.save(ctx, "BlockGridModel", tabUID, "grid", "object", nil, 0)
}

// SetLayout writes the row/column arrangement onto a block grid and
// flushes any pending filter-to-table connections registered for it.
func (b *Builder) SetLayout(ctx context.Context, gridUID string, rows []LayoutRow) error {
	gs := blockGridSettings(rows, nbclient.NewUID)
	if err := b.nb.UpdateFlowModel(ctx, gridUID, map[string]any{
		"stepParams": map[string]any{"gridSettings": gs},
	}); err != nil {
		return err
	}
	links := b.takeFilterLinks(gridUID)
	if len(links) == 0 {
		return nil
	}
	manager := make([]map[string]any, 0, len(links))
	for _, l := range links {
		manager = append(manager, map[string]any{
			"filterId": l.FilterID, "targetId": l.TargetID, "filterPaths": l.FilterPaths,
		})
	}
	return b.nb.SetFilterManager(ctx, gridUID, manager)
}

// SubTable creates an association table inside a detail view. Returns
// the table UID and AddNew action UID.
func (b *Builder) SubTable(ctx context.Context, parentGrid, parentColl, assoc, targetColl string, fields []string, title string) (string, string, error) {
	sp := map[string]any{
		"resourceSettings": map[string]any{"init": map[string]any{
			"dataSourceKey": "main", "collectionName": targetColl,
			"associationName": parentColl + "." + assoc,
			"sourceId":        "{{ctx.view.inputArgs.filterByTk}}",
		}},
	}
	if title != "" {
		sp["cardSettings"] = map[string]any{"titleDescription": map[string]any{"title": title}}
	}
	tbl, err := b.save(ctx, "TableBlockModel", parentGrid, "items", "array", sp, 0)
	if err != nil {
		return "", "", err
	}
	if _, err := b.save(ctx, "RefreshActionModel", tbl, "actions", "array", nil, 2); err != nil {
		return "", "", err
	}
	addnew, err := b.save(ctx, "AddNewActionModel", tbl, "actions", "array", map[string]any{
		"popupSettings": map[string]any{"openView": map[string]any{
			"collectionName": targetColl, "dataSourceKey": "main",
			"mode": "dialog", "size": "small", "pageModelClass": "ChildPageModel",
		}},
	}, 3)
	if err != nil {
		return "", "", err
	}
	for i, f := range fields {
		if _, _, err := b.Col(ctx, tbl, targetColl, f, i+1, false, 0); err != nil {
			return "", "", err
		}
	}
	if _, err := b.save(ctx, "TableActionsColumnModel", tbl, "columns", "array", map[string]any{
		"tableColumnSettings": map[string]any{"title": map[string]any{"title": `{{t("Actions")}}`}},
	}, 99); err != nil {
		return "", "", err
	}
	return tbl, addnew, nil
}

// AddNewForm builds the create form behind an AddNew action. Returns
// the child page UID.
func (b *Builder) AddNewForm(ctx context.Context, addnewUID, coll, dsl string, required []string, props map[string]FieldProps, mode, size string) (string, error) {
	if mode == "" {
		mode = "drawer"
	}
	if size == "" {
		size = "large"
	}
	if err := b.nb.UpdateFlowModel(ctx, addnewUID, map[string]any{
		"stepParams": map[string]any{"popupSettings": map[string]any{"openView": map[string]any{
			"collectionName": coll, "dataSourceKey": "main",
			"mode": mode, "size": size, "pageModelClass": "ChildPageModel",
		}}},
	}); err != nil {
		return "", err
	}
	cp, err := b.save(ctx, "ChildPageModel", addnewUID, "page", "object", map[string]any{
		"pageSettings": map[string]any{"general": map[string]any{"displayTitle": false, "enableTabs": false}},
	}, 0)
	if err != nil {
		return "", err
	}
	ct, err := b.save(ctx, "ChildPageTabModel", cp, "tabs", "array", map[string]any{
		"pageTabSettings": map[string]any{"tab": map[string]any{"title": "New"}},
	}, 0)
	if err != nil {
		return "", err
	}
	bg, err := b.save(ctx, "BlockGridModel", ct, "grid", "object", nil, 0)
	if err != nil {
		return "", err
	}
	fm, err := b.save(ctx, "CreateFormModel", bg, "items", "array", map[string]any{
		"resourceSettings": map[string]any{"init": map[string]any{"dataSourceKey": "main", "collectionName": coll}},
	}, 0)
	if err != nil {
		return "", err
	}
	if _, err := b.save(ctx, "FormSubmitActionModel", fm, "actions", "array", nil, 0); err != nil {
		return "", err
	}
	fg, err := b.save(ctx, "FormGridModel", fm, "grid", "object", nil, 0)
	if err != nil {
		return "", err
	}
	if err := b.buildFormGrid(ctx, fg, coll, dsl, stringSet(required), props); err != nil {
		return "", err
	}
	return cp, nil
}

// EditAction adds an Edit button to a table's actions column with an
// edit form behind it. Returns the action UID.
func (b *Builder) EditAction(ctx context.Context, actcol, coll, dsl string, required []string, props map[string]FieldProps, mode, size string) (string, error) {
	if mode == "" {
		mode = "drawer"
	}
	if size == "" {
		size = "large"
	}
	ea, err := b.save(ctx, "EditActionModel", actcol, "actions", "array", map[string]any{
		"popupSettings": map[string]any{"openView": map[string]any{
			"collectionName": coll, "dataSourceKey": "main",
			"mode": mode, "size": size, "pageModelClass": "ChildPageModel",
			"filterByTk": "{{ ctx.record.id }}",
		}},
	}, 0)
	if err != nil {
		return "", err
	}
	cp, err := b.save(ctx, "ChildPageModel", ea, "page", "object", map[string]any{
		"pageSettings": map[string]any{"general": map[string]any{"displayTitle": false, "enableTabs": false}},
	}, 0)
	if err != nil {
		return "", err
	}
	ct, err := b.save(ctx, "ChildPageTabModel", cp, "tabs", "array", map[string]any{
		"pageTabSettings": map[string]any{"tab": map[string]any{"title": "Edit"}},
	}, 0)
	if err != nil {
		return "", err
	}
	bg, err := b.save(ctx, "BlockGridModel", ct, "grid", "object", nil, 0)
	if err != nil {
		return "", err
	}
	fm, err := b.save(ctx, "EditFormModel", bg, "items", "array", map[string]any{
		"resourceSettings": map[string]any{"init": map[string]any{
			"dataSourceKey": "main", "collectionName": coll,
			"filterByTk": "{{ctx.view.inputArgs.filterByTk}}",
		}},
	}, 0)
	if err != nil {
		return "", err
	}
	if _, err := b.save(ctx, "FormSubmitActionModel", fm, "actions", "array", nil, 0); err != nil {
		return "", err
	}
	fg, err := b.save(ctx, "FormGridModel", fm, "grid", "object", nil, 0)
	if err != nil {
		return "", err
	}
	if err := b.buildFormGrid(ctx, fg, coll, dsl, stringSet(required), props); err != nil {
		return "", err
	}
	return ea, nil
}

// ── Detail popups ────────────────────────────────────────────

// Block is one content block inside a detail popup tab.
type Block struct {
	Type         string                `json:"type"` // details, js, sub_table, form
	Title        string                `json:"title,omitempty"`
	Fields       json.RawMessage       `json:"fields,omitempty"` // DSL string or array of names
	Code         string                `json:"code,omitempty"`
	Assoc        string                `json:"assoc,omitempty"`
	Coll         string                `json:"coll,omitempty"`
	AddNewFields json.RawMessage       `json:"addnew_fields,omitempty"`
	Required     []string              `json:"required,omitempty"`
	Props        map[string]FieldProps `json:"props,omitempty"`
}

// Tab is one tab of a detail popup. Fields alone makes a details tab;
// Assoc plus Coll makes a sub-table tab; Blocks gives full control.
type Tab struct {
	Title  string          `json:"title"`
	Fields json.RawMessage `json:"fields,omitempty"`
	Assoc  string          `json:"assoc,omitempty"`
	Coll   string          `json:"coll,omitempty"`
	Blocks []Block         `json:"blocks,omitempty"`
	Sizes  []int           `json:"sizes,omitempty"`
}

// DetailPopup attaches a multi-tab record view to a click-to-open
// field or action. Returns the child page UID.
func (b *Builder) DetailPopup(ctx context.Context, parentUID, coll string, tabs []Tab, mode, size string) (string, error) {
	if mode == "" {
		mode = "drawer"
	}
	if size == "" {
		size = "large"
	}
	if err := b.nb.UpdateFlowModel(ctx, parentUID, map[string]any{
		"stepParams": map[string]any{"popupSettings": map[string]any{"openView": map[string]any{
			"collectionName": coll, "dataSourceKey": "main",
			"mode": mode, "size": size,
			"pageModelClass": "ChildPageModel", "uid": parentUID,
		}}},
	}); err != nil {
		return "", err
	}
	cp, err := b.save(ctx, "ChildPageModel", parentUID, "page", "object", map[string]any{
		"pageSettings": map[string]any{"general": map[string]any{"displayTitle": false, "enableTabs": len(tabs) > 1}},
	}, 0)
	if err != nil {
		return "", err
	}
	for ti, tab := range tabs {
		ct, err := b.save(ctx, "ChildPageTabModel", cp, "tabs", "array", map[string]any{
			"pageTabSettings": map[string]any{"tab": map[string]any{"title": tab.Title}},
		}, ti)
		if err != nil {
			return "", err
		}
		bg, err := b.save(ctx, "BlockGridModel", ct, "grid", "object", nil, 0)
		if err != nil {
			return "", err
		}
		if err := b.buildTabBlocks(ctx, bg, coll, tab); err != nil {
			return "", err
		}
	}
	return cp, nil
}

// buildTabBlocks materializes a tab's block list inside its grid.
func (b *Builder) buildTabBlocks(ctx context.Context, grid, coll string, tab Tab) error {
	blocks := tab.Blocks
	if len(blocks) == 0 {
		if tab.Assoc != "" {
			blocks = []Block{{Type: "sub_table", Assoc: tab.Assoc, Coll: tab.Coll, Fields: tab.Fields, Title: tab.Title}}
		} else {
			blocks = []Block{{Type: "details", Fields: tab.Fields}}
		}
	}

	var blockUIDs []string
	for bi, blk := range blocks {
		btype := blk.Type
		if btype == "" {
			btype = "details"
		}
		switch btype {
		case "details":
			sp := map[string]any{
				"resourceSettings": map[string]any{"init": map[string]any{
					"dataSourceKey": "main", "collectionName": coll,
					"filterByTk": "{{ctx.view.inputArgs.filterByTk}}",
				}},
			}
			if blk.Title != "" {
				sp["cardSettings"] = map[string]any{"titleDescription": map[string]any{"title": blk.Title}}
			}
			det, err := b.save(ctx, "DetailsBlockModel", grid, "items", "array", sp, bi)
			if err != nil {
				return err
			}
			dg, err := b.save(ctx, "DetailsGridModel", det, "grid", "object", nil, 0)
			if err != nil {
				return err
			}
			if err := b.buildDetailGrid(ctx, dg, coll, fieldsDSL(blk.Fields)); err != nil {
				return err
			}
			blockUIDs = append(blockUIDs, det)

		case "js":
			sp := map[string]any{
				"jsSettings": map[string]any{"runJs": map[string]any{"version": "v1", "code": blk.Code}},
			}
			if blk.Title != "" {
				sp["cardSettings"] = map[string]any{"titleDescription": map[string]any{"title": blk.Title}}
			}
			js, err := b.save(ctx, "JSBlockModel", grid, "items", "array", sp, bi)
			if err != nil {
				return err
			}
			blockUIDs = append(blockUIDs, js)

		case "sub_table":
			tbl, addnew, err := b.SubTable(ctx, grid, coll, blk.Assoc, blk.Coll, fieldsList(blk.Fields), blk.Title)
			if err != nil {
				return err
			}
			addnewFields := fieldsDSL(blk.AddNewFields)
			if addnewFields == "" {
				addnewFields = fieldsDSL(blk.Fields)
			}
			if addnewFields != "" {
				names := fieldNamesFromLayout(addnewFields)
				var req []string
				if len(names) > 0 {
					req = names[:1]
				}
				if _, err := b.AddNewForm(ctx, addnew, blk.Coll, addnewFields, req, nil, "", ""); err != nil {
					return err
				}
			}
			blockUIDs = append(blockUIDs, tbl)

		case "form":
			fm, err := b.save(ctx, "EditFormModel", grid, "items", "array", map[string]any{
				"resourceSettings": map[string]any{"init": map[string]any{
					"dataSourceKey": "main", "collectionName": coll,
					"filterByTk": "{{ctx.view.inputArgs.filterByTk}}",
				}},
			}, bi)
			if err != nil {
				return err
			}
			if _, err := b.save(ctx, "FormSubmitActionModel", fm, "actions", "array", nil, 0); err != nil {
				return err
			}
			fg, err := b.save(ctx, "FormGridModel", fm, "grid", "object", nil, 0)
			if err != nil {
				return err
			}
			if err := b.buildFormGrid(ctx, fg, coll, fieldsDSL(blk.Fields), stringSet(blk.Required), blk.Props); err != nil {
				return err
			}
			blockUIDs = append(blockUIDs, fm)

		default:
			return fmt.Errorf("unknown block type %q", btype)
		}
	}

	// Side-by-side layout when a tab carries several blocks.
	if len(blockUIDs) > 1 || len(tab.Sizes) > 0 {
		spans := tab.Sizes
		if len(spans) == 0 {
			spans = evenSpans(len(blockUIDs))
		}
		rowID := nbclient.NewUID()
		cols := make([][]string, 0, len(blockUIDs))
		for _, bu := range blockUIDs {
			cols = append(cols, []string{bu})
		}
		rows := NewOrderedMap()
		rows.Set(rowID, cols)
		sizes := NewOrderedMap()
		sizes.Set(rowID, spans)
		return b.nb.UpdateFlowModel(ctx, grid, map[string]any{
			"stepParams": map[string]any{"gridSettings": map[string]any{"grid": map[string]any{
				"rows":  rows,
				"sizes": sizes,
			}}},
		})
	}
	return nil
}

// ── JS blocks ────────────────────────────────────────────────

// JSBlock creates a page-level JS block.
func (b *Builder) JSBlock(ctx context.Context, parentGrid, title, code string) (string, error) {
	return b.jsBlockAt(ctx, parentGrid, title, code, b.nextSort(parentGrid))
}

func (b *Builder) jsBlockAt(ctx context.Context, parentGrid, title, code string, sort int) (string, error) {
	return b.save(ctx, "JSBlockModel", parentGrid, "items", "array", map[string]any{
		"jsSettings":   map[string]any{"runJs": map[string]any{"version": "v1", "code": code}},
		"cardSettings": map[string]any{"titleDescription": map[string]any{"title": title}},
	}, sort)
}

// JSColumn creates a scripted table column.
func (b *Builder) JSColumn(ctx context.Context, tableUID, title, code string, sort, width int) (string, error) {
	sp := map[string]any{
		"jsSettings":          map[string]any{"runJs": map[string]any{"version": "v1", "code": code}},
		"tableColumnSettings": map[string]any{"title": map[string]any{"title": title}},
	}
	if width > 0 {
		sp["tableColumnSettings"].(map[string]any)["width"] = map[string]any{"width": width}
	}
	return b.save(ctx, "JSColumnModel", tableUID, "columns", "array", sp, sort)
}

// JSItem creates a scripted form/detail item.
func (b *Builder) JSItem(ctx context.Context, formGrid, title, code string, sort int) (string, error) {
	return b.save(ctx, "JSItemModel", formGrid, "items", "array", map[string]any{
		"jsSettings":       map[string]any{"runJs": map[string]any{"version": "v1", "code": code}},
		"editItemSettings": map[string]any{"showLabel": map[string]any{"showLabel": true, "title": title}},
	}, sort)
}

// KPI creates a statistic card that counts a collection, optionally
// filtered, via a generated JS block.
func (b *Builder) KPI(ctx context.Context, parent, title, coll string, filter map[string]any, color string) (string, error) {
	filterJS := ""
	if len(filter) > 0 {
		raw, err := json.Marshal(filter)
		if err != nil {
			return "", fmt.Errorf("marshal kpi filter: %w", err)
		}
		filterJS = ", filter: " + string(raw)
	}
	colorJS := ""
	if color != "" {
		colorJS = fmt.Sprintf(", color:'%s'", color)
	}
	code := fmt.Sprintf(`(async () => {
  try {
    const r = await ctx.api.request({
      url: '%s:list',
      params: { paginate: false%s }
    });
    const count = Array.isArray(r?.data?.data) ? r.data.data.length
                : Array.isArray(r?.data) ? r.data.length : 0;
    ctx.render(ctx.React.createElement(ctx.antd.Statistic, {
      title: '%s', value: count,
      valueStyle: { fontSize: 28%s }
    }));
  } catch(e) {
    ctx.render(ctx.React.createElement(ctx.antd.Statistic, {
      title: '%s', value: '?', valueStyle: { fontSize: 28 }
    }));
  }
})();`, coll, filterJS, title, colorJS, title)
	return b.JSBlock(ctx, parent, title, code)
}

// ── Event flows ──────────────────────────────────────────────

// EventFlow attaches a runjs step to a model's flow registry, fired on
// the named UI event. Returns the new flow key.
func (b *Builder) EventFlow(ctx context.Context, modelUID, eventName, code string) (string, error) {
	model, err := b.nb.GetFlowModel(ctx, modelUID)
	if err != nil {
		return "", err
	}
	registry, _ := model["flowRegistry"].(map[string]any)
	if registry == nil {
		registry = map[string]any{}
	}

	flowKey, stepKey := nbclient.NewUID(), nbclient.NewUID()
	registry[flowKey] = map[string]any{
		"key": flowKey, "title": "Event flow",
		"on": map[string]any{
			"eventName":     eventName,
			"defaultParams": map[string]any{"condition": map[string]any{"items": []any{}, "logic": "$and"}},
		},
		"steps": map[string]any{stepKey: map[string]any{
			"key": stepKey, "use": "runjs", "sort": 1,
			"flowKey": flowKey, "defaultParams": map[string]any{"code": code},
		}},
	}
	if err := b.nb.UpdateFlowModel(ctx, modelUID, map[string]any{"flowRegistry": registry}); err != nil {
		return "", err
	}
	return flowKey, nil
}

// ── Planning outlines ────────────────────────────────────────

// Outline renders a styled planning card that lists context info for a
// later implementation pass. kind selects block, column, or item.
func (b *Builder) Outline(ctx context.Context, parent, title string, info map[string]any, kind string) (string, error) {
	u := nbclient.NewUID()
	withUID := map[string]any{"uid": u}
	for k, v := range info {
		withUID[k] = v
	}
	infoJSON, err := json.MarshalIndent(withUID, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal outline info: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("const h = ctx.React.createElement;\n")
	sb.WriteString("const info = " + string(infoJSON) + ";\n")
	sb.WriteString("const entries = Object.entries(info);\n")
	sb.WriteString("const tk = ctx.themeToken || {};\n")
	sb.WriteString("ctx.render(h('div', {style: {padding: 10, borderRadius: 6, fontSize: 12, lineHeight: '20px', background: tk.colorBgLayout || '#f5f5f5', border: '1px dashed ' + (tk.colorBorder || '#d9d9d9')}},\n")
	sb.WriteString("  h('div', {style: {fontWeight: 600, fontSize: 13, marginBottom: 4, color: tk.colorPrimary || '#1890ff'}}, '\U0001f4cb " + title + "'),\n")
	sb.WriteString("  ...entries.map(([k,v]) => h('div', {key: k, style: {color: tk.colorTextSecondary || '#888'}},\n")
	sb.WriteString("    h('span', {style: {fontWeight: 500, color: tk.colorText || '#333', marginRight: 4}}, k + ':'),\n")
	sb.WriteString("    h('span', null, typeof v === 'object' ? JSON.stringify(v) : String(v))\n")
	sb.WriteString("  ))\n));")
	code := sb.String()

	switch kind {
	case "column":
		return b.JSColumn(ctx, parent, title, code, 50, 120)
	case "item":
		return b.JSItem(ctx, parent, title, code, 0)
	default:
		return b.JSBlock(ctx, parent, title, code)
	}
}

// ── Helpers ──────────────────────────────────────────────────

// fieldsDSL accepts the tabs/blocks "fields" value, which may be a DSL
// string or a plain array of names, and normalizes it to the DSL.
func fieldsDSL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "\n")
	}
	return ""
}

// fieldsList is the flat-name variant for sub-table columns.
func fieldsList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return fieldNamesFromLayout(s)
	}
	return nil
}

func stringSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
