// Package builder assembles NocoBase FlowModel trees — pages, tables,
// forms, detail popups — from compact declarative inputs. It sits on
// top of nbclient and owns the model-class inference (field interface
// to Display/Edit model), the grid layout math, and the per-page sort
// bookkeeping.
package builder

import (
	"context"
	"fmt"
	"sync"

	"github.com/nocoforge/nocobase-mcp/internal/logger"
	"github.com/nocoforge/nocobase-mcp/internal/nbclient"
)

type fieldMeta struct {
	Interface string
	Type      string
	Target    string
}

// FilterMapping connects a filter form item to the table it filters.
// Written to the grid's filterManager when the layout is finalized.
type FilterMapping struct {
	FilterID    string   `json:"filterId"`
	TargetID    string   `json:"targetId"`
	FilterPaths []string `json:"filterPaths"`
}

// Builder drives page construction against one NocoBase instance.
// Collection metadata is cached per builder, so tools should create a
// fresh one per call batch rather than holding it across schema edits.
type Builder struct {
	nb  *nbclient.Client
	log *logger.Logger

	mu           sync.Mutex
	fieldCache   map[string]map[string]fieldMeta
	titleCache   map[string]string
	sortCounters map[string]int
	filterLinks  map[string][]FilterMapping
}

func New(nb *nbclient.Client, log *logger.Logger) *Builder {
	return &Builder{
		nb:           nb,
		log:          log,
		fieldCache:   map[string]map[string]fieldMeta{},
		titleCache:   map[string]string{},
		sortCounters: map[string]int{},
		filterLinks:  map[string][]FilterMapping{},
	}
}

// Client exposes the underlying API client for operations the builder
// does not wrap.
func (b *Builder) Client() *nbclient.Client { return b.nb }

// ── Metadata ─────────────────────────────────────────────────

func (b *Builder) loadMeta(ctx context.Context, coll string) error {
	b.mu.Lock()
	_, cached := b.fieldCache[coll]
	needTitles := len(b.titleCache) == 0
	b.mu.Unlock()
	if cached {
		return nil
	}

	fields, err := b.nb.ListFields(ctx, coll)
	if err != nil {
		return fmt.Errorf("load fields for %s: %w", coll, err)
	}
	metas := make(map[string]fieldMeta, len(fields))
	for _, f := range fields {
		name, _ := f["name"].(string)
		if name == "" {
			continue
		}
		m := fieldMeta{Interface: "input", Type: "string"}
		if v, ok := f["interface"].(string); ok && v != "" {
			m.Interface = v
		}
		if v, ok := f["type"].(string); ok && v != "" {
			m.Type = v
		}
		if v, ok := f["target"].(string); ok {
			m.Target = v
		}
		metas[name] = m
	}

	titles := map[string]string{}
	if needTitles {
		colls, err := b.nb.ListCollections(ctx)
		if err != nil {
			return fmt.Errorf("load collections: %w", err)
		}
		for _, c := range colls {
			name, _ := c["name"].(string)
			if name == "" {
				continue
			}
			title, _ := c["titleField"].(string)
			if title == "" {
				title = "name"
			}
			titles[name] = title
		}
	}

	b.mu.Lock()
	b.fieldCache[coll] = metas
	for k, v := range titles {
		b.titleCache[k] = v
	}
	b.mu.Unlock()
	return nil
}

func (b *Builder) iface(ctx context.Context, coll, field string) string {
	if err := b.loadMeta(ctx, coll); err != nil {
		b.log.Warn().Err(err).Str("collection", coll).Msg("field metadata unavailable")
		return "input"
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.fieldCache[coll][field]; ok {
		return m.Interface
	}
	return "input"
}

func (b *Builder) target(ctx context.Context, coll, field string) string {
	if err := b.loadMeta(ctx, coll); err != nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fieldCache[coll][field].Target
}

// labelField returns the title field of a collection, for association
// display labels.
func (b *Builder) labelField(ctx context.Context, targetColl string) string {
	if err := b.loadMeta(ctx, targetColl); err != nil {
		return "name"
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.titleCache[targetColl]; ok {
		return t
	}
	return "name"
}

func (b *Builder) fieldInfo(ctx context.Context, coll, field string) fieldMeta {
	if err := b.loadMeta(ctx, coll); err != nil {
		return fieldMeta{Interface: "input", Type: "string"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.fieldCache[coll][field]; ok {
		return m
	}
	return fieldMeta{Interface: "input", Type: "string"}
}

// nextSort hands out ascending sort indexes per parent so stacked
// blocks keep their creation order.
func (b *Builder) nextSort(parent string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.sortCounters[parent]
	b.sortCounters[parent] = s + 1
	return s
}

func (b *Builder) resetSort(parent string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sortCounters, parent)
}

func (b *Builder) addFilterLink(grid string, m FilterMapping) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filterLinks[grid] = append(b.filterLinks[grid], m)
}

func (b *Builder) takeFilterLinks(grid string) []FilterMapping {
	b.mu.Lock()
	defer b.mu.Unlock()
	links := b.filterLinks[grid]
	delete(b.filterLinks, grid)
	return links
}

// ── Low-level save ───────────────────────────────────────────

func (b *Builder) save(ctx context.Context, use, parent, subKey, subType string, sp map[string]any, sort int) (string, error) {
	return b.saveUID(ctx, "", use, parent, subKey, subType, sp, sort, nil)
}

func (b *Builder) saveUID(ctx context.Context, uid, use, parent, subKey, subType string, sp map[string]any, sort int, extra map[string]any) (string, error) {
	if sp == nil {
		sp = map[string]any{}
	}
	created, err := b.nb.SaveFlowModel(ctx, nbclient.SaveFlowModelRequest{
		UID:        uid,
		Use:        use,
		ParentID:   parent,
		SubKey:     subKey,
		SubType:    subType,
		StepParams: sp,
		SortIndex:  sort,
		Extra:      extra,
	})
	if err != nil {
		return "", fmt.Errorf("save %s under %s: %w", use, parent, err)
	}
	return created, nil
}

// ── Field primitives ─────────────────────────────────────────

// Col creates a table column for a collection field, inferring the
// display model from the field interface. When click is set, the column
// becomes click-to-open with a drawer view attached to the field UID.
// Returns the column UID and the display field UID.
func (b *Builder) Col(ctx context.Context, tbl, coll, field string, idx int, click bool, width int) (string, string, error) {
	iface := b.iface(ctx, coll, field)
	display := DisplayModel(iface)
	colUID, fieldUID := nbclient.NewUID(), nbclient.NewUID()

	colSP := map[string]any{
		"fieldSettings":       map[string]any{"init": map[string]any{"dataSourceKey": "main", "collectionName": coll, "fieldPath": field}},
		"tableColumnSettings": map[string]any{"model": map[string]any{"use": display}},
	}
	if width > 0 {
		colSP["tableColumnSettings"].(map[string]any)["width"] = map[string]any{"width": width}
	}
	if _, err := b.saveUID(ctx, colUID, "TableColumnModel", tbl, "columns", "array", colSP, idx, nil); err != nil {
		return "", "", err
	}

	openView := map[string]any{"collectionName": coll, "dataSourceKey": "main"}
	fieldSP := map[string]any{"popupSettings": map[string]any{"openView": openView}}
	if iface == "m2o" {
		if t := b.target(ctx, coll, field); t != "" {
			fieldSP["displayFieldSettings"] = map[string]any{
				"fieldNames": map[string]any{"label": b.labelField(ctx, t)},
			}
		}
	}
	if click {
		openView["mode"] = "drawer"
		openView["size"] = "large"
		openView["pageModelClass"] = "ChildPageModel"
		openView["uid"] = fieldUID
		dfs, ok := fieldSP["displayFieldSettings"].(map[string]any)
		if !ok {
			dfs = map[string]any{}
			fieldSP["displayFieldSettings"] = dfs
		}
		dfs["clickToOpen"] = map[string]any{"clickToOpen": true}
	}
	if _, err := b.saveUID(ctx, fieldUID, display, colUID, "field", "object", fieldSP, 0, nil); err != nil {
		return "", "", err
	}
	return colUID, fieldUID, nil
}

// FieldProps are per-field overrides for form items.
type FieldProps struct {
	DefaultValue any    `json:"defaultValue,omitempty"`
	Description  string `json:"description,omitempty"`
	Tooltip      string `json:"tooltip,omitempty"`
	Placeholder  string `json:"placeholder,omitempty"`
	Hidden       bool   `json:"hidden,omitempty"`
	Disabled     bool   `json:"disabled,omitempty"`
	Pattern      string `json:"pattern,omitempty"`
}

// FormField creates an editable form item for a collection field.
// Returns the FormItemModel UID.
func (b *Builder) FormField(ctx context.Context, grid, coll, field string, idx int, required bool, props *FieldProps) (string, error) {
	iface := b.iface(ctx, coll, field)
	edit := EditModel(iface)
	itemUID, fieldUID := nbclient.NewUID(), nbclient.NewUID()

	sp := map[string]any{
		"fieldSettings": map[string]any{"init": map[string]any{"dataSourceKey": "main", "collectionName": coll, "fieldPath": field}},
	}
	eis := map[string]any{}
	if required {
		eis["required"] = map[string]any{"required": true}
	}
	if props != nil {
		if props.DefaultValue != nil {
			eis["initialValue"] = map[string]any{"defaultValue": props.DefaultValue}
		}
		if props.Description != "" {
			eis["description"] = map[string]any{"description": props.Description}
		}
		if props.Tooltip != "" {
			eis["tooltip"] = map[string]any{"tooltip": props.Tooltip}
		}
		if props.Placeholder != "" {
			eis["placeholder"] = map[string]any{"placeholder": props.Placeholder}
		}
		if props.Hidden {
			eis["hidden"] = map[string]any{"hidden": true}
		}
		if props.Disabled {
			eis["disabled"] = map[string]any{"disabled": true}
		}
		if props.Pattern != "" {
			eis["pattern"] = map[string]any{"pattern": props.Pattern}
		}
	}
	if len(eis) > 0 {
		sp["editItemSettings"] = eis
	}
	if _, err := b.saveUID(ctx, itemUID, "FormItemModel", grid, "items", "array", sp, idx, nil); err != nil {
		return "", err
	}
	if _, err := b.saveUID(ctx, fieldUID, edit, itemUID, "field", "object", nil, 0, nil); err != nil {
		return "", err
	}
	return itemUID, nil
}

// DetailField creates a read-only detail item for a collection field.
// Returns the DetailsItemModel UID.
func (b *Builder) DetailField(ctx context.Context, grid, coll, field string, idx int) (string, error) {
	iface := b.iface(ctx, coll, field)
	display := DisplayModel(iface)
	itemUID, fieldUID := nbclient.NewUID(), nbclient.NewUID()

	settings := map[string]any{"model": map[string]any{"use": display}}
	if iface == "m2o" {
		if t := b.target(ctx, coll, field); t != "" {
			settings["fieldNames"] = map[string]any{"label": b.labelField(ctx, t)}
		}
	}
	sp := map[string]any{
		"fieldSettings":      map[string]any{"init": map[string]any{"dataSourceKey": "main", "collectionName": coll, "fieldPath": field}},
		"detailItemSettings": settings,
	}
	if _, err := b.saveUID(ctx, itemUID, "DetailsItemModel", grid, "items", "array", sp, idx, nil); err != nil {
		return "", err
	}
	if _, err := b.saveUID(ctx, fieldUID, display, itemUID, "field", "object", nil, 0, nil); err != nil {
		return "", err
	}
	return itemUID, nil
}

// ── Grid construction ────────────────────────────────────────

// dividerStepParams renders a labelled section divider.
func dividerStepParams(label string) map[string]any {
	if label == "" {
		return map[string]any{}
	}
	return map[string]any{"markdownItemSetting": map[string]any{"title": map[string]any{
		"label": label, "orientation": "left",
		"color":       "rgba(0, 0, 0, 0.88)",
		"borderColor": "rgba(5, 5, 5, 0.06)",
	}}}
}

// buildItemGrid walks layout items and creates one child per field via
// makeField, laying dividers and markdown lines full-width. It then
// writes the resulting gridSettings onto the grid model.
func (b *Builder) buildItemGrid(ctx context.Context, grid string, items []layoutItem,
	makeField func(ctx context.Context, field string, idx int) (string, error)) error {

	rows := NewOrderedMap()
	sizes := NewOrderedMap()
	sortIdx := 0

	for _, item := range items {
		rowID := nbclient.NewUID()
		switch item.kind {
		case layoutDivider:
			du, err := b.save(ctx, "DividerItemModel", grid, "items", "array", dividerStepParams(item.label), sortIdx)
			if err != nil {
				return err
			}
			rows.Set(rowID, [][]string{{du}})
			sizes.Set(rowID, []int{24})
			sortIdx++
		case layoutMarkdown:
			mu, err := b.save(ctx, "MarkdownItemModel", grid, "items", "array", map[string]any{
				"markdownBlockSettings": map[string]any{"editMarkdown": map[string]any{"content": item.content}},
			}, sortIdx)
			if err != nil {
				return err
			}
			rows.Set(rowID, [][]string{{mu}})
			sizes.Set(rowID, []int{24})
			sortIdx++
		case layoutRowItem:
			cols := make([][]string, 0, len(item.cols))
			spans := make([]int, 0, len(item.cols))
			for _, col := range item.cols {
				fieldUID, err := makeField(ctx, col.name, sortIdx)
				if err != nil {
					return err
				}
				cols = append(cols, []string{fieldUID})
				spans = append(spans, col.span)
				sortIdx++
			}
			rows.Set(rowID, cols)
			sizes.Set(rowID, spans)
		}
	}

	gs := map[string]any{"gridSettings": map[string]any{"grid": map[string]any{"rows": rows, "sizes": sizes}}}
	return b.nb.UpdateFlowModel(ctx, grid, map[string]any{"stepParams": gs})
}

// buildFormGrid populates a FormGridModel from a layout DSL.
func (b *Builder) buildFormGrid(ctx context.Context, grid, coll, dsl string, required map[string]bool, props map[string]FieldProps) error {
	items, autoRequired := parseFieldLayout(dsl)
	if required == nil {
		required = map[string]bool{}
	}
	for f := range autoRequired {
		required[f] = true
	}
	return b.buildItemGrid(ctx, grid, items, func(ctx context.Context, field string, idx int) (string, error) {
		var fp *FieldProps
		if p, ok := props[field]; ok {
			fp = &p
		}
		return b.FormField(ctx, grid, coll, field, idx, required[field], fp)
	})
}

// buildDetailGrid populates a DetailsGridModel from a layout DSL.
func (b *Builder) buildDetailGrid(ctx context.Context, grid, coll, dsl string) error {
	items, _ := parseFieldLayout(dsl)
	return b.buildItemGrid(ctx, grid, items, func(ctx context.Context, field string, idx int) (string, error) {
		return b.DetailField(ctx, grid, coll, field, idx)
	})
}
