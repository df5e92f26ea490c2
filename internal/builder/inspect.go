package builder

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// PageNode is one node of a page's FlowModel tree.
type PageNode struct {
	UID        string         `json:"uid"`
	Use        string         `json:"use"`
	SubKey     string         `json:"subKey"`
	SortIndex  int            `json:"sortIndex"`
	StepParams map[string]any `json:"stepParams"`
	Children   []*PageNode    `json:"children"`
}

// PageSummary is one sidebar page with its content tab.
type PageSummary struct {
	Title   string `json:"title"`
	Path    string `json:"path"`
	TabUID  string `json:"tab_uid"`
	RouteID int    `json:"route_id"`
}

// Inspector reads the FlowModel and route trees for page maintenance:
// showing structure, locating nodes, listing pages. It snapshots both
// lists once per instance.
type Inspector struct {
	b      *Builder
	models []map[string]any
	routes []map[string]any
}

func (b *Builder) Inspector() *Inspector { return &Inspector{b: b} }

func (i *Inspector) loadModels(ctx context.Context) ([]map[string]any, error) {
	if i.models != nil {
		return i.models, nil
	}
	models, err := i.b.nb.ListFlowModels(ctx)
	if err != nil {
		return nil, err
	}
	i.models = models
	return models, nil
}

func (i *Inspector) loadRoutes(ctx context.Context) ([]map[string]any, error) {
	if i.routes != nil {
		return i.routes, nil
	}
	routes, err := i.b.nb.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}
	i.routes = routes
	return routes, nil
}

func (i *Inspector) childrenMap(ctx context.Context) (map[string][]map[string]any, error) {
	models, err := i.loadModels(ctx)
	if err != nil {
		return nil, err
	}
	cm := map[string][]map[string]any{}
	for _, m := range models {
		if pid, _ := m["parentId"].(string); pid != "" {
			cm[pid] = append(cm[pid], m)
		}
	}
	return cm, nil
}

// ModelByUID returns the raw model record, or nil when absent.
func (i *Inspector) ModelByUID(ctx context.Context, uid string) (map[string]any, error) {
	models, err := i.loadModels(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if m["uid"] == uid {
			return m, nil
		}
	}
	return nil, nil
}

// Children returns the direct children of a model, optionally filtered
// by subKey.
func (i *Inspector) Children(ctx context.Context, uid, subKey string) ([]map[string]any, error) {
	cm, err := i.childrenMap(ctx)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for _, c := range cm[uid] {
		if subKey != "" && c["subKey"] != subKey {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// FindTabUID resolves a sidebar page title to its content tab UID.
// Empty string means the page was not found.
func (i *Inspector) FindTabUID(ctx context.Context, pageTitle string) (string, error) {
	routes, err := i.loadRoutes(ctx)
	if err != nil {
		return "", err
	}
	for _, rt := range routes {
		if found := searchRoute(rt, pageTitle); found != "" {
			return found, nil
		}
	}
	return "", nil
}

func searchRoute(route map[string]any, title string) string {
	children := routeChildren(route)
	if route["title"] == title && route["type"] == "flowPage" {
		for _, c := range children {
			if c["type"] == "tabs" {
				if uid, _ := c["schemaUid"].(string); uid != "" {
					return uid
				}
			}
		}
		for _, c := range children {
			if uid, _ := c["schemaUid"].(string); uid != "" {
				return uid
			}
		}
	}
	for _, c := range children {
		if found := searchRoute(c, title); found != "" {
			return found
		}
	}
	return ""
}

func routeChildren(route map[string]any) []map[string]any {
	raw, _ := route["children"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Tree builds the FlowModel tree rooted at a UID, children ordered by
// sort index.
func (i *Inspector) Tree(ctx context.Context, rootUID string) (*PageNode, error) {
	cm, err := i.childrenMap(ctx)
	if err != nil {
		return nil, err
	}
	return i.buildTree(ctx, rootUID, cm)
}

func (i *Inspector) buildTree(ctx context.Context, uid string, cm map[string][]map[string]any) (*PageNode, error) {
	model, err := i.ModelByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	node := &PageNode{UID: uid, Use: "?"}
	if model != nil {
		if use, _ := model["use"].(string); use != "" {
			node.Use = use
		}
		node.SubKey, _ = model["subKey"].(string)
		node.SortIndex = intField(model, "sortIndex")
		node.StepParams, _ = model["stepParams"].(map[string]any)
	}

	children := append([]map[string]any(nil), cm[uid]...)
	sort.SliceStable(children, func(a, b int) bool {
		return intField(children[a], "sortIndex") < intField(children[b], "sortIndex")
	})
	for _, c := range children {
		childUID, _ := c["uid"].(string)
		child, err := i.buildTree(ctx, childUID, cm)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// FormatTree renders a tree as indented text with the details a page
// maintainer needs: model class, UID, and bound field or collection.
func FormatTree(node *PageNode) string {
	var lines []string
	formatTree(node, 0, &lines)
	return strings.Join(lines, "\n")
}

func formatTree(node *PageNode, depth int, lines *[]string) {
	var info []string
	sp := node.StepParams
	if fs := nestedMap(sp, "fieldSettings", "init"); fs != nil {
		if fp, _ := fs["fieldPath"].(string); fp != "" {
			info = append(info, "field="+fp)
		}
		if cn, _ := fs["collectionName"].(string); cn != "" {
			info = append(info, "coll="+cn)
		}
	}
	if rs := nestedMap(sp, "resourceSettings", "init"); rs != nil {
		if cn, _ := rs["collectionName"].(string); cn != "" {
			info = append(info, "coll="+cn)
		}
	}
	if cs := nestedMap(sp, "cardSettings", "titleDescription"); cs != nil {
		if t, _ := cs["title"].(string); t != "" {
			info = append(info, "title="+t)
		}
	}
	if ts := nestedMap(sp, "tableColumnSettings", "title"); ts != nil {
		if t, _ := ts["title"].(string); t != "" {
			info = append(info, "title="+t)
		}
	}
	detail := ""
	if len(info) > 0 {
		detail = " (" + strings.Join(info, ", ") + ")"
	}
	*lines = append(*lines, fmt.Sprintf("%s%s [%s]%s",
		strings.Repeat("  ", depth), node.Use, node.UID, detail))
	for _, child := range node.Children {
		formatTree(child, depth+1, lines)
	}
}

// blockClasses maps the short block names accepted by locate to
// FlowModel classes.
var blockClasses = map[string]string{
	"table": "TableBlockModel", "addnew": "AddNewActionModel",
	"edit": "EditActionModel", "filter": "FilterFormModel",
	"details": "DetailsBlockModel", "form_create": "CreateFormModel",
	"form_edit": "EditFormModel",
}

// Locate finds a node in a page by block type and/or field name.
// Returns empty when nothing matches.
func (i *Inspector) Locate(ctx context.Context, pageTitle, block, field string) (string, error) {
	tabUID, err := i.FindTabUID(ctx, pageTitle)
	if err != nil {
		return "", err
	}
	if tabUID == "" {
		return "", nil
	}
	tree, err := i.Tree(ctx, tabUID)
	if err != nil {
		return "", err
	}
	return findInTree(tree, block, field), nil
}

func findInTree(node *PageNode, block, field string) string {
	if block != "" && field == "" {
		target := block
		if cls, ok := blockClasses[block]; ok {
			target = cls
		}
		if node.Use == target {
			return node.UID
		}
	}
	if field != "" {
		if fs := nestedMap(node.StepParams, "fieldSettings", "init"); fs != nil {
			if fp, _ := fs["fieldPath"].(string); fp == field {
				return node.UID
			}
		}
	}
	for _, child := range node.Children {
		if found := findInTree(child, block, field); found != "" {
			return found
		}
	}
	return ""
}

// Pages walks the route tree and returns every flowPage with its path
// and content tab.
func (i *Inspector) Pages(ctx context.Context) ([]PageSummary, error) {
	routes, err := i.loadRoutes(ctx)
	if err != nil {
		return nil, err
	}
	var out []PageSummary
	collectPages(routes, "", &out)
	return out, nil
}

func collectPages(routes []map[string]any, prefix string, out *[]PageSummary) {
	for _, rt := range routes {
		title, _ := rt["title"].(string)
		path := title
		if prefix != "" {
			path = prefix + "/" + title
		}
		if rt["type"] == "flowPage" {
			tabUID := ""
			for _, c := range routeChildren(rt) {
				if c["type"] == "tabs" {
					if uid, _ := c["schemaUid"].(string); uid != "" {
						tabUID = uid
						break
					}
				}
			}
			*out = append(*out, PageSummary{
				Title: title, Path: path, TabUID: tabUID, RouteID: intField(rt, "id"),
			})
		}
		collectPages(routeChildren(rt), path, out)
	}
}

// FormatRouteTree renders the sidebar route tree for display.
func FormatRouteTree(routes []map[string]any) string {
	var lines []string
	formatRouteTree(routes, 0, &lines)
	return strings.Join(lines, "\n")
}

func formatRouteTree(routes []map[string]any, depth int, lines *[]string) {
	for _, rt := range routes {
		title, _ := rt["title"].(string)
		if title == "" {
			title = "(untitled)"
		}
		rtype, _ := rt["type"].(string)
		entry := fmt.Sprintf("%s[%d] %s (%s)", strings.Repeat("  ", depth), intField(rt, "id"), title, rtype)
		if uid, _ := rt["schemaUid"].(string); uid != "" {
			entry += " uid=" + uid
		}
		*lines = append(*lines, entry)
		formatRouteTree(routeChildren(rt), depth+1, lines)
	}
}

func nestedMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		next, ok := m[k].(map[string]any)
		if !ok {
			return nil
		}
		m = next
	}
	return m
}
