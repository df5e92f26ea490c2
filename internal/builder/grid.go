package builder

import (
	"strconv"
	"strings"
)

// The field layout DSL describes form and detail grids line by line:
//
//	name*            required field, full width
//	name | code      two columns, spans split evenly out of 24
//	name:16 | code:8 explicit Ant Design grid spans
//	--- Section      divider with a label
//	# Some note      markdown line rendered verbatim
type layoutItem struct {
	kind    layoutKind
	label   string // divider label
	content string // markdown content
	cols    []layoutCol
}

type layoutKind int

const (
	layoutRowItem layoutKind = iota
	layoutDivider
	layoutMarkdown
)

type layoutCol struct {
	name string
	span int
}

// parseFieldRef splits "name*:16" into its parts. The width suffix is
// parsed before the required marker, so both orders of markers work.
func parseFieldRef(ref string) (name string, width int, required bool) {
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		if w, err := strconv.Atoi(strings.TrimSpace(ref[i+1:])); err == nil {
			width = w
			ref = ref[:i]
		}
	}
	name = strings.TrimSpace(ref)
	if strings.HasSuffix(name, "*") {
		name = strings.TrimSpace(strings.TrimSuffix(name, "*"))
		required = true
	}
	return name, width, required
}

// parseFieldLayout parses the DSL into layout items plus the set of
// fields marked required with "*".
func parseFieldLayout(dsl string) ([]layoutItem, map[string]bool) {
	var items []layoutItem
	required := map[string]bool{}

	for _, line := range strings.Split(strings.TrimSpace(dsl), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "---"):
			items = append(items, layoutItem{
				kind:  layoutDivider,
				label: strings.TrimSpace(strings.TrimPrefix(line, "---")),
			})
		case strings.HasPrefix(line, "#"):
			items = append(items, layoutItem{kind: layoutMarkdown, content: line})
		default:
			parts := strings.Split(line, "|")
			autoSpan := 24 / len(parts)
			var cols []layoutCol
			for _, part := range parts {
				name, width, req := parseFieldRef(part)
				if name == "" {
					continue
				}
				if req {
					required[name] = true
				}
				if width == 0 {
					width = autoSpan
				}
				cols = append(cols, layoutCol{name: name, span: width})
			}
			if len(cols) > 0 {
				items = append(items, layoutItem{kind: layoutRowItem, cols: cols})
			}
		}
	}
	return items, required
}

// fieldNamesFromLayout extracts just the field names from a DSL string,
// for callers that want a flat column list (sub-tables).
func fieldNamesFromLayout(dsl string) []string {
	items, _ := parseFieldLayout(dsl)
	var names []string
	for _, it := range items {
		if it.kind != layoutRowItem {
			continue
		}
		for _, c := range it.cols {
			names = append(names, c.name)
		}
	}
	return names
}

// LayoutCol is one column of a block grid row: the stacked block UIDs
// plus its Ant Design span.
type LayoutCol struct {
	Blocks []string
	Span   int
}

// LayoutRow is one row of a block grid.
type LayoutRow []LayoutCol

// blockGridSettings renders rows into the gridSettings value stored on
// BlockGridModel stepParams.
func blockGridSettings(rowsSpec []LayoutRow, newRowID func() string) map[string]any {
	rows := NewOrderedMap()
	sizes := NewOrderedMap()
	for _, row := range rowsSpec {
		if len(row) == 0 {
			continue
		}
		rowID := newRowID()
		cols := make([][]string, 0, len(row))
		spans := make([]int, 0, len(row))
		for _, col := range row {
			cols = append(cols, col.Blocks)
			span := col.Span
			if span == 0 {
				span = 24
			}
			spans = append(spans, span)
		}
		rows.Set(rowID, cols)
		sizes.Set(rowID, spans)
	}
	return map[string]any{"grid": map[string]any{"rows": rows, "sizes": sizes}}
}

// EvenSpans splits the 24-unit grid across n columns, giving the last
// column the remainder.
func EvenSpans(n int) []int {
	return evenSpans(n)
}

func evenSpans(n int) []int {
	spans := make([]int, n)
	total := 0
	for i := 0; i < n; i++ {
		spans[i] = 24 / n
		total += spans[i]
	}
	spans[n-1] += 24 - total
	return spans
}
