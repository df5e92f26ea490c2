package builder

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldRef(t *testing.T) {
	tests := []struct {
		ref      string
		name     string
		width    int
		required bool
	}{
		{"name", "name", 0, false},
		{"name*", "name", 0, true},
		{"name:16", "name", 16, false},
		{"name*:16", "name", 16, true},
		{"  code  ", "code", 0, false},
	}
	for _, tt := range tests {
		name, width, required := parseFieldRef(tt.ref)
		assert.Equal(t, tt.name, name, tt.ref)
		assert.Equal(t, tt.width, width, tt.ref)
		assert.Equal(t, tt.required, required, tt.ref)
	}
}

func TestParseFieldLayout_PipeRows(t *testing.T) {
	items, required := parseFieldLayout("name* | code\nstatus")
	require.Len(t, items, 2)

	assert.Equal(t, layoutRowItem, items[0].kind)
	require.Len(t, items[0].cols, 2)
	assert.Equal(t, "name", items[0].cols[0].name)
	assert.Equal(t, 12, items[0].cols[0].span)
	assert.Equal(t, "code", items[0].cols[1].name)
	assert.Equal(t, 12, items[0].cols[1].span)

	require.Len(t, items[1].cols, 1)
	assert.Equal(t, "status", items[1].cols[0].name)
	assert.Equal(t, 24, items[1].cols[0].span)

	assert.True(t, required["name"])
	assert.False(t, required["code"])
}

func TestParseFieldLayout_ExplicitWidths(t *testing.T) {
	items, _ := parseFieldLayout("name:16 | code:8")
	require.Len(t, items, 1)
	assert.Equal(t, 16, items[0].cols[0].span)
	assert.Equal(t, 8, items[0].cols[1].span)
}

func TestParseFieldLayout_DividersAndMarkdown(t *testing.T) {
	items, _ := parseFieldLayout("--- Basic Info\nname\n---\n# A note")
	require.Len(t, items, 4)

	assert.Equal(t, layoutDivider, items[0].kind)
	assert.Equal(t, "Basic Info", items[0].label)

	assert.Equal(t, layoutRowItem, items[1].kind)

	assert.Equal(t, layoutDivider, items[2].kind)
	assert.Equal(t, "", items[2].label)

	assert.Equal(t, layoutMarkdown, items[3].kind)
	assert.Equal(t, "# A note", items[3].content)
}

func TestParseFieldLayout_ThreeColumnsAutoSpan(t *testing.T) {
	items, _ := parseFieldLayout("a | b | c")
	require.Len(t, items, 1)
	for _, col := range items[0].cols {
		assert.Equal(t, 8, col.span)
	}
}

func TestFieldNamesFromLayout(t *testing.T) {
	names := fieldNamesFromLayout("--- Section\nname* | code\nstatus:8")
	assert.Equal(t, []string{"name", "code", "status"}, names)
}

func TestBlockGridSettings(t *testing.T) {
	rowIDs := []string{"row1", "row2"}
	next := func() string {
		id := rowIDs[0]
		rowIDs = rowIDs[1:]
		return id
	}

	gs := blockGridSettings([]LayoutRow{
		{{Blocks: []string{"kpi1"}, Span: 6}, {Blocks: []string{"kpi2"}, Span: 6}},
		{{Blocks: []string{"tbl1"}}},
	}, next)

	grid := gs["grid"].(map[string]any)
	rows := grid["rows"].(*OrderedMap)
	sizes := grid["sizes"].(*OrderedMap)

	cols, ok := rows.Get("row1")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"kpi1"}, {"kpi2"}}, cols)
	spans, _ := sizes.Get("row1")
	assert.Equal(t, []int{6, 6}, spans)
	// Omitted span defaults to full width.
	spans, _ = sizes.Get("row2")
	assert.Equal(t, []int{24}, spans)
}

func TestBlockGridSettings_MarshalKeepsRowOrder(t *testing.T) {
	// Row IDs are random UIDs, so an ID that sorts before an earlier
	// row's ID must still marshal after it. NocoBase renders rows in
	// object key order.
	rowIDs := []string{"zzzzzzzzzz1", "aaaaaaaaaa1"}
	next := func() string {
		id := rowIDs[0]
		rowIDs = rowIDs[1:]
		return id
	}

	gs := blockGridSettings([]LayoutRow{
		{{Blocks: []string{"blockTop"}}},
		{{Blocks: []string{"blockBottom"}}},
	}, next)

	out, err := json.Marshal(gs)
	require.NoError(t, err)
	first := strings.Index(string(out), "zzzzzzzzzz1")
	second := strings.Index(string(out), "aaaaaaaaaa1")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestEvenSpans(t *testing.T) {
	assert.Equal(t, []int{24}, evenSpans(1))
	assert.Equal(t, []int{12, 12}, evenSpans(2))
	// Remainder lands on the last column so rows always total 24.
	assert.Equal(t, []int{8, 8, 8}, evenSpans(3))
	assert.Equal(t, []int{4, 4, 4, 4, 4, 4}, evenSpans(6))
	spans := evenSpans(5)
	total := 0
	for _, s := range spans {
		total += s
	}
	assert.Equal(t, 24, total)
}

func TestFieldUpdatePayload(t *testing.T) {
	precision := 2
	payload := FieldUpdatePayload("unit_price", "number", FieldUpgradeOptions{Precision: &precision}, "")
	require.NotNil(t, payload)
	assert.Equal(t, "number", payload["interface"])

	schema := payload["uiSchema"].(map[string]any)
	assert.Equal(t, "Unit Price", schema["title"])
	props := schema["x-component-props"].(map[string]any)
	assert.Equal(t, "0.01", props["step"])
}

func TestFieldUpdatePayload_EnumAndTitle(t *testing.T) {
	enum := []any{map[string]any{"value": "active", "label": "Active"}}
	payload := FieldUpdatePayload("status", "select", FieldUpgradeOptions{Enum: enum, Title: "State"}, "Old Title")
	require.NotNil(t, payload)
	schema := payload["uiSchema"].(map[string]any)
	assert.Equal(t, "State", schema["title"])
	assert.Equal(t, enum, schema["enum"])
}

func TestFieldUpdatePayload_ExistingTitleWins(t *testing.T) {
	payload := FieldUpdatePayload("status", "select", FieldUpgradeOptions{}, "Kept")
	schema := payload["uiSchema"].(map[string]any)
	assert.Equal(t, "Kept", schema["title"])
}

func TestFieldUpdatePayload_UnknownInterface(t *testing.T) {
	assert.Nil(t, FieldUpdatePayload("x", "no-such-interface", FieldUpgradeOptions{}, ""))
}

func TestFieldUpdatePayload_TemplateNotMutated(t *testing.T) {
	first := FieldUpdatePayload("status", "select", FieldUpgradeOptions{
		Enum: []any{map[string]any{"value": "a"}},
	}, "")
	require.NotNil(t, first)

	second := FieldUpdatePayload("status", "select", FieldUpgradeOptions{}, "")
	schema := second["uiSchema"].(map[string]any)
	assert.Empty(t, schema["enum"], "enum from an earlier call leaked into the shared template")
}

func TestDisplayAndEditModelFallbacks(t *testing.T) {
	assert.Equal(t, "DisplayEnumFieldModel", DisplayModel("select"))
	assert.Equal(t, "DisplayTextFieldModel", DisplayModel("somethingelse"))
	assert.Equal(t, "DateTimeTzFieldModel", EditModel("datetime"))
	assert.Equal(t, "InputFieldModel", EditModel("somethingelse"))
}

func TestRelationFieldType(t *testing.T) {
	assert.Equal(t, "belongsTo", RelationFieldType("m2o"))
	assert.Equal(t, "hasMany", RelationFieldType("o2m"))
	assert.Equal(t, "belongsToMany", RelationFieldType("m2m"))
	assert.Equal(t, "hasOne", RelationFieldType("o2o"))
	assert.Equal(t, "belongsTo", RelationFieldType("belongsTo"))
}

func TestTitleFromName(t *testing.T) {
	assert.Equal(t, "Unit Price", TitleFromName("unit_price"))
	assert.Equal(t, "Name", TitleFromName("name"))
}

func TestSystemFieldPayloads(t *testing.T) {
	payloads := SystemFieldPayloads()
	require.Len(t, payloads, 4)
	names := map[string]bool{}
	for _, p := range payloads {
		names[p["name"].(string)] = true
	}
	for _, want := range []string{"createdAt", "updatedAt", "createdBy", "updatedBy"} {
		assert.True(t, names[want], fmt.Sprintf("missing system field %s", want))
	}
}
