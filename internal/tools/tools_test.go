package tools

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
)

func TestExtractCreatedTables(t *testing.T) {
	sql := `
		CREATE TABLE nb_pm_projects (id BIGSERIAL PRIMARY KEY, name VARCHAR(255));
		create table if not exists nb_pm_tasks (id BIGSERIAL PRIMARY KEY);
		ALTER TABLE nb_pm_projects ADD COLUMN code VARCHAR(50);
		INSERT INTO nb_pm_projects (name) VALUES ('CREATE TABLE trap');
	`
	assert.Equal(t, []string{"nb_pm_projects", "nb_pm_tasks"}, extractCreatedTables(sql))
}

func TestExtractCreatedTables_NoDDL(t *testing.T) {
	assert.Empty(t, extractCreatedTables("SELECT * FROM nb_pm_tasks"))
}

func TestSystemColumnsSQL_QuotesTable(t *testing.T) {
	sql := systemColumnsSQL("nb_pm_tasks")
	assert.Contains(t, sql, `ALTER TABLE "nb_pm_tasks" ADD COLUMN IF NOT EXISTS "createdAt"`)
	assert.Contains(t, sql, `"updatedById" BIGINT`)
}

func TestRelationPayload_ManyToOne(t *testing.T) {
	p := relationPayload(RelationSpec{
		Field: "project", Type: "m2o", Target: "nb_pm_projects",
		ForeignKey: "project_id", Label: "name",
	})
	assert.Equal(t, "belongsTo", p["type"])
	assert.Equal(t, "m2o", p["interface"])
	assert.Equal(t, "project_id", p["foreignKey"])

	schema := p["uiSchema"].(map[string]any)
	assert.Equal(t, "Project", schema["title"])
	props := schema["x-component-props"].(map[string]any)
	names := props["fieldNames"].(map[string]any)
	assert.Equal(t, "name", names["label"])
	assert.Equal(t, "id", names["value"])

	assert.NotContains(t, p, "through")
	assert.NotContains(t, p, "otherKey")
}

func TestRelationPayload_ManyToMany(t *testing.T) {
	p := relationPayload(RelationSpec{
		Field: "tags", Type: "m2m", Target: "nb_pm_tags",
		ForeignKey: "task_id", OtherKey: "tag_id", Through: "nb_pm_task_tags",
	})
	assert.Equal(t, "belongsToMany", p["type"])
	assert.Equal(t, "tag_id", p["otherKey"])
	assert.Equal(t, "nb_pm_task_tags", p["through"])
	// Label falls back to id when unset.
	schema := p["uiSchema"].(map[string]any)
	props := schema["x-component-props"].(map[string]any)
	assert.Equal(t, "id", props["fieldNames"].(map[string]any)["label"])
}

func TestParseRowsSpec_MixedForms(t *testing.T) {
	rows, msg := parseRowsSpec(`[[["kpi1",6],["kpi2",6],["kpi3",12]],["filter1"],["tbl1"]]`)
	require.Empty(t, msg)
	require.Len(t, rows, 3)

	require.Len(t, rows[0], 3)
	assert.Equal(t, []string{"kpi1"}, rows[0][0].Blocks)
	assert.Equal(t, 6, rows[0][0].Span)
	assert.Equal(t, 12, rows[0][2].Span)

	// Single bare-UID rows keep span 0 (full width downstream).
	require.Len(t, rows[1], 1)
	assert.Equal(t, []string{"filter1"}, rows[1][0].Blocks)
	assert.Equal(t, 0, rows[1][0].Span)
}

func TestParseRowsSpec_AutoSpansBareRow(t *testing.T) {
	rows, msg := parseRowsSpec(`[["a","b","c"]]`)
	require.Empty(t, msg)
	require.Len(t, rows[0], 3)
	for _, col := range rows[0] {
		assert.Equal(t, 8, col.Span)
	}
}

func TestParseRowsSpec_Errors(t *testing.T) {
	_, msg := parseRowsSpec(`not json`)
	assert.Contains(t, msg, "rows_json")

	_, msg = parseRowsSpec(`[[123]]`)
	assert.Contains(t, msg, "row 0 col 0")

	_, msg = parseRowsSpec(`[[["uid","big"]]]`)
	assert.Contains(t, msg, "span must be a number")
}

func TestFieldPatchFromProps(t *testing.T) {
	patch := fieldPatchFromProps(map[string]any{
		"defaultValue": "open",
		"required":     true,
		"placeholder":  "Pick one",
		"unknownKey":   "ignored",
	})
	require.NotNil(t, patch)

	eis := patch["stepParams"].(map[string]any)["editItemSettings"].(map[string]any)
	assert.Equal(t, map[string]any{"defaultValue": "open"}, eis["initialValue"])
	assert.Equal(t, map[string]any{"required": true}, eis["required"])
	assert.Equal(t, map[string]any{"placeholder": "Pick one"}, eis["placeholder"])
	assert.NotContains(t, eis, "unknownKey")
}

func TestFieldPatchFromProps_NoRecognizedKeys(t *testing.T) {
	assert.Nil(t, fieldPatchFromProps(map[string]any{"bogus": 1}))
}

func TestColumnPatch(t *testing.T) {
	patch := columnPatch("Due", 140)
	require.NotNil(t, patch)
	tcs := patch["stepParams"].(map[string]any)["tableColumnSettings"].(map[string]any)
	assert.Equal(t, map[string]any{"title": "Due"}, tcs["title"])
	assert.Equal(t, map[string]any{"width": 140}, tcs["width"])

	assert.Nil(t, columnPatch("", 0))
}

func TestInsertFullWidthRow_AfterMatchedRow(t *testing.T) {
	rows := builder.NewOrderedMap()
	rows.Set("rTop", []any{[]any{"itemA"}})
	rows.Set("rMid", []any{[]any{"itemB"}, []any{"itemC"}})
	rows.Set("rBot", []any{[]any{"itemD"}})
	sizes := builder.NewOrderedMap()
	sizes.Set("rTop", []any{float64(24)})
	sizes.Set("rMid", []any{float64(12), float64(12)})
	sizes.Set("rBot", []any{float64(24)})

	newRows, newSizes := insertFullWidthRow(rows, sizes, "rNew", "itemE", "itemC")

	assert.Equal(t, []string{"rTop", "rMid", "rNew", "rBot"}, newRows.Keys())
	assert.Equal(t, []string{"rTop", "rMid", "rNew", "rBot"}, newSizes.Keys())

	cols, ok := newRows.Get("rNew")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"itemE"}}, cols)
	spans, _ := newSizes.Get("rNew")
	assert.Equal(t, []int{24}, spans)
}

func TestInsertFullWidthRow_AppendsWhenNoAnchor(t *testing.T) {
	rows := builder.NewOrderedMap()
	rows.Set("rTop", []any{[]any{"itemA"}})
	sizes := builder.NewOrderedMap()
	sizes.Set("rTop", []any{float64(24)})

	newRows, _ := insertFullWidthRow(rows, sizes, "rNew", "itemB", "")
	assert.Equal(t, []string{"rTop", "rNew"}, newRows.Keys())

	// Unknown anchor falls back to appending.
	newRows, _ = insertFullWidthRow(rows, sizes, "rNew", "itemB", "noSuchItem")
	assert.Equal(t, []string{"rTop", "rNew"}, newRows.Keys())
}

func TestInsertFullWidthRow_MarshalKeepsPlacement(t *testing.T) {
	rows := builder.NewOrderedMap()
	rows.Set("zzzzzzzzzz1", []any{[]any{"itemA"}})
	rows.Set("mmmmmmmmmm1", []any{[]any{"itemB"}})
	sizes := builder.NewOrderedMap()
	sizes.Set("zzzzzzzzzz1", []any{float64(24)})
	sizes.Set("mmmmmmmmmm1", []any{float64(24)})

	newRows, _ := insertFullWidthRow(rows, sizes, "aaaaaaaaaa1", "itemC", "itemA")

	out, err := json.Marshal(newRows)
	require.NoError(t, err)
	s := string(out)
	assert.Less(t, strings.Index(s, "zzzzzzzzzz1"), strings.Index(s, "aaaaaaaaaa1"))
	assert.Less(t, strings.Index(s, "aaaaaaaaaa1"), strings.Index(s, "mmmmmmmmmm1"))
}

func TestRowHoldsUID(t *testing.T) {
	cols := []any{[]any{"a", "b"}, []any{"c"}}
	assert.True(t, rowHoldsUID(cols, "b"))
	assert.False(t, rowHoldsUID(cols, "z"))
	assert.False(t, rowHoldsUID("not-a-row", "a"))
}

func TestDecodeJSONArg(t *testing.T) {
	var dst []builder.Tab
	assert.Empty(t, decodeJSONArg("tabs_json", `[{"title":"Info"}]`, &dst))
	require.Len(t, dst, 1)
	assert.Equal(t, "Info", dst[0].Title)

	msg := decodeJSONArg("tabs_json", `{broken`, &dst)
	assert.Contains(t, msg, "tabs_json")
}
