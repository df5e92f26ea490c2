package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_DisjointKeys(t *testing.T) {
	base := map[string]any{"a": 1, "b": "two"}
	patch := map[string]any{"c": true}

	got := Merge(base, patch)

	assert.Equal(t, map[string]any{"a": 1, "b": "two", "c": true}, got)
}

func TestMerge_OverlappingScalar_PatchWins(t *testing.T) {
	base := map[string]any{"a": 1, "b": 2}
	patch := map[string]any{"b": 99}

	got := Merge(base, patch)

	assert.Equal(t, 99, got["b"])
	assert.Equal(t, 1, got["a"])
}

func TestMerge_Sequences_ReplacedWholesale(t *testing.T) {
	base := map[string]any{"rows": []any{1, 2, 3}}
	patch := map[string]any{"rows": []any{9, 9}}

	got := Merge(base, patch)

	assert.Equal(t, []any{9, 9}, got["rows"])
}

func TestMerge_NestedMappings_Recurse(t *testing.T) {
	base := map[string]any{
		"settings": map[string]any{
			"grid": map[string]any{"rows": 3, "cols": 4},
			"name": "old",
		},
	}
	patch := map[string]any{
		"settings": map[string]any{
			"grid": map[string]any{"rows": 5},
		},
	}

	got := Merge(base, patch)

	settings, ok := got["settings"].(map[string]any)
	require.True(t, ok)
	grid, ok := settings["grid"].(map[string]any)
	require.True(t, ok)

	// Patched value wins; deep siblings absent from patch survive.
	assert.Equal(t, 5, grid["rows"])
	assert.Equal(t, 4, grid["cols"])
	assert.Equal(t, "old", settings["name"])
}

func TestMerge_TypeMismatch_PatchReplacesOutright(t *testing.T) {
	base := map[string]any{"v": map[string]any{"x": 1}}
	patch := map[string]any{"v": "scalar now"}

	got := Merge(base, patch)

	assert.Equal(t, "scalar now", got["v"])

	// And the other direction: scalar replaced by a mapping.
	got2 := Merge(
		map[string]any{"v": 7},
		map[string]any{"v": map[string]any{"x": 1}},
	)
	assert.Equal(t, map[string]any{"x": 1}, got2["v"])
}

func TestMerge_Idempotent(t *testing.T) {
	base := map[string]any{
		"a":    1,
		"b":    map[string]any{"x": 1, "y": 2},
		"rows": []any{1, 2, 3},
	}
	patch := map[string]any{
		"b":    map[string]any{"x": 99},
		"rows": []any{9, 9},
	}

	once := Merge(base, patch)
	twice := Merge(once, patch)

	assert.Equal(t, once, twice)
}

func TestMerge_Scenario(t *testing.T) {
	base := map[string]any{
		"a":    1,
		"b":    map[string]any{"x": 1, "y": 2},
		"rows": []any{1, 2, 3},
	}
	patch := map[string]any{
		"b":    map[string]any{"x": 99},
		"rows": []any{9, 9},
	}

	got := Merge(base, patch)

	want := map[string]any{
		"a":    1,
		"b":    map[string]any{"x": 99, "y": 2},
		"rows": []any{9, 9},
	}
	assert.Equal(t, want, got)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{
		"b":    map[string]any{"x": 1, "y": 2},
		"rows": []any{1, 2, 3},
	}
	patch := map[string]any{
		"b":    map[string]any{"x": 99},
		"rows": []any{9},
	}

	got := Merge(base, patch)

	// Inputs untouched.
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, base["b"])
	assert.Equal(t, []any{1, 2, 3}, base["rows"])
	assert.Equal(t, map[string]any{"x": 99}, patch["b"])

	// Result does not alias the patch's sequence.
	rows := got["rows"].([]any)
	rows[0] = 42
	assert.Equal(t, []any{9}, patch["rows"])
}

func TestMerge_EmptyPatch_CopiesBase(t *testing.T) {
	base := map[string]any{"a": 1, "b": map[string]any{"x": 1}}

	got := Merge(base, map[string]any{})

	assert.Equal(t, base, got)
}
