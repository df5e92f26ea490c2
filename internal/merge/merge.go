// Package merge implements the deep-merge policy used when updating
// remote configuration objects whose update endpoints have full-replace
// semantics (NocoBase flowModels:update being the main one).
//
// A caller that wants to change a single nested field cannot send a
// partial payload — the endpoint would erase every field it omits. The
// safe protocol is read-merge-write: fetch the full current object,
// merge the partial change set onto it, and submit the whole result.
// This package is the merge step; the protocol lives in nbclient.
//
// Merge policy:
//   - mapping onto mapping: recursive merge, patch keys win;
//   - sequence onto anything: wholesale replacement — layout arrays
//     (grid rows, column sets) carry position and membership meaning,
//     so element-wise splicing would silently corrupt them;
//   - scalar or mismatched types: patch value replaces outright.
package merge

// Merge combines patch onto base and returns a fresh map. Neither input
// is mutated: a caller whose write is rejected with a conflict must be
// able to re-run the whole read-merge-write cycle with its original
// patch intact.
func Merge(base, patch map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		result[k] = v
	}
	for k, pv := range patch {
		bv, exists := result[k]
		if exists {
			bm, baseIsMap := bv.(map[string]any)
			pm, patchIsMap := pv.(map[string]any)
			if baseIsMap && patchIsMap {
				result[k] = Merge(bm, pm)
				continue
			}
		}
		result[k] = cloneValue(pv)
	}
	return result
}

// Clone returns a deep copy of m. Useful for handing out mutable copies
// of shared template maps.
func Clone(m map[string]any) map[string]any {
	return Merge(map[string]any{}, m)
}

// cloneValue copies sequences and mappings so the merged result never
// aliases the patch. Scalars are returned as-is.
func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return Merge(map[string]any{}, tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
