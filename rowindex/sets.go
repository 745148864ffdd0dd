package rowindex

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// IntersectSets computes the AND across dimensions. Nil entries mean "this
// dimension imposes no constraint" and are dropped before the meet; when no
// constrained sets remain the result is EMPTY, not "everything"; a caller
// wanting all rows for a filterless query must special-case that above this
// function.
// The smallest set drives the intersection and the loop short-circuits as
// soon as the running result empties. Inputs are never mutated; the result is
// independent of input order.
func IntersectSets(sets []*roaring.Bitmap) *roaring.Bitmap {
	live := make([]*roaring.Bitmap, 0, len(sets))
	for _, s := range sets {
		if s == nil {
			continue
		}
		if s.IsEmpty() {
			// An empty constraint excludes every row.
			return roaring.New()
		}
		live = append(live, s)
	}
	if len(live) == 0 {
		return roaring.New()
	}

	sort.Slice(live, func(i, j int) bool {
		return live[i].GetCardinality() < live[j].GetCardinality()
	})

	out := live[0].Clone()
	for _, s := range live[1:] {
		out.And(s)
		if out.IsEmpty() {
			break
		}
	}
	return out
}

// UnionSets computes the OR of any number of optional sets. Nil entries
// contribute nothing; all-nil or empty input yields an empty set. Inputs are
// never mutated.
func UnionSets(sets []*roaring.Bitmap) *roaring.Bitmap {
	out := roaring.New()
	for _, s := range sets {
		if s == nil {
			continue
		}
		out.Or(s)
	}
	return out
}

// SetForSelection resolves a user's multi-value selection for one dimension
// into a position set, ORing the posting sets of every selected value.
//
// The three filter states are kept explicit through the comma-ok return:
//
//	ok == false              → no constraint (selection empty after
//	                           normalization); the dimension must be left out
//	                           of the intersection, not treated as empty.
//	ok == true, empty set    → constraint that matches nothing; a valid input
//	                           to IntersectSets that zeroes the result.
//	ok == true, non-empty    → constraint matching exactly these positions.
//
// Selected values are normalized with Normalize (the same function the index
// was built with) and de-duplicated; values absent from the index simply add
// nothing.
func SetForSelection(ix ColumnIndex, values []string) (*roaring.Bitmap, bool) {
	seen := make(map[string]struct{}, len(values))
	keys := make([]string, 0, len(values))
	for _, v := range values {
		k := Normalize(v)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, false
	}

	out := roaring.New()
	for _, k := range keys {
		if set, ok := ix[k]; ok && !set.IsEmpty() {
			out.Or(set)
		}
	}
	return out, true
}

// FilterByIndexSet materializes the rows whose positions are in set,
// preserving the original slice order. Roaring iterators yield positions in
// ascending order, so appending in iteration order keeps the input's relative
// ordering. Positions outside the slice are skipped; a nil or empty set
// returns an empty slice immediately.
func FilterByIndexSet[T any](rows []T, set *roaring.Bitmap) []T {
	out := []T{}
	if set == nil || set.IsEmpty() {
		return out
	}
	it := set.Iterator()
	for it.HasNext() {
		pos := it.Next()
		if int(pos) >= len(rows) {
			break
		}
		out = append(out, rows[pos])
	}
	return out
}
