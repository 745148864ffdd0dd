package rowindex

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitmapOf(vals ...uint32) *roaring.Bitmap {
	return roaring.BitmapOf(vals...)
}

func TestIntersectSets(t *testing.T) {
	a := bitmapOf(0, 1, 2, 5)
	b := bitmapOf(0, 2, 7)
	c := bitmapOf(2, 5, 9)

	got := IntersectSets([]*roaring.Bitmap{a, b, c})
	assert.Equal(t, []uint32{2}, got.ToArray())

	// Inputs must not be mutated.
	assert.Equal(t, []uint32{0, 1, 2, 5}, a.ToArray())
	assert.Equal(t, []uint32{0, 2, 7}, b.ToArray())
}

func TestIntersectSetsCommutative(t *testing.T) {
	a := bitmapOf(0, 2)
	b := bitmapOf(0, 1)
	ab := IntersectSets([]*roaring.Bitmap{a, b})
	ba := IntersectSets([]*roaring.Bitmap{b, a})
	assert.Equal(t, ab.ToArray(), ba.ToArray())
	assert.Equal(t, []uint32{0}, ab.ToArray())
}

func TestIntersectSetsEmptyInputYieldsEmpty(t *testing.T) {
	// Zero constrained sets is NOT "everything": callers wanting "no filters
	// at all → all rows" must short-circuit above IntersectSets.
	got := IntersectSets(nil)
	assert.True(t, got.IsEmpty())

	got = IntersectSets([]*roaring.Bitmap{nil, nil})
	assert.True(t, got.IsEmpty())
}

func TestIntersectSetsDropsNilButHonorsEmpty(t *testing.T) {
	a := bitmapOf(0, 1, 2)

	// Nil means unconstrained: it is excluded from the meet.
	got := IntersectSets([]*roaring.Bitmap{nil, a, nil})
	assert.Equal(t, []uint32{0, 1, 2}, got.ToArray())

	// An explicit empty set is a real constraint that matches nothing.
	got = IntersectSets([]*roaring.Bitmap{a, roaring.New()})
	assert.True(t, got.IsEmpty())
}

func TestUnionSets(t *testing.T) {
	a := bitmapOf(0, 1)
	b := bitmapOf(2)

	got := UnionSets([]*roaring.Bitmap{a, nil, b})
	assert.Equal(t, []uint32{0, 1, 2}, got.ToArray())

	want := UnionSets([]*roaring.Bitmap{a, b})
	assert.Equal(t, want.ToArray(), got.ToArray())

	assert.True(t, UnionSets(nil).IsEmpty())
	assert.True(t, UnionSets([]*roaring.Bitmap{nil}).IsEmpty())

	// Inputs untouched.
	assert.Equal(t, []uint32{0, 1}, a.ToArray())
}

func TestSetForSelectionSentinels(t *testing.T) {
	ix := ColumnIndex{
		"acme":   bitmapOf(0, 2),
		"globex": bitmapOf(1),
	}

	// Empty selection → unconstrained, distinguishable from "matches nothing".
	set, ok := SetForSelection(ix, nil)
	assert.False(t, ok)
	assert.Nil(t, set)

	set, ok = SetForSelection(ix, []string{"", "   "})
	assert.False(t, ok)
	assert.Nil(t, set)

	// Non-empty selection that hits no indexed key → constrained, empty.
	set, ok = SetForSelection(ix, []string{"Nonexistent"})
	require.True(t, ok)
	require.NotNil(t, set)
	assert.True(t, set.IsEmpty())

	// That empty constraint zeroes any intersection.
	got := IntersectSets([]*roaring.Bitmap{set, bitmapOf(0, 1, 2)})
	assert.True(t, got.IsEmpty())
}

func TestSetForSelectionNormalizesAndUnions(t *testing.T) {
	ix := ColumnIndex{
		"acme":   bitmapOf(0, 2),
		"globex": bitmapOf(1),
	}

	set, ok := SetForSelection(ix, []string{" ACME ", "Globex", "Acme"})
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 1, 2}, set.ToArray())

	set, ok = SetForSelection(ix, []string{"Acme"})
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 2}, set.ToArray())
}

func TestFilterByIndexSetPreservesOrder(t *testing.T) {
	rows := []string{"a", "b", "c", "d", "e"}

	got := FilterByIndexSet(rows, bitmapOf(4, 0, 2))
	assert.Equal(t, []string{"a", "c", "e"}, got)

	// Empty and nil sets fast-path to an empty slice.
	assert.Empty(t, FilterByIndexSet(rows, roaring.New()))
	assert.Empty(t, FilterByIndexSet(rows, nil))

	// Out-of-range positions are ignored.
	got = FilterByIndexSet(rows, bitmapOf(1, 99))
	assert.Equal(t, []string{"b"}, got)
}
