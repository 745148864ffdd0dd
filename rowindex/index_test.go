package rowindex

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRow is the minimal Keyed implementation used across the package tests.
type testRow struct {
	partner       string
	theme         string
	database      string
	rowType       string
	geo           string
	databaseType  string
	invoiceOffice string
	date          string
}

func (r testRow) DimensionValue(d Dimension) string {
	switch d {
	case DimPartner:
		return r.partner
	case DimTheme:
		return r.theme
	case DimDatabase:
		return r.database
	case DimType:
		return r.rowType
	case DimGeo:
		return r.geo
	case DimDatabaseType:
		return r.databaseType
	case DimInvoiceOffice:
		return r.invoiceOffice
	}
	return ""
}

func (r testRow) DateValue() string { return r.date }

func positions(set *roaring.Bitmap) []uint32 {
	if set == nil {
		return nil
	}
	return set.ToArray()
}

func TestBuildIndexesCompleteness(t *testing.T) {
	rows := []testRow{
		{partner: "Acme", theme: "Finance", geo: "ES", date: "2024-03-05"},
		{partner: "Globex", theme: "Finance", geo: "FR", date: "2024-03-20"},
		{partner: "acme ", theme: "Travel", geo: "ES", date: "2024-04-01"},
	}

	ix := BuildIndexes(rows)

	assert.Equal(t, []uint32{0, 2}, positions(ix.ByPartner["acme"]))
	assert.Equal(t, []uint32{1}, positions(ix.ByPartner["globex"]))
	assert.Equal(t, []uint32{0, 1}, positions(ix.ByTheme["finance"]))
	assert.Equal(t, []uint32{0, 2}, positions(ix.ByGeo["es"]))
	assert.Equal(t, []uint32{0, 1}, positions(ix.ByMonth["2024-03"]))
	assert.Equal(t, []uint32{2}, positions(ix.ByMonth["2024-04"]))
}

func TestBuildIndexesExcludesBlankValues(t *testing.T) {
	rows := []testRow{
		{partner: "Acme", theme: "   ", date: "2024-03-05"},
		{partner: "", theme: "Travel", date: "nonsense"},
	}

	ix := BuildIndexes(rows)

	// Row 0 has a blank theme: it must not appear under any theme key, and
	// there is no "" key.
	_, hasEmptyKey := ix.ByTheme[""]
	assert.False(t, hasEmptyKey)
	for key, set := range ix.ByTheme {
		assert.False(t, set.Contains(0), "row 0 leaked into theme key %q", key)
	}

	// Row 1 has no partner and an unparseable date.
	for key, set := range ix.ByPartner {
		assert.False(t, set.Contains(1), "row 1 leaked into partner key %q", key)
	}
	for key, set := range ix.ByMonth {
		assert.False(t, set.Contains(1), "row 1 leaked into month key %q", key)
	}
}

func TestBuildIndexesEmptyDataset(t *testing.T) {
	ix := BuildIndexes([]testRow{})
	for _, d := range Dimensions {
		col := ix.Column(d)
		require.NotNil(t, col, "dimension %s must have a column index", d)
		assert.Empty(t, col)
	}
}

func TestColumnIndexKeysSorted(t *testing.T) {
	rows := []testRow{
		{partner: "Zeta", date: "2024-01-01"},
		{partner: "Acme", date: "2024-01-02"},
		{partner: "Mango", date: "2024-01-03"},
	}
	ix := BuildIndexes(rows)
	assert.Equal(t, []string{"acme", "mango", "zeta"}, ix.ByPartner.Keys())
}

// The end-to-end scenario: build, select, intersect, materialize.
func TestIndexQueryRoundTrip(t *testing.T) {
	rows := []testRow{
		{partner: "Acme", date: "2024-03-05"},
		{partner: "Globex", date: "2024-03-20"},
		{partner: "acme ", date: "2024-04-01"},
	}

	ix := BuildIndexes(rows)
	assert.Equal(t, []uint32{0, 2}, positions(ix.ByPartner["acme"]))
	assert.Equal(t, []uint32{0, 1}, positions(ix.ByMonth["2024-03"]))

	partnerSet, ok := SetForSelection(ix.ByPartner, []string{"Acme"})
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 2}, positions(partnerSet))

	monthSet, ok := SetForSelection(ix.ByMonth, []string{"2024-03"})
	require.True(t, ok)

	got := IntersectSets([]*roaring.Bitmap{partnerSet, monthSet})
	assert.Equal(t, []uint32{0}, positions(got))

	filtered := FilterByIndexSet(rows, got)
	require.Len(t, filtered, 1)
	assert.Equal(t, rows[0], filtered[0])
}
