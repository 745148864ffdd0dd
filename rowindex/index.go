package rowindex

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Dimension is a categorical filter axis of the campaign dataset.
type Dimension string

const (
	DimPartner       Dimension = "partner"
	DimTheme         Dimension = "theme"
	DimDatabase      Dimension = "database"
	DimType          Dimension = "type"
	DimGeo           Dimension = "geo"
	DimDatabaseType  Dimension = "database_type"
	DimInvoiceOffice Dimension = "invoice_office"
	DimMonth         Dimension = "month"
)

// Dimensions lists every filter axis, in display order. The month axis is
// derived from the row's date, not stored on the row.
var Dimensions = []Dimension{
	DimPartner, DimTheme, DimDatabase, DimType,
	DimGeo, DimDatabaseType, DimInvoiceOffice, DimMonth,
}

// Keyed is the row shape the index builder consumes. DimensionValue returns
// the raw categorical value for each non-derived axis (DimMonth is never
// requested); DateValue returns the row's date string for month derivation.
// Normalization happens inside BuildIndexes, in one place, so callers hold
// plain display values and never carry pre-normalized shadow fields.
type Keyed interface {
	DimensionValue(d Dimension) string
	DateValue() string
}

// ColumnIndex maps a normalized dimension value to the set of row positions
// holding it. Positions are 0-based offsets into the row slice the index was
// built from; they are the only row identity this package knows about.
type ColumnIndex map[string]*roaring.Bitmap

// Indexes holds one column index per dimension. An Indexes value is built in
// a single pass and never mutated afterwards; on dataset reload the owner
// builds a fresh one and swaps it wholesale.
type Indexes struct {
	ByPartner       ColumnIndex
	ByTheme         ColumnIndex
	ByDatabase      ColumnIndex
	ByType          ColumnIndex
	ByGeo           ColumnIndex
	ByDatabaseType  ColumnIndex
	ByInvoiceOffice ColumnIndex
	ByMonth         ColumnIndex
}

// Column returns the index for the given dimension.
func (ix *Indexes) Column(d Dimension) ColumnIndex {
	switch d {
	case DimPartner:
		return ix.ByPartner
	case DimTheme:
		return ix.ByTheme
	case DimDatabase:
		return ix.ByDatabase
	case DimType:
		return ix.ByType
	case DimGeo:
		return ix.ByGeo
	case DimDatabaseType:
		return ix.ByDatabaseType
	case DimInvoiceOffice:
		return ix.ByInvoiceOffice
	case DimMonth:
		return ix.ByMonth
	}
	return nil
}

// Keys returns the indexed values of a column, sorted.
func (ix ColumnIndex) Keys() []string {
	keys := make([]string, 0, len(ix))
	for k := range ix {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (ix ColumnIndex) add(key string, pos uint32) {
	set, ok := ix[key]
	if !ok {
		set = roaring.New()
		ix[key] = set
	}
	set.Add(pos)
}

// BuildIndexes scans the row slice once and produces one column index per
// dimension. A row contributes a position to a column only when its value
// normalizes to a non-empty key; blank values are absent from the column
// entirely rather than indexed under "". Dates that yield no month key leave
// the row out of the month column. BuildIndexes never mutates its input and
// never fails: dimensions without indexable values are just empty maps.
func BuildIndexes[T Keyed](rows []T) *Indexes {
	out := &Indexes{
		ByPartner:       make(ColumnIndex),
		ByTheme:         make(ColumnIndex),
		ByDatabase:      make(ColumnIndex),
		ByType:          make(ColumnIndex),
		ByGeo:           make(ColumnIndex),
		ByDatabaseType:  make(ColumnIndex),
		ByInvoiceOffice: make(ColumnIndex),
		ByMonth:         make(ColumnIndex),
	}

	for i, row := range rows {
		pos := uint32(i)
		for _, d := range Dimensions {
			var key string
			if d == DimMonth {
				key = Normalize(MonthKey(row.DateValue()))
			} else {
				key = Normalize(row.DimensionValue(d))
			}
			if key == "" {
				continue
			}
			out.Column(d).add(key, pos)
		}
	}

	return out
}
