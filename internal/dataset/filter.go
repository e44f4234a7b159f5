package dataset

import (
	"fmt"

	"github.com/edanalytica/gradelens-backend/internal/model"
)

// FilterRange returns the subset of rows whose numeric field lies in
// [lo, hi], both ends inclusive. Applying the same range twice returns an
// equal table.
func (t *Table) FilterRange(f Field, lo, hi float64) (*Table, error) {
	if !f.IsNumeric() {
		return nil, fmt.Errorf("%w: %q is not a numeric field", ErrUnknownField, f)
	}
	matched := make([]model.Record, 0, len(t.rows))
	for i := range t.rows {
		v := numValue(&t.rows[i], f)
		if v >= lo && v <= hi {
			matched = append(matched, t.rows[i])
		}
	}
	return newTable(matched, t.hasMajorType), nil
}

// FilterIn returns the subset of rows whose categorical field value is in the
// allowlist. An empty allowlist selects nothing; allowlist values absent from
// the table are tolerated and simply match no rows.
func (t *Table) FilterIn(f Field, allowed []string) (*Table, error) {
	if !f.IsCategorical() {
		return nil, fmt.Errorf("%w: %q is not a categorical field", ErrUnknownField, f)
	}
	if f == FieldMajorType && !t.hasMajorType {
		return nil, fmt.Errorf("%w: %s", ErrFieldUnavailable, f)
	}
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	matched := make([]model.Record, 0, len(t.rows))
	for i := range t.rows {
		if _, ok := set[catValue(&t.rows[i], f)]; ok {
			matched = append(matched, t.rows[i])
		}
	}
	return newTable(matched, t.hasMajorType), nil
}

// FilterYears restricts the table to academic years in [from, to] inclusive,
// matching the dashboard's year slider.
func (t *Table) FilterYears(from, to int) *Table {
	filtered, _ := t.FilterRange(FieldYear, float64(from), float64(to))
	return filtered
}
