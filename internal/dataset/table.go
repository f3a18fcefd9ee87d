// Package dataset provides the in-memory tabular representation used between
// the archive downloader and the storage writer, together with the pure
// transform steps applied to it. Cells are kept as strings, the form they
// arrive in from CSV; a null cell is distinct from an empty string.
package dataset

import (
	"fmt"
)

// Value is a single table cell. Null marks a missing value, which is distinct
// from an empty string (a missing CSV cell is null; an empty metadata field is
// an empty string and survives the null drop).
type Value struct {
	Raw  string
	Null bool
}

// String creates a non-null cell.
func String(s string) Value {
	return Value{Raw: s}
}

// Null is the null cell marker.
func NullValue() Value {
	return Value{Null: true}
}

// Table is an ordered-column, row-oriented dataset.
type Table struct {
	columns []string
	rows    [][]Value
}

// NewTable creates an empty table with the given column names.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return len(t.rows) == 0
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Cell returns the value at (row, column name). A missing column yields a null cell.
func (t *Table) Cell(row int, column string) Value {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return NullValue()
	}
	return t.rows[row][idx]
}

// AppendRow appends a row. The row's arity must match the column count.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.columns))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Row returns the i-th row. The returned slice is owned by the table.
func (t *Table) Row(i int) []Value {
	return t.rows[i]
}

// Copy returns a deep copy of the table.
func (t *Table) Copy() *Table {
	out := NewTable(t.columns...)
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		cloned := make([]Value, len(row))
		copy(cloned, row)
		out.rows[i] = cloned
	}
	return out
}

// Concat appends all rows of other to t, aligning columns by name. Columns
// present in only one of the two tables are kept, with null cells filling the
// gaps, the way dataframe concatenation behaves. The receiver is not modified;
// the combined table is returned.
func (t *Table) Concat(other *Table) *Table {
	if other == nil || other.IsEmpty() {
		return t.Copy()
	}
	if t.IsEmpty() && len(t.columns) == 0 {
		return other.Copy()
	}

	merged := t.Copy()
	for _, col := range other.columns {
		if !merged.HasColumn(col) {
			merged.addColumn(col)
		}
	}

	for _, row := range other.rows {
		newRow := make([]Value, len(merged.columns))
		for i := range newRow {
			newRow[i] = NullValue()
		}
		for j, col := range other.columns {
			idx, _ := merged.ColumnIndex(col)
			newRow[idx] = row[j]
		}
		merged.rows = append(merged.rows, newRow)
	}
	return merged
}

// addColumn appends a new column filled with null cells.
func (t *Table) addColumn(name string) {
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], NullValue())
	}
}

// WithColumn returns a copy of the table with an extra column whose cells are
// produced by fill, called once per row. An existing column of the same name
// is overwritten in place.
func (t *Table) WithColumn(name string, fill func(row int) Value) *Table {
	out := t.Copy()
	if idx, ok := out.ColumnIndex(name); ok {
		for i := range out.rows {
			out.rows[i][idx] = fill(i)
		}
		return out
	}
	out.columns = append(out.columns, name)
	for i := range out.rows {
		out.rows[i] = append(out.rows[i], fill(i))
	}
	return out
}
