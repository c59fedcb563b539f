// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Table is an ordered sequence of Records exposed as rows with named
// columns. Tables are treated as values: operations that add data return a
// new Table and leave the receiver untouched.
type Table struct {
	// Columns is the union of the columns present in Records, in canonical order.
	Columns []Column

	// Records holds one row per paper in API order.
	Records []Record
}

// NewTable builds a Table from records, deriving its column list.
func NewTable(records []Record) Table {
	t := Table{Records: records}
	t.Columns = unionColumns(records)
	return t
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Records)
}

// HasColumn reports whether any row carries column c.
func (t Table) HasColumn(c Column) bool {
	for _, col := range t.Columns {
		if col == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]Column(nil), t.Columns...),
		Records: make([]Record, len(t.Records)),
	}
	for i, r := range t.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

// WithColumn returns a copy of t with scalar column c set from values.
// values[i] applies to row i: nil marks the value absent. Rows past the end
// of values have no value for c. Any existing values of c are replaced.
func (t Table) WithColumn(c Column, values []*string) Table {
	out := t.Clone()
	for i := range out.Records {
		out.Records[i].Unset(c)
		if i < len(values) && values[i] != nil {
			out.Records[i].Set(c, *values[i])
		}
	}
	if !out.HasColumn(c) {
		out.Columns = append(out.Columns, c)
	}
	return out
}

// Strings returns the values of a scalar column, one per row, with nil for
// rows where the column is absent.
func (t Table) Strings(c Column) []*string {
	out := make([]*string, len(t.Records))
	for i, r := range t.Records {
		if v, ok := r.Value(c); ok {
			if s, isStr := v.(string); isStr {
				out[i] = &s
			}
		}
	}
	return out
}

func unionColumns(records []Record) []Column {
	seen := make(map[Column]bool)
	for _, r := range records {
		for _, c := range r.Columns() {
			seen[c] = true
		}
	}
	var cols []Column
	for _, c := range AllColumns {
		if seen[c] {
			cols = append(cols, c)
		}
	}
	return cols
}
