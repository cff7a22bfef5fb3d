package record

import "fmt"

// Table is a column-oriented record list: each column name maps to a slice
// of values aligned by row index. A nil value is a null cell.
type Table struct {
	Columns []string
	Values  map[string][]*string
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) Table {
	t := Table{
		Columns: append([]string(nil), columns...),
		Values:  make(map[string][]*string, len(columns)),
	}
	for _, c := range columns {
		t.Values[c] = []*string{}
	}
	return t
}

// ToTable reshapes a record collection into a table with columns in
// Columns order. An empty collection yields a table with no columns.
func ToTable(records []Record) Table {
	if len(records) == 0 {
		return Table{Values: map[string][]*string{}}
	}

	t := NewTable(Columns...)
	for _, r := range records {
		for _, c := range Columns {
			v, _ := r.Get(c)
			if v != nil {
				// Get returns pointers into the copy r, so detach them
				v = String(*v)
			}
			t.Values[c] = append(t.Values[c], v)
		}
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Values[t.Columns[0]])
}

// HasColumn reports whether the table has the named column.
func (t Table) HasColumn(name string) bool {
	_, ok := t.Values[name]
	return ok
}

// Column returns the values of the named column, or nil if absent.
func (t Table) Column(name string) []*string {
	return t.Values[name]
}

// Row returns the i-th row in column order.
func (t Table) Row(i int) []*string {
	row := make([]*string, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = t.Values[c][i]
	}
	return row
}

// AppendRow adds a row given in column order.
func (t *Table) AppendRow(row []*string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.Columns))
	}
	for j, c := range t.Columns {
		t.Values[c] = append(t.Values[c], row[j])
	}
	return nil
}

// AddColumn appends a column. values must match the row count.
func (t *Table) AddColumn(name string, values []*string) error {
	if t.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(t.Columns) > 0 && len(values) != t.Len() {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.Len())
	}
	if t.Values == nil {
		t.Values = make(map[string][]*string)
	}
	t.Columns = append(t.Columns, name)
	t.Values[name] = values
	return nil
}

// Rename renames columns according to mapping (old -> new). Missing columns
// are ignored.
func (t *Table) Rename(mapping map[string]string) {
	for i, c := range t.Columns {
		newName, ok := mapping[c]
		if !ok || newName == c {
			continue
		}
		t.Values[newName] = t.Values[c]
		delete(t.Values, c)
		t.Columns[i] = newName
	}
}

// Select returns a new table restricted to the given columns. Columns the
// table lacks are filled with nulls.
func (t Table) Select(columns ...string) Table {
	out := NewTable(columns...)
	n := t.Len()
	for _, c := range columns {
		if src, ok := t.Values[c]; ok {
			out.Values[c] = append(out.Values[c], src...)
			continue
		}
		out.Values[c] = make([]*string, n)
	}
	return out
}

// Concat stacks tables that share the given columns.
func Concat(columns []string, tables ...Table) Table {
	out := NewTable(columns...)
	for _, t := range tables {
		sel := t.Select(columns...)
		for _, c := range columns {
			out.Values[c] = append(out.Values[c], sel.Values[c]...)
		}
	}
	return out
}
