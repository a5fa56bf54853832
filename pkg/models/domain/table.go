package domain

import "fmt"

// FieldMapping renames one raw field to an output column.
type FieldMapping struct {
	Raw    string
	Output string
}

// FieldMap is an ordered list of mappings; output column order follows it.
type FieldMap []FieldMapping

// Validate checks the map is well formed and that every raw name is in schema.
func (fm FieldMap) Validate(schema []string) error {
	if len(fm) == 0 {
		return fmt.Errorf("field map is empty")
	}

	known := make(map[string]struct{}, len(schema))
	for _, f := range schema {
		known[f] = struct{}{}
	}

	raws := make(map[string]struct{}, len(fm))
	outs := make(map[string]struct{}, len(fm))
	for i, m := range fm {
		if m.Raw == "" || m.Output == "" {
			return fmt.Errorf("field map entry %d: raw and output names are required", i)
		}
		if _, dup := raws[m.Raw]; dup {
			return fmt.Errorf("field map entry %d: raw field %q mapped twice", i, m.Raw)
		}
		if _, dup := outs[m.Output]; dup {
			return fmt.Errorf("field map entry %d: output column %q used twice", i, m.Output)
		}
		if _, ok := known[m.Raw]; !ok {
			return &MissingFieldError{Field: m.Raw}
		}
		raws[m.Raw] = struct{}{}
		outs[m.Output] = struct{}{}
	}
	return nil
}

// Outputs returns the output column names in order.
func (fm FieldMap) Outputs() []string {
	out := make([]string, len(fm))
	for i, m := range fm {
		out[i] = m.Output
	}
	return out
}

// Identity maps every name to itself.
func Identity(names []string) FieldMap {
	fm := make(FieldMap, len(names))
	for i, n := range names {
		fm[i] = FieldMapping{Raw: n, Output: n}
	}
	return fm
}

// Table is a projected, column-ordered table of text cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}
