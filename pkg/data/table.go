package data

import (
	"fmt"

	"github.com/sharwell/machinelearning/pkg/schema"
)

// View is a read-only, column-oriented view of a dataset.
type View interface {
	// Schema describes the columns of the view.
	Schema() *schema.Schema

	// Len returns the number of rows.
	Len() int

	// Column returns the values of the named column, one per row.
	// Callers must not modify the returned slice.
	Column(name string) ([]any, error)
}

// Table is an immutable in-memory View.
//
// Values are typed by column kind: bool, int64, float64, string and uint32
// for Key. Vector columns hold a slice of the item type per row
// ([]float64, []string, ...).
type Table struct {
	schema  *schema.Schema
	columns map[string][]any
	rows    int
}

// NewTable creates a table, validating that every column in s is present
// with one correctly typed value per row.
func NewTable(s *schema.Schema, columns map[string][]any) (*Table, error) {
	t := &Table{
		schema:  s,
		columns: make(map[string][]any, s.Len()),
		rows:    -1,
	}
	for _, col := range s.Columns() {
		values, ok := columns[col.Name]
		if !ok {
			return nil, fmt.Errorf("data: missing values for column %q", col.Name)
		}
		if err := t.add(col, values); err != nil {
			return nil, err
		}
	}
	if len(columns) != s.Len() {
		for name := range columns {
			if _, ok := s.Find(name); !ok {
				return nil, fmt.Errorf("data: column %q is not in the schema", name)
			}
		}
	}
	if t.rows < 0 {
		t.rows = 0
	}
	return t, nil
}

func (t *Table) add(col schema.Column, values []any) error {
	if t.rows >= 0 && len(values) != t.rows {
		return fmt.Errorf("data: column %q has %d rows, want %d", col.Name, len(values), t.rows)
	}
	for i, v := range values {
		if err := CheckValue(col, v); err != nil {
			return fmt.Errorf("data: row %d: %w", i, err)
		}
	}
	t.rows = len(values)
	t.columns[col.Name] = values
	return nil
}

// Schema describes the columns of the table.
func (t *Table) Schema() *schema.Schema {
	return t.schema
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]any, error) {
	values, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("data: no column %q", name)
	}
	return values, nil
}

// WithColumn returns a new table with col added or replaced. The receiver is
// not modified and shares unchanged columns with the result.
func (t *Table) WithColumn(col schema.Column, values []any) (*Table, error) {
	out := &Table{
		schema:  t.schema.With(col),
		columns: make(map[string][]any, len(t.columns)+1),
		rows:    t.rows,
	}
	if t.schema.Len() == 0 {
		out.rows = -1
	}
	for name, v := range t.columns {
		if name != col.Name {
			out.columns[name] = v
		}
	}
	if err := out.add(col, values); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckValue reports whether v is a valid value for col.
func CheckValue(col schema.Column, v any) error {
	if !col.IsVector() {
		if !scalarOK(col.Kind, v) {
			return fmt.Errorf("column %q: %T is not a %s", col.Name, v, col.Kind)
		}
		return nil
	}
	n, ok := vectorLen(col.Kind, v)
	if !ok {
		return fmt.Errorf("column %q: %T is not a vector of %s", col.Name, v, col.Kind)
	}
	if col.Size > 0 && n != col.Size {
		return fmt.Errorf("column %q: vector has %d items, want %d", col.Name, n, col.Size)
	}
	return nil
}

func scalarOK(kind schema.Kind, v any) bool {
	switch kind {
	case schema.Bool:
		_, ok := v.(bool)
		return ok
	case schema.Int:
		_, ok := v.(int64)
		return ok
	case schema.Float:
		_, ok := v.(float64)
		return ok
	case schema.Text:
		_, ok := v.(string)
		return ok
	case schema.Key:
		_, ok := v.(uint32)
		return ok
	}
	return false
}

func vectorLen(kind schema.Kind, v any) (int, bool) {
	switch kind {
	case schema.Bool:
		x, ok := v.([]bool)
		return len(x), ok
	case schema.Int:
		x, ok := v.([]int64)
		return len(x), ok
	case schema.Float:
		x, ok := v.([]float64)
		return len(x), ok
	case schema.Text:
		x, ok := v.([]string)
		return len(x), ok
	case schema.Key:
		x, ok := v.([]uint32)
		return len(x), ok
	}
	return 0, false
}

// Materialize returns v as a Table, copying its columns if v is not one already.
func Materialize(v View) (*Table, error) {
	if t, ok := v.(*Table); ok {
		return t, nil
	}
	s := v.Schema()
	columns := make(map[string][]any, s.Len())
	for _, col := range s.Columns() {
		values, err := v.Column(col.Name)
		if err != nil {
			return nil, err
		}
		columns[col.Name] = values
	}
	return NewTable(s, columns)
}
