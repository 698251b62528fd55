package schema

import (
	"fmt"
)

// VarSize marks a vector column whose length differs per row.
const VarSize = -1

// Column describes one column of a concrete schema.
type Column struct {
	Name string
	Kind Kind
	// Size is 0 for scalars, the length for fixed vectors and VarSize for
	// variable-length vectors.
	Size int
	// KeyCount is the dictionary size of a Key column; 0 when unknown.
	KeyCount int
}

// IsVector reports whether the column holds vectors.
func (c Column) IsVector() bool {
	return c.Size != 0
}

func (c Column) String() string {
	switch {
	case c.Size == VarSize:
		return fmt.Sprintf("%s: vector<%s>", c.Name, c.Kind)
	case c.Size > 0:
		return fmt.Sprintf("%s: vector<%s, %d>", c.Name, c.Kind, c.Size)
	default:
		return fmt.Sprintf("%s: %s", c.Name, c.Kind)
	}
}

// Schema is an immutable, ordered set of uniquely named columns.
type Schema struct {
	columns []Column
	index   map[string]int
}

// New creates a schema from columns. A later column replaces an earlier one
// of the same name.
func New(columns ...Column) *Schema {
	s := &Schema{}
	for _, c := range columns {
		s = s.With(c)
	}
	return s
}

// With returns a new schema with col added at the end. A column of the same
// name is removed first.
func (s *Schema) With(col Column) *Schema {
	out := &Schema{
		columns: make([]Column, 0, s.Len()+1),
		index:   make(map[string]int, s.Len()+1),
	}
	for _, c := range s.Columns() {
		if c.Name == col.Name {
			continue
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c)
	}
	out.index[col.Name] = len(out.columns)
	out.columns = append(out.columns, col)
	return out
}

// Find returns the named column.
func (s *Schema) Find(name string) (Column, bool) {
	if s == nil {
		return Column{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.columns)
}

// Columns returns a copy of the columns in order.
func (s *Schema) Columns() []Column {
	if s == nil {
		return nil
	}
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	names := make([]string, 0, s.Len())
	for _, c := range s.Columns() {
		names = append(names, c.Name)
	}
	return names
}
