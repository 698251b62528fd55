package schema

import (
	"fmt"
)

// ColumnShape is the data-independent description of a column: what a
// pipeline knows about it before any data is read.
type ColumnShape struct {
	Name     string
	Kind     Kind
	IsVector bool
	// KeyCount is the dictionary size of a Key column; 0 when unknown.
	KeyCount int
}

func (c ColumnShape) String() string {
	return describe(c.Kind, c.IsVector)
}

func describe(kind Kind, vector bool) string {
	if vector {
		return fmt.Sprintf("%s vector", kind)
	}
	return fmt.Sprintf("%s scalar", kind)
}

// Shape is an immutable, ordered mapping from column name to ColumnShape.
// The zero Shape has no columns.
type Shape struct {
	columns []ColumnShape
}

// NewShape creates a shape from columns. A later column replaces an earlier
// one of the same name.
func NewShape(columns ...ColumnShape) Shape {
	var s Shape
	for _, c := range columns {
		s = s.With(c)
	}
	return s
}

// ShapeOf derives the shape of a concrete schema.
func ShapeOf(s *Schema) Shape {
	cols := s.Columns()
	out := Shape{columns: make([]ColumnShape, 0, len(cols))}
	for _, c := range cols {
		out.columns = append(out.columns, ColumnShape{
			Name:     c.Name,
			Kind:     c.Kind,
			IsVector: c.IsVector(),
			KeyCount: c.KeyCount,
		})
	}
	return out
}

// With returns a new shape with col added at the end, replacing any column of
// the same name.
func (s Shape) With(col ColumnShape) Shape {
	out := Shape{columns: make([]ColumnShape, 0, len(s.columns)+1)}
	for _, c := range s.columns {
		if c.Name != col.Name {
			out.columns = append(out.columns, c)
		}
	}
	out.columns = append(out.columns, col)
	return out
}

// Find returns the named column.
func (s Shape) Find(name string) (ColumnShape, bool) {
	for _, c := range s.columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnShape{}, false
}

// Len returns the number of columns.
func (s Shape) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the columns in order.
func (s Shape) Columns() []ColumnShape {
	out := make([]ColumnShape, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in order.
func (s Shape) Names() []string {
	names := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		names = append(names, c.Name)
	}
	return names
}

// Equal reports whether both shapes hold the same columns in the same order.
func (s Shape) Equal(other Shape) bool {
	if len(s.columns) != len(other.columns) {
		return false
	}
	for i := range s.columns {
		if s.columns[i] != other.columns[i] {
			return false
		}
	}
	return true
}
