package data

import (
	"context"
	"fmt"

	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// Record is one row keyed by column name.
type Record map[string]any

// Records is a row-oriented source that RecordLoader turns into a Table.
type Records []Record

// RecordLoader loads Records into a Table with a declared schema.
type RecordLoader struct {
	schema *schema.Schema
}

// NewRecordLoader creates a loader that reads the columns of s from each record.
func NewRecordLoader(s *schema.Schema) *RecordLoader {
	return &RecordLoader{schema: s}
}

// OutputSchema returns the declared schema.
func (l *RecordLoader) OutputSchema() *schema.Schema {
	return l.schema
}

// Load converts records into a Table. Ints and float32 values are widened to
// the column kind; anything else must already have the column's value type.
func (l *RecordLoader) Load(ctx context.Context, source Records) (View, error) {
	if err := gfcontext.Err(ctx); err != nil {
		return nil, err
	}
	cols := l.schema.Columns()
	columns := make(map[string][]any, len(cols))
	for _, col := range cols {
		values := make([]any, len(source))
		for i, rec := range source {
			v, ok := rec[col.Name]
			if !ok {
				return nil, fmt.Errorf("data: record %d has no field %q", i, col.Name)
			}
			values[i] = widen(col, v)
		}
		columns[col.Name] = values
	}
	return NewTable(l.schema, columns)
}

func widen(col schema.Column, v any) any {
	if col.IsVector() {
		if col.Kind == schema.Float {
			if xs, ok := v.([]float32); ok {
				out := make([]float64, len(xs))
				for i, x := range xs {
					out[i] = float64(x)
				}
				return out
			}
		}
		return v
	}
	switch col.Kind {
	case schema.Int:
		if x, ok := v.(int); ok {
			return int64(x)
		}
	case schema.Float:
		switch x := v.(type) {
		case int:
			return float64(x)
		case float32:
			return float64(x)
		}
	}
	return v
}
