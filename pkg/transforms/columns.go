package transforms

import (
	"fmt"

	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/common/validation"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// ColumnPair maps an input column to the output column written from it.
// An empty Output writes back to Input.
type ColumnPair struct {
	Input  string
	Output string
}

// Pair is shorthand for ColumnPair{input, output}.
func Pair(input, output string) ColumnPair {
	return ColumnPair{Input: input, Output: output}
}

// Same returns pairs that write each column in place.
func Same(columns ...string) []ColumnPair {
	pairs := make([]ColumnPair, len(columns))
	for i, c := range columns {
		pairs[i] = ColumnPair{Input: c}
	}
	return pairs
}

func (p ColumnPair) output() string {
	if p.Output == "" {
		return p.Input
	}
	return p.Output
}

func (p ColumnPair) String() string {
	return p.Input + "->" + p.output()
}

func validatePairs(module string, pairs []ColumnPair) ([]ColumnPair, error) {
	if len(pairs) == 0 {
		return nil, gferrors.NewValidationError(module, "columns", 0, "at least one column pair is required")
	}
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		if err := validation.ValidateNotEmpty(module, "input", p.Input); err != nil {
			return nil, err
		}
		if seen[p.output()] {
			return nil, gferrors.NewValidationError(module, "output", p.output(), "written by more than one pair")
		}
		seen[p.output()] = true
	}
	out := make([]ColumnPair, len(pairs))
	copy(out, pairs)
	return out, nil
}

// mapColumns applies fn to the input column of every pair, writing the
// results to a copy of the view.
func mapColumns(input data.View, pairs []ColumnPair, fn func(i int, col schema.Column, values []any) (schema.Column, []any, error)) (data.View, error) {
	table, err := data.Materialize(input)
	if err != nil {
		return nil, err
	}
	// All inputs are read from the original view so pairs are independent.
	src := table
	for i, p := range pairs {
		col, ok := src.Schema().Find(p.Input)
		if !ok {
			return nil, gferrors.NewSchemaError(p.Input, "input column", "")
		}
		values, err := src.Column(p.Input)
		if err != nil {
			return nil, err
		}
		outCol, outValues, err := fn(i, col, values)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", p, err)
		}
		outCol.Name = p.output()
		table, err = table.WithColumn(outCol, outValues)
		if err != nil {
			return nil, err
		}
	}
	return table, nil
}
