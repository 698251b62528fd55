package estimator

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sharwell/machinelearning/pkg/async"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// affine maps the float column X to X*mul + add.
type affine struct {
	mul, add float64
}

var requireX = schema.Scalar("X", schema.Float)

func (a *affine) OutputSchema(input *schema.Schema) (*schema.Schema, error) {
	if err := requireX.Check(schema.ShapeOf(input)); err != nil {
		return nil, err
	}
	return input, nil
}

func (a *affine) Transform(ctx context.Context, input data.View) (data.View, error) {
	table, err := data.Materialize(input)
	if err != nil {
		return nil, err
	}
	col, _ := table.Schema().Find("X")
	xs, err := table.Column("X")
	if err != nil {
		return nil, err
	}
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x.(float64)*a.mul + a.add
	}
	return table.WithColumn(col, out)
}

// addColumn adds a constant column once its requirements hold.
type addColumn struct {
	requires []schema.Requirement
	column   schema.Column
	value    any
}

func (a *addColumn) OutputSchema(input *schema.Schema) (*schema.Schema, error) {
	if err := schema.CheckAll(schema.ShapeOf(input), a.requires...); err != nil {
		return nil, err
	}
	return input.With(a.column), nil
}

func (a *addColumn) Transform(ctx context.Context, input data.View) (data.View, error) {
	if _, err := a.OutputSchema(input.Schema()); err != nil {
		return nil, err
	}
	table, err := data.Materialize(input)
	if err != nil {
		return nil, err
	}
	values := make([]any, table.Len())
	for i := range values {
		values[i] = a.value
	}
	return table.WithColumn(a.column, values)
}

// fakeEstimator "fits" by returning a prepared transformer, optionally on
// another goroutine, and counts its fits.
type fakeEstimator[T Transformer] struct {
	name     string
	xf       T
	async    bool
	err      error
	fits     atomic.Int32
	onFit    func()
	requires []schema.Requirement
	adds     []schema.ColumnShape
}

func (f *fakeEstimator[T]) Name() string { return f.name }

func (f *fakeEstimator[T]) FitAsync(ctx context.Context, input data.View) async.Awaitable[T] {
	fit := func(ctx context.Context) (T, error) {
		f.fits.Add(1)
		if f.onFit != nil {
			f.onFit()
		}
		var zero T
		if err := schema.CheckAll(schema.ShapeOf(input.Schema()), f.requires...); err != nil {
			return zero, err
		}
		if f.err != nil {
			return zero, f.err
		}
		return f.xf, nil
	}
	if f.async {
		return async.Run(ctx, fit)
	}
	v, err := fit(ctx)
	if err != nil {
		return async.FromError[T](err)
	}
	return async.FromValue(v)
}

func (f *fakeEstimator[T]) OutputSchemaAsync(ctx context.Context, input schema.Shape) async.Awaitable[schema.Shape] {
	if err := schema.CheckAll(input, f.requires...); err != nil {
		return async.FromError[schema.Shape](err)
	}
	out := input
	for _, c := range f.adds {
		out = out.With(c)
	}
	return async.FromValue(out)
}

func affineStage(name string, mul, add float64) *fakeEstimator[*affine] {
	return &fakeEstimator[*affine]{
		name:     name,
		xf:       &affine{mul: mul, add: add},
		requires: []schema.Requirement{requireX},
	}
}

func columnStage(name string, requires []schema.Requirement, col schema.Column, value any) *fakeEstimator[*addColumn] {
	return &fakeEstimator[*addColumn]{
		name:     name,
		xf:       &addColumn{requires: requires, column: col, value: value},
		requires: requires,
		adds:     []schema.ColumnShape{shapeOfColumn(col)},
	}
}

func shapeOfColumn(col schema.Column) schema.ColumnShape {
	cs, _ := schema.ShapeOf(schema.New(col)).Find(col.Name)
	return cs
}

var xSchema = schema.New(schema.Column{Name: "X", Kind: schema.Float})

func xTable(values ...float64) *data.Table {
	xs := make([]any, len(values))
	for i, v := range values {
		xs[i] = v
	}
	t, err := data.NewTable(xSchema, map[string][]any{"X": xs})
	if err != nil {
		panic(fmt.Sprintf("xTable: %v", err))
	}
	return t
}

func floats(t interface{ Fatalf(string, ...any) }, view data.View, name string) []float64 {
	values, err := view.Column(name)
	if err != nil {
		t.Fatalf("column %q: %v", name, err)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.(float64)
	}
	return out
}
