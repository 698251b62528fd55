package estimator

import (
	"context"
	"fmt"

	"github.com/sharwell/machinelearning/pkg/async"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// Transformer is a fitted, immutable data mapping.
type Transformer interface {
	// OutputSchema returns the schema Transform would produce for input.
	// It must not depend on data and fails with a SchemaError when input
	// lacks a column the transformer needs.
	OutputSchema(input *schema.Schema) (*schema.Schema, error)

	// Transform applies the mapping to input.
	Transform(ctx context.Context, input data.View) (data.View, error)
}

// Estimator learns a Transformer from data.
type Estimator[T Transformer] interface {
	// FitAsync fits against input. Each call starts fresh.
	FitAsync(ctx context.Context, input data.View) async.Awaitable[T]

	// OutputSchemaAsync propagates input through the estimator's declared
	// schema logic without touching data. It fails exactly when FitAsync on
	// data of that shape would fail schema validation.
	OutputSchemaAsync(ctx context.Context, input schema.Shape) async.Awaitable[schema.Shape]
}

// Loader produces a data view from a source of type S.
type Loader[S any] interface {
	Load(ctx context.Context, source S) (data.View, error)
	OutputSchema() *schema.Schema
}

// LoaderEstimator learns a Loader from a source.
type LoaderEstimator[S any, L Loader[S]] interface {
	FitAsync(ctx context.Context, source S) async.Awaitable[L]
	OutputSchemaAsync(ctx context.Context) async.Awaitable[schema.Shape]
}

// Named is implemented by estimators that report a stage name.
type Named interface {
	Name() string
}

func nameOf(v any) string {
	if n, ok := v.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}

// EraseLoader adapts e to produce the Loader interface rather than its
// concrete loader type.
func EraseLoader[S any, L Loader[S]](e LoaderEstimator[S, L]) LoaderEstimator[S, Loader[S]] {
	if erased, ok := any(e).(LoaderEstimator[S, Loader[S]]); ok {
		return erased
	}
	return erasedLoaderEstimator[S, L]{e: e}
}

type erasedLoaderEstimator[S any, L Loader[S]] struct {
	e LoaderEstimator[S, L]
}

func (e erasedLoaderEstimator[S, L]) FitAsync(ctx context.Context, source S) async.Awaitable[Loader[S]] {
	return async.Then(e.e.FitAsync(ctx, source), func(l L) (Loader[S], error) { return l, nil })
}

func (e erasedLoaderEstimator[S, L]) OutputSchemaAsync(ctx context.Context) async.Awaitable[schema.Shape] {
	return e.e.OutputSchemaAsync(ctx)
}

func (e erasedLoaderEstimator[S, L]) Name() string {
	return nameOf(e.e)
}
