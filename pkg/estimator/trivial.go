package estimator

import (
	"context"

	"github.com/sharwell/machinelearning/pkg/async"
	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// TrivialEstimator lifts an already fitted transformer into an estimator.
// Fitting learns nothing and returns the wrapped instance itself.
//
// The output schema of an opaque transformer cannot be derived from a shape,
// so TrivialEstimator has no OutputSchemaAsync. Types embedding it supply
// one to satisfy Estimator:
//
//	type Scaler struct {
//		estimator.TrivialEstimator[*scaleTransformer]
//	}
//
//	func (s Scaler) OutputSchemaAsync(ctx context.Context, in schema.Shape) async.Awaitable[schema.Shape] { ... }
type TrivialEstimator[T Transformer] struct {
	xf T
}

// NewTrivialEstimator wraps xf.
func NewTrivialEstimator[T Transformer](xf T) TrivialEstimator[T] {
	return TrivialEstimator[T]{xf: xf}
}

// Transformer returns the wrapped transformer.
func (e TrivialEstimator[T]) Transformer() T {
	return e.xf
}

// FitAsync checks that the transformer accepts the schema of input and
// returns it unchanged. Chains that skip OutputSchemaAsync still get the
// schema check this way.
func (e TrivialEstimator[T]) FitAsync(ctx context.Context, input data.View) async.Awaitable[T] {
	if err := gfcontext.Err(ctx); err != nil {
		return async.FromError[T](err)
	}
	if _, err := e.xf.OutputSchema(input.Schema()); err != nil {
		return async.FromError[T](err)
	}
	return async.FromValue(e.xf)
}

// TrivialLoaderEstimator returns a pre-built loader regardless of source.
type TrivialLoaderEstimator[S any, L Loader[S]] struct {
	loader L
}

// NewTrivialLoaderEstimator wraps loader.
func NewTrivialLoaderEstimator[S any, L Loader[S]](loader L) TrivialLoaderEstimator[S, L] {
	return TrivialLoaderEstimator[S, L]{loader: loader}
}

// Loader returns the wrapped loader.
func (e TrivialLoaderEstimator[S, L]) Loader() L {
	return e.loader
}

// FitAsync returns the wrapped loader. source is not read.
func (e TrivialLoaderEstimator[S, L]) FitAsync(ctx context.Context, _ S) async.Awaitable[L] {
	if err := gfcontext.Err(ctx); err != nil {
		return async.FromError[L](err)
	}
	return async.FromValue(e.loader)
}

// OutputSchemaAsync returns the shape of the loader's schema.
func (e TrivialLoaderEstimator[S, L]) OutputSchemaAsync(ctx context.Context) async.Awaitable[schema.Shape] {
	if err := gfcontext.Err(ctx); err != nil {
		return async.FromError[schema.Shape](err)
	}
	return async.FromValue(schema.ShapeOf(e.loader.OutputSchema()))
}

func (e TrivialLoaderEstimator[S, L]) Name() string {
	return nameOf(e.loader)
}
