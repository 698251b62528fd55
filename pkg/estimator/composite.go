package estimator

import (
	"context"

	"github.com/sharwell/machinelearning/pkg/async"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/common/validation"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// CompositeLoaderEstimator fits a root loader estimator and a chain as one
// unit, producing a CompositeLoader.
//
// Construction does not check that the chain accepts the root's schema.
// Incompatibilities surface from the first OutputSchemaAsync or FitAsync.
type CompositeLoaderEstimator[S any, T Transformer] struct {
	root  LoaderEstimator[S, Loader[S]]
	chain *Chain[T]
}

// NewCompositeLoaderEstimator binds root to chain. A nil root is rejected;
// a nil chain means an empty one.
func NewCompositeLoaderEstimator[S any, L Loader[S], T Transformer](root LoaderEstimator[S, L], chain *Chain[T]) (*CompositeLoaderEstimator[S, T], error) {
	if err := validation.ValidateNotNil("estimator", "root", root); err != nil {
		return nil, err
	}
	if chain == nil {
		chain = NewChain[T]()
	}
	return &CompositeLoaderEstimator[S, T]{root: EraseLoader(root), chain: chain}, nil
}

// AppendLoader returns a new composite with the same root and e appended to
// the chain.
func AppendLoader[S any, L, N Transformer](c *CompositeLoaderEstimator[S, L], e Estimator[N]) *CompositeLoaderEstimator[S, N] {
	return &CompositeLoaderEstimator[S, N]{root: c.root, chain: Append(c.chain, e)}
}

// Append returns a new composite with e appended to the chain.
func (c *CompositeLoaderEstimator[S, T]) Append(e Estimator[T]) *CompositeLoaderEstimator[S, T] {
	return AppendLoader(c, e)
}

// Root returns the root loader estimator.
func (c *CompositeLoaderEstimator[S, T]) Root() LoaderEstimator[S, Loader[S]] {
	return c.root
}

// Chain returns the downstream chain.
func (c *CompositeLoaderEstimator[S, T]) Chain() *Chain[T] {
	return c.chain
}

// Name returns the chain name.
func (c *CompositeLoaderEstimator[S, T]) Name() string {
	return c.chain.Name()
}

// FitAsync fits the root on source, loads source through the fitted loader,
// fits the chain on the loaded view and packages both.
func (c *CompositeLoaderEstimator[S, T]) FitAsync(ctx context.Context, source S) async.Awaitable[*CompositeLoader[S, T]] {
	rootFit := async.Handle(c.root.FitAsync(ctx, source), func(l Loader[S], err error) (Loader[S], error) {
		if err != nil {
			return nil, gferrors.NewOperationError("estimator", "fit", err).WithContext("root " + nameOf(c.root))
		}
		return l, nil
	})
	return async.Bind(rootFit, func(loader Loader[S]) async.Awaitable[*CompositeLoader[S, T]] {
		view, err := loader.Load(ctx, source)
		if err != nil {
			return async.FromError[*CompositeLoader[S, T]](gferrors.NewOperationError("estimator", "load", err))
		}
		return async.Then(c.chain.FitAsync(ctx, view), func(xf *TransformerChain[T]) (*CompositeLoader[S, T], error) {
			return NewCompositeLoader(loader, xf)
		})
	})
}

// OutputSchemaAsync propagates the root's output shape through the chain.
func (c *CompositeLoaderEstimator[S, T]) OutputSchemaAsync(ctx context.Context) async.Awaitable[schema.Shape] {
	return async.Bind(c.root.OutputSchemaAsync(ctx), func(shape schema.Shape) async.Awaitable[schema.Shape] {
		return c.chain.OutputSchemaAsync(ctx, shape)
	})
}

// CompositeLoader is a fitted loader followed by a fitted transformer chain.
// It is itself a Loader, so composites nest.
type CompositeLoader[S any, T Transformer] struct {
	loader Loader[S]
	xf     *TransformerChain[T]
	schema *schema.Schema
}

// NewCompositeLoader packages loader and xf, computing the combined output
// schema. It fails if xf cannot consume the loader's schema.
func NewCompositeLoader[S any, T Transformer](loader Loader[S], xf *TransformerChain[T]) (*CompositeLoader[S, T], error) {
	if err := validation.ValidateNotNil("estimator", "loader", loader); err != nil {
		return nil, err
	}
	if xf == nil {
		xf = &TransformerChain[T]{}
	}
	out, err := xf.OutputSchema(loader.OutputSchema())
	if err != nil {
		return nil, err
	}
	return &CompositeLoader[S, T]{loader: loader, xf: xf, schema: out}, nil
}

// Loader returns the fitted root loader.
func (c *CompositeLoader[S, T]) Loader() Loader[S] {
	return c.loader
}

// Transformer returns the fitted chain.
func (c *CompositeLoader[S, T]) Transformer() *TransformerChain[T] {
	return c.xf
}

// OutputSchema returns the schema of views produced by Load.
func (c *CompositeLoader[S, T]) OutputSchema() *schema.Schema {
	return c.schema
}

// Load reads source through the loader and applies the fitted chain.
func (c *CompositeLoader[S, T]) Load(ctx context.Context, source S) (data.View, error) {
	view, err := c.loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	return c.xf.Transform(ctx, view)
}
