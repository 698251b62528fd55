package estimator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharwell/machinelearning/pkg/async"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// Chain is an immutable sequence of estimators fitted one after another,
// each on the output of the transformers fitted before it. T is the
// transformer type of the last stage.
//
// Appending never changes the receiver, so a chain can be shared as the
// common prefix of several longer chains. A nil *Chain is an empty chain.
type Chain[T Transformer] struct {
	stages []stage
	opts   options
}

type stage struct {
	name   string
	fit    func(ctx context.Context, input data.View) async.Awaitable[Transformer]
	schema func(ctx context.Context, input schema.Shape) async.Awaitable[schema.Shape]
}

func newStage[T Transformer](e Estimator[T]) stage {
	if e == nil {
		panic("estimator: nil estimator")
	}
	return stage{
		name: nameOf(e),
		fit: func(ctx context.Context, input data.View) async.Awaitable[Transformer] {
			return async.Then(e.FitAsync(ctx, input), func(t T) (Transformer, error) { return t, nil })
		},
		schema: e.OutputSchemaAsync,
	}
}

// NewChain returns an empty chain. Fitting it yields the identity transformer.
func NewChain[T Transformer](opts ...Option) *Chain[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Chain[T]{opts: o}
}

// Append returns a new chain of c's stages followed by e. The options of c
// carry over. It panics if e is nil.
func Append[L, N Transformer](c *Chain[L], e Estimator[N]) *Chain[N] {
	if c == nil {
		c = NewChain[L]()
	}
	// Full slice expression: a shared prefix is never written through.
	stages := append(c.stages[:len(c.stages):len(c.stages)], newStage(e))
	return &Chain[N]{stages: stages, opts: c.opts}
}

// Append returns a new chain of c's stages followed by e.
func (c *Chain[T]) Append(e Estimator[T]) *Chain[T] {
	return Append(c, e)
}

// Len returns the number of stages.
func (c *Chain[T]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.stages)
}

// Name returns the chain name.
func (c *Chain[T]) Name() string {
	if c == nil {
		return defaultOptions().name
	}
	return c.opts.name
}

// StageNames returns the stage names in order.
func (c *Chain[T]) StageNames() []string {
	names := make([]string, c.Len())
	for i := range names {
		names[i] = c.stages[i].name
	}
	return names
}

type fitState struct {
	view    data.View
	fitted  []Transformer
	results []StageResult
}

// FitAsync fits every stage in order. The first failure aborts the fit with
// an OperationError naming the stage and wrapping the cause.
func (c *Chain[T]) FitAsync(ctx context.Context, input data.View) async.Awaitable[*TransformerChain[T]] {
	if c == nil {
		c = NewChain[T]()
	}
	start := time.Now()
	c.fitStarted()

	fold := async.Fold(ctx, len(c.stages), fitState{view: input}, c.fitStage)
	return async.Handle(fold, func(st fitState, err error) (*TransformerChain[T], error) {
		c.fitFinished(time.Since(start), err)
		if err != nil {
			return nil, err
		}
		return &TransformerChain[T]{transformers: st.fitted, stages: st.results}, nil
	})
}

func (c *Chain[T]) fitStage(ctx context.Context, i int, cur fitState) async.Awaitable[fitState] {
	st := c.stages[i]
	if c.opts.hooks.OnStageStart != nil {
		c.opts.hooks.OnStageStart(c.opts.name, i, st.name)
	}
	c.opts.logger.Debug("fitting stage",
		slog.String("chain", c.opts.name),
		slog.Int("stage", i),
		slog.String("name", st.name))

	start := time.Now()
	return async.Handle(st.fit(ctx, cur.view), func(xf Transformer, err error) (fitState, error) {
		var out data.View
		if err == nil {
			out, err = xf.Transform(ctx, cur.view)
		}
		res := StageResult{
			Chain:    c.opts.name,
			Name:     st.name,
			Index:    i,
			Duration: time.Since(start),
			Error:    err,
		}
		c.stageFinished(res)
		if err != nil {
			return fitState{}, c.stageError("fit", res)
		}
		return fitState{
			view:    out,
			fitted:  append(cur.fitted, xf),
			results: append(cur.results, res),
		}, nil
	})
}

// OutputSchemaAsync propagates input through every stage's schema logic in
// order without touching data.
func (c *Chain[T]) OutputSchemaAsync(ctx context.Context, input schema.Shape) async.Awaitable[schema.Shape] {
	if c == nil {
		c = NewChain[T]()
	}
	fold := async.Fold(ctx, len(c.stages), input, func(ctx context.Context, i int, cur schema.Shape) async.Awaitable[schema.Shape] {
		st := c.stages[i]
		return async.Handle(st.schema(ctx, cur), func(out schema.Shape, err error) (schema.Shape, error) {
			if err != nil {
				return schema.Shape{}, c.stageError("schema", StageResult{Chain: c.opts.name, Name: st.name, Index: i, Error: err})
			}
			return out, nil
		})
	})
	return async.Handle(fold, func(out schema.Shape, err error) (schema.Shape, error) {
		if c.opts.metrics != nil {
			c.opts.metrics.SchemaChecks.WithLabelValues(c.opts.name, reason(err)).Inc()
		}
		return out, err
	})
}

func (c *Chain[T]) stageError(operation string, res StageResult) error {
	return gferrors.NewOperationError("estimator", operation, res.Error).
		WithContext(fmt.Sprintf("chain %q stage %d %q", res.Chain, res.Index, res.Name))
}

func (c *Chain[T]) fitStarted() {
	if c.opts.metrics != nil {
		c.opts.metrics.FitsStarted.WithLabelValues(c.opts.name).Inc()
	}
}

func (c *Chain[T]) stageFinished(res StageResult) {
	if c.opts.hooks.OnStageComplete != nil {
		c.opts.hooks.OnStageComplete(res)
	}
	if c.opts.metrics != nil {
		c.opts.metrics.StageDuration.WithLabelValues(res.Chain, res.Name).Observe(res.Duration.Seconds())
	}
	if res.Error == nil {
		return
	}
	if c.opts.hooks.OnError != nil {
		c.opts.hooks.OnError(res)
	}
	c.opts.logger.Warn("stage failed",
		slog.String("chain", res.Chain),
		slog.Int("stage", res.Index),
		slog.String("name", res.Name),
		slog.Any("error", res.Error))
}

func (c *Chain[T]) fitFinished(d time.Duration, err error) {
	if c.opts.metrics != nil {
		c.opts.metrics.FitDuration.WithLabelValues(c.opts.name).Observe(d.Seconds())
		if err != nil {
			c.opts.metrics.FitsFailed.WithLabelValues(c.opts.name, reason(err)).Inc()
		} else {
			c.opts.metrics.FitsCompleted.WithLabelValues(c.opts.name).Inc()
		}
	}
	if err == nil {
		c.opts.logger.Debug("chain fitted",
			slog.String("chain", c.opts.name),
			slog.Int("stages", len(c.stages)),
			slog.Duration("duration", d))
	}
}

// reason classifies err for metric labels.
func reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case gferrors.IsCanceled(err):
		return "canceled"
	case gferrors.IsSchemaError(err):
		return "schema"
	default:
		return "error"
	}
}

// TransformerChain is the result of fitting a Chain: the fitted
// transformers, applied in order.
type TransformerChain[T Transformer] struct {
	transformers []Transformer
	stages       []StageResult
}

// Transformers returns the fitted transformers in stage order.
func (tc *TransformerChain[T]) Transformers() []Transformer {
	out := make([]Transformer, len(tc.transformers))
	copy(out, tc.transformers)
	return out
}

// Last returns the transformer fitted by the final stage, or the zero T for
// an empty chain.
func (tc *TransformerChain[T]) Last() T {
	if len(tc.transformers) == 0 {
		var zero T
		return zero
	}
	return tc.transformers[len(tc.transformers)-1].(T)
}

// Len returns the number of transformers.
func (tc *TransformerChain[T]) Len() int {
	return len(tc.transformers)
}

// Stages returns per-stage timings of the fit that produced tc.
func (tc *TransformerChain[T]) Stages() []StageResult {
	out := make([]StageResult, len(tc.stages))
	copy(out, tc.stages)
	return out
}

// OutputSchema applies each transformer's schema mapping in order.
func (tc *TransformerChain[T]) OutputSchema(input *schema.Schema) (*schema.Schema, error) {
	cur := input
	for i, xf := range tc.transformers {
		next, err := xf.OutputSchema(cur)
		if err != nil {
			return nil, gferrors.NewOperationError("estimator", "schema", err).
				WithContext(fmt.Sprintf("transformer %d", i))
		}
		cur = next
	}
	return cur, nil
}

// Transform applies each transformer in order.
func (tc *TransformerChain[T]) Transform(ctx context.Context, input data.View) (data.View, error) {
	cur := input
	for i, xf := range tc.transformers {
		if err := ctx.Err(); err != nil {
			return nil, gferrors.NewCanceledError(err)
		}
		next, err := xf.Transform(ctx, cur)
		if err != nil {
			return nil, gferrors.NewOperationError("estimator", "transform", err).
				WithContext(fmt.Sprintf("transformer %d", i))
		}
		cur = next
	}
	return cur, nil
}
