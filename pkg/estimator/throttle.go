package estimator

import (
	"context"

	"github.com/sharwell/machinelearning/pkg/async"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/resource/guard"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// Throttle returns an estimator that fits est only while holding a permit
// from sem. The permit is returned when the fit completes, fails or is
// abandoned. Schema propagation needs no permit.
func Throttle[T Transformer](est Estimator[T], sem guard.Semaphore) Estimator[T] {
	if est == nil {
		panic("estimator: nil estimator")
	}
	return &throttled[T]{est: est, sem: sem}
}

type throttled[T Transformer] struct {
	est Estimator[T]
	sem guard.Semaphore
}

func (t *throttled[T]) FitAsync(ctx context.Context, input data.View) async.Awaitable[T] {
	return async.Bind(guard.AcquireAsync(ctx, t.sem), func(r *guard.Releaser) async.Awaitable[T] {
		handed := false
		defer func() {
			if !handed {
				r.Release()
			}
		}()
		fit := t.est.FitAsync(ctx, input)
		handed = true
		fit.UnsafeOnCompleted(r.Release)
		return fit
	})
}

func (t *throttled[T]) OutputSchemaAsync(ctx context.Context, input schema.Shape) async.Awaitable[schema.Shape] {
	return t.est.OutputSchemaAsync(ctx, input)
}

func (t *throttled[T]) Name() string {
	return nameOf(t.est)
}
