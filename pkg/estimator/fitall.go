package estimator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/data"
)

// FitAll fits independent estimators on the same input concurrently, at most
// limit at a time (no limit when limit <= 0). Results are in argument order.
// The first failure cancels the remaining fits and is returned.
func FitAll[T Transformer](ctx context.Context, input data.View, limit int, ests ...Estimator[T]) ([]T, error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]T, len(ests))
	for i, est := range ests {
		g.Go(func() error {
			v, err := est.FitAsync(gctx, input).Await(gctx)
			if err != nil {
				return gferrors.NewOperationError("estimator", "fit", err).
					WithContext(fmt.Sprintf("estimator %d %q", i, nameOf(est)))
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
