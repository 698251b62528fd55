/*
Package machinelearning provides fitchain, a Go library for composing and
fitting data-processing pipelines.

Core (pkg/async, pkg/estimator):
  - async: Awaitable results, a state-machine builder and combinators
  - estimator: estimator chains, trivial estimators and composite loader estimators

Data (pkg/schema, pkg/data):
  - schema: column schemas, shapes and requirements, with YAML declarations
  - data: immutable in-memory tables and a record loader

Transforms (pkg/transforms):
  - Lp and global contrast normalization, one-hot encoding, hashed text features

Resources (pkg/resource):
  - guard: scoped ownership of disposables and semaphore permits
  - semaphore: FIFO semaphore with cancellable waits, plus a Redis-backed variant

Operations (pkg/refresh, pkg/metrics):
  - refresh: cron-scheduled refits with atomic publication
  - metrics: Prometheus instrumentation

Example usage:

	import (
		"github.com/sharwell/machinelearning/pkg/data"
		"github.com/sharwell/machinelearning/pkg/estimator"
		"github.com/sharwell/machinelearning/pkg/transforms"
	)

	hasher, _ := transforms.NewTextHasher(transforms.Same("Text"), 10)
	chain := estimator.NewChain[*transforms.TextHashTransformer]().Append(hasher)

	root := estimator.NewTrivialLoaderEstimator[data.Records](data.NewRecordLoader(s))
	composite, _ := estimator.NewCompositeLoaderEstimator[data.Records, *data.RecordLoader](root, chain)

	loader, err := composite.FitAsync(ctx, records).Await(ctx)
	if err != nil {
		return err
	}
	view, err := loader.Load(ctx, records)

See the examples/ directory for complete programs.
*/
package machinelearning
