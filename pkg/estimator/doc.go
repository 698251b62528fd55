/*
Package estimator composes estimators into chains and fits them as one unit.

An Estimator learns a Transformer from data. Estimators declare their schema
logic separately from fitting, so a chain can be checked against a
schema.Shape cheaply before any data is touched:

	norm, err := transforms.NewLpNormalizer(pairs, transforms.L2, false)
	if err != nil {
		return err
	}
	chain := estimator.NewChain[*transforms.LpNormalizerTransformer](estimator.WithName("features")).
		Append(norm)

	if _, err := chain.OutputSchemaAsync(ctx, schema.ShapeOf(view.Schema())).Await(ctx); err != nil {
		return err // a SchemaError naming the offending stage
	}
	fitted, err := chain.FitAsync(ctx, view).Await(ctx)

# Chains

Chains are immutable. Append returns a new chain and leaves the receiver
alone, so several chains can share one prefix. The free function Append
changes the chain's terminal transformer type; the method keeps it.

FitAsync fits stage i on the output of the transformers fitted before it.
Stages never overlap, the first failure aborts the fit, and every call starts
from scratch. Errors are OperationErrors whose context names the chain and
stage, wrapping the stage's own error.

Calling OutputSchemaAsync before FitAsync is optional. Estimators check their
input requirements when fitting too, and TrivialEstimator does so through
the wrapped transformer.

# Composites

CompositeLoaderEstimator binds a LoaderEstimator to a chain. Its FitAsync
fits the root, loads the source, fits the chain and returns a CompositeLoader,
which is itself a Loader. Construction performs no compatibility check.
Mismatches are reported by the first OutputSchemaAsync or FitAsync.

# Concurrency

Throttle limits how many fits of an estimator hold a semaphore permit at
once, and FitAll fits independent estimators concurrently.
*/
package estimator
