/*
Package async provides Awaitable, a lightweight handle to a value that is
either already available or still being computed, and Builder, the driver
that completes one.

Synchronous and asynchronous engines share one contract: a synchronous
engine returns FromValue or FromError, which carries the outcome inline
with no allocation and no goroutine; an asynchronous engine returns the
Task of a Builder (or uses Run) and completes it later.

# Consuming

	a := est.FitAsync(ctx, view)
	xf, err := a.Await(ctx)

Or without blocking:

	a.UnsafeOnCompleted(func() {
		xf, err := a.Result()
		// ...
	})

Result re-returns a captured failure verbatim on every call. Continuations
run exactly once.

# Producing

	b := async.NewBuilder[int]()
	go func() { b.SetResult(compute()) }()
	return b.Task()

# Composing

Then maps a value, Bind chains another asynchronous step, and Fold runs a
strictly sequential series of steps, checking cancellation between them.
None of them polls: each resumes from a continuation registered on the
Awaitable it waits for.
*/
package async
