package async

import (
	"context"
	"fmt"

	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
)

// Notifier is the completion protocol consumed by Builder's await hooks.
type Notifier interface {
	IsCompleted() bool
	OnCompleted(fn func())
	UnsafeOnCompleted(fn func())
}

// Awaitable is a value of type T that is either available now or pending
// behind an asynchronous computation.
//
// Awaitables that already hold their outcome carry it inline and never
// allocate. The zero Awaitable is a completed zero value.
type Awaitable[T any] struct {
	value T
	err   error
	p     *promise[T]
}

// FromValue returns a completed Awaitable holding v.
func FromValue[T any](v T) Awaitable[T] {
	return Awaitable[T]{value: v}
}

// FromError returns a completed Awaitable holding err.
func FromError[T any](err error) Awaitable[T] {
	return Awaitable[T]{err: err}
}

// IsCompleted reports whether the outcome is available. It never blocks.
func (a Awaitable[T]) IsCompleted() bool {
	return a.p == nil || a.p.done.Load()
}

// OnCompleted registers fn to run exactly once when the outcome becomes
// available. If it already is, fn runs inline. Otherwise fn runs on its own
// goroutine after completion, so the completing code never executes it.
func (a Awaitable[T]) OnCompleted(fn func()) {
	if a.p == nil {
		fn()
		return
	}
	a.p.register(fn, false)
}

// UnsafeOnCompleted is like OnCompleted but runs fn inline on the goroutine
// that completes the Awaitable. fn must not block.
func (a Awaitable[T]) UnsafeOnCompleted(fn func()) {
	if a.p == nil {
		fn()
		return
	}
	a.p.register(fn, true)
}

// Result returns the value, or the captured failure exactly as it was set.
// It may be called any number of times after completion. Before completion
// it returns ErrNotCompleted.
func (a Awaitable[T]) Result() (T, error) {
	if a.p == nil {
		return a.value, a.err
	}
	if !a.p.done.Load() {
		var zero T
		return zero, gferrors.ErrNotCompleted
	}
	return a.p.value, a.p.err
}

// Done returns a channel that is closed once the outcome is available.
func (a Awaitable[T]) Done() <-chan struct{} {
	if a.p == nil {
		return closed
	}
	return a.p.wait()
}

// Await blocks until the outcome is available or ctx is done. Abandoning the
// wait returns a CanceledError and leaves the computation running.
func (a Awaitable[T]) Await(ctx context.Context) (T, error) {
	if a.IsCompleted() {
		return a.Result()
	}
	select {
	case <-a.Done():
		return a.Result()
	case <-ctx.Done():
		var zero T
		return zero, gferrors.NewCanceledError(ctx.Err())
	}
}

// PanicError carries a panic recovered from asynchronous code.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("async: panic: %v", e.Value)
}
