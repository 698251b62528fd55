package guard

import (
	"context"
	"sync/atomic"

	"github.com/sharwell/machinelearning/pkg/async"
	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
)

// Semaphore is the counting primitive a permit guard draws from.
// Wait must return an error without taking a permit when ctx is done.
type Semaphore interface {
	Wait(ctx context.Context) error
	Release()
}

// Releaser holds exactly one permit until released.
type Releaser struct {
	sem      Semaphore
	released atomic.Bool
}

// Release returns the permit. Only the first call has an effect.
func (r *Releaser) Release() {
	if r == nil {
		return
	}
	if r.released.CompareAndSwap(false, true) {
		r.sem.Release()
	}
}

// Close releases the permit so that a Releaser can be held by a Local.
func (r *Releaser) Close() error {
	r.Release()
	return nil
}

// Acquire blocks until sem grants a permit. If ctx is done first no permit
// is taken and the error is a CanceledError.
func Acquire(ctx context.Context, sem Semaphore) (*Releaser, error) {
	if err := gfcontext.Err(ctx); err != nil {
		return nil, err
	}
	if err := sem.Wait(ctx); err != nil {
		return nil, gfcontext.Wrap(ctx, err)
	}
	return &Releaser{sem: sem}, nil
}

// AcquireAsync waits for a permit without blocking the caller. A permit
// granted after ctx is done is returned immediately and the result is a
// CanceledError, so an abandoned acquisition never holds a permit.
func AcquireAsync(ctx context.Context, sem Semaphore) async.Awaitable[*Releaser] {
	if t, ok := sem.(interface{ TryAcquire() bool }); ok && gfcontext.Err(ctx) == nil && t.TryAcquire() {
		return async.FromValue(&Releaser{sem: sem})
	}
	return async.Run(ctx, func(ctx context.Context) (*Releaser, error) {
		r, err := Acquire(ctx, sem)
		if err != nil {
			return nil, err
		}
		if err := gfcontext.Err(ctx); err != nil {
			r.Release()
			return nil, err
		}
		return r, nil
	})
}

// Do runs fn while holding a permit from sem. The permit is returned on every
// exit path, including a panic in fn.
func Do(ctx context.Context, sem Semaphore, fn func(ctx context.Context) error) error {
	r, err := Acquire(ctx, sem)
	if err != nil {
		return err
	}
	defer r.Release()
	return fn(ctx)
}
