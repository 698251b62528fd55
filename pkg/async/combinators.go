package async

import (
	"context"
	"runtime/debug"

	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
)

// Run starts fn on its own goroutine and returns its eventual outcome.
// A panic in fn becomes a *PanicError. If ctx is already done fn is not started.
func Run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) Awaitable[T] {
	if err := gfcontext.Err(ctx); err != nil {
		return FromError[T](err)
	}
	b := NewBuilder[T]()
	task := b.Task()
	go func() {
		v, err := protect(func() (T, error) { return fn(ctx) })
		b.settle(v, err)
	}()
	return task
}

// Then maps the value of a through fn. Failures of a pass through unchanged.
// A completed input is mapped inline without allocating.
func Then[T, U any](a Awaitable[T], fn func(T) (U, error)) Awaitable[U] {
	if a.IsCompleted() {
		return mapResult(a, fn)
	}
	b := NewBuilder[U]()
	a.UnsafeOnCompleted(func() {
		next := mapResult(a, fn)
		v, err := next.Result()
		b.settle(v, err)
	})
	return b.Task()
}

// Bind chains an asynchronous step after a. Failures of a pass through unchanged.
func Bind[T, U any](a Awaitable[T], fn func(T) Awaitable[U]) Awaitable[U] {
	if a.IsCompleted() {
		return bindResult(a, fn)
	}
	b := NewBuilder[U]()
	a.UnsafeOnCompleted(func() {
		next := bindResult(a, fn)
		next.UnsafeOnCompleted(func() {
			v, err := next.Result()
			b.settle(v, err)
		})
	})
	return b.Task()
}

// Handle maps the outcome of a through fn, whether it succeeded or failed.
// Unlike Then, fn sees the error and may replace or wrap it.
func Handle[T, U any](a Awaitable[T], fn func(T, error) (U, error)) Awaitable[U] {
	if a.IsCompleted() {
		return handleResult(a, fn)
	}
	b := NewBuilder[U]()
	a.UnsafeOnCompleted(func() {
		v, err := handleResult(a, fn).Result()
		b.settle(v, err)
	})
	return b.Task()
}

func handleResult[T, U any](a Awaitable[T], fn func(T, error) (U, error)) Awaitable[U] {
	v, err := a.Result()
	u, err := protect(func() (U, error) { return fn(v, err) })
	if err != nil {
		return FromError[U](err)
	}
	return FromValue(u)
}

func mapResult[T, U any](a Awaitable[T], fn func(T) (U, error)) Awaitable[U] {
	v, err := a.Result()
	if err != nil {
		return FromError[U](err)
	}
	u, err := protect(func() (U, error) { return fn(v) })
	if err != nil {
		return FromError[U](err)
	}
	return FromValue(u)
}

func bindResult[T, U any](a Awaitable[T], fn func(T) Awaitable[U]) Awaitable[U] {
	v, err := a.Result()
	if err != nil {
		return FromError[U](err)
	}
	next, err := protect(func() (Awaitable[U], error) { return fn(v), nil })
	if err != nil {
		return FromError[U](err)
	}
	return next
}

func protect[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Fold runs step for i = 0..n-1, feeding each step the previous step's value,
// starting from init. Steps never overlap: step i+1 starts only after step i
// has completed. The first failure ends the fold, and ctx is checked at every
// step boundary. While steps complete synchronously Fold runs inline and
// allocates nothing.
func Fold[S any](ctx context.Context, n int, init S, step func(ctx context.Context, i int, cur S) Awaitable[S]) Awaitable[S] {
	m := &foldMachine[S]{ctx: ctx, n: n, step: step, cur: init}
	if done, err := m.advance(); done {
		if err != nil {
			return FromError[S](err)
		}
		return FromValue(m.cur)
	}
	m.b = NewBuilder[S]()
	m.b.SetStateMachine(m)
	task := m.b.Task()
	m.b.AwaitUnsafeOnCompleted(m.pending, m)
	return task
}

type foldMachine[S any] struct {
	b       *Builder[S]
	ctx     context.Context
	n       int
	i       int
	step    func(context.Context, int, S) Awaitable[S]
	cur     S
	pending Awaitable[S]
	waiting bool
}

// advance runs steps until one suspends or the fold ends.
func (m *foldMachine[S]) advance() (done bool, err error) {
	for {
		if m.waiting {
			m.waiting = false
			v, err := m.pending.Result()
			m.pending = Awaitable[S]{}
			if err != nil {
				return true, err
			}
			m.cur = v
			m.i++
		}
		if m.i >= m.n {
			return true, nil
		}
		if err := gfcontext.Err(m.ctx); err != nil {
			return true, err
		}
		m.pending, err = protect(func() (Awaitable[S], error) { return m.step(m.ctx, m.i, m.cur), nil })
		if err != nil {
			return true, err
		}
		m.waiting = true
		if !m.pending.IsCompleted() {
			return false, nil
		}
	}
}

func (m *foldMachine[S]) MoveNext() {
	done, err := m.advance()
	if !done {
		m.b.AwaitUnsafeOnCompleted(m.pending, m)
		return
	}
	if err != nil {
		m.b.SetException(err)
		return
	}
	m.b.SetResult(m.cur)
}
