package async

import (
	"runtime/debug"
	"sync/atomic"
)

// StateMachine is a resumable computation. MoveNext runs it until it either
// finishes or registers itself to be resumed when something it awaits
// completes.
type StateMachine interface {
	MoveNext()
}

// Builder drives a StateMachine and publishes its outcome as an Awaitable.
//
// The promise behind Task is created on first use and published with a
// compare-and-swap, so concurrent callers of Task, SetResult and
// SetException all converge on the same instance.
type Builder[T any] struct {
	task atomic.Pointer[promise[T]]
	sm   atomic.Pointer[StateMachine]
}

// NewBuilder creates a Builder with no outcome.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

func (b *Builder[T]) promise() *promise[T] {
	if p := b.task.Load(); p != nil {
		return p
	}
	p := &promise[T]{}
	if b.task.CompareAndSwap(nil, p) {
		return p
	}
	return b.task.Load()
}

// Task returns the canonical Awaitable for this builder.
func (b *Builder[T]) Task() Awaitable[T] {
	return Awaitable[T]{p: b.promise()}
}

// Start runs sm until its first suspension.
func (b *Builder[T]) Start(sm StateMachine) {
	b.step(sm)
}

// SetStateMachine associates sm with the builder. It may be called once.
func (b *Builder[T]) SetStateMachine(sm StateMachine) {
	if !b.sm.CompareAndSwap(nil, &sm) {
		panic("async: state machine already set")
	}
}

// SetResult completes the task with v. It panics if the task is already complete.
func (b *Builder[T]) SetResult(v T) {
	if !b.promise().complete(v, nil) {
		panic("async: result already set")
	}
}

// SetException completes the task with err. It panics if the task is already complete.
func (b *Builder[T]) SetException(err error) {
	if err == nil {
		panic("async: SetException with nil error")
	}
	var zero T
	if !b.promise().complete(zero, err) {
		panic("async: result already set")
	}
}

// AwaitOnCompleted resumes sm after n completes, off the completing goroutine.
func (b *Builder[T]) AwaitOnCompleted(n Notifier, sm StateMachine) {
	n.OnCompleted(func() { b.step(sm) })
}

// AwaitUnsafeOnCompleted resumes sm inline on the goroutine that completes n.
func (b *Builder[T]) AwaitUnsafeOnCompleted(n Notifier, sm StateMachine) {
	n.UnsafeOnCompleted(func() { b.step(sm) })
}

// settle completes the task with an outcome pair.
func (b *Builder[T]) settle(v T, err error) {
	if err != nil {
		b.SetException(err)
		return
	}
	b.SetResult(v)
}

// step runs MoveNext, converting a panic into a failed task.
func (b *Builder[T]) step(sm StateMachine) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			b.promise().complete(zero, &PanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	sm.MoveNext()
}
