package guard

import (
	"io"
	"sync"
)

// Local owns a resource until the end of a scope. Close releases it unless
// Extract transferred ownership out first.
//
//	l := guard.NewLocal(f)
//	defer l.Close()
//	if err := prepare(l.Value()); err != nil {
//		return nil, err // f is closed
//	}
//	return l.Extract(), nil // caller owns f
type Local[T io.Closer] struct {
	mu    sync.Mutex
	value T
	owned bool
}

// NewLocal takes ownership of v.
func NewLocal[T io.Closer](v T) *Local[T] {
	return &Local[T]{value: v, owned: true}
}

// Value returns the guarded resource without changing ownership. After
// Extract or Close it returns the zero value.
func (l *Local[T]) Value() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

// Owned reports whether Close would still release the resource.
func (l *Local[T]) Owned() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owned
}

// Extract transfers ownership to the caller. Close becomes a no-op.
// A second Extract returns the zero value.
func (l *Local[T]) Extract() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.value
	var zero T
	l.value = zero
	l.owned = false
	return v
}

// Close releases the resource if it is still owned. Only the first call has
// an effect; later calls return nil.
func (l *Local[T]) Close() error {
	l.mu.Lock()
	if !l.owned {
		l.mu.Unlock()
		return nil
	}
	v := l.value
	var zero T
	l.value = zero
	l.owned = false
	l.mu.Unlock()
	return v.Close()
}
