package async

import (
	"sync"
	"sync/atomic"
)

// closed is returned by Done for values that are already available.
var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

type continuation struct {
	fn      func()
	trusted bool
}

func (c continuation) run() {
	if c.trusted {
		c.fn()
		return
	}
	go c.fn()
}

// promise is the shared state behind a pending Awaitable.
type promise[T any] struct {
	mu     sync.Mutex
	done   atomic.Bool
	value  T
	err    error
	conts  []continuation
	signal chan struct{}
}

// complete stores the outcome and runs registered continuations.
// It returns false if the promise was already completed.
func (p *promise[T]) complete(value T, err error) bool {
	p.mu.Lock()
	if p.done.Load() {
		p.mu.Unlock()
		return false
	}
	p.value, p.err = value, err
	p.done.Store(true)
	conts := p.conts
	p.conts = nil
	if p.signal != nil {
		close(p.signal)
	}
	p.mu.Unlock()

	for _, c := range conts {
		c.run()
	}
	return true
}

func (p *promise[T]) register(fn func(), trusted bool) {
	p.mu.Lock()
	if !p.done.Load() {
		p.conts = append(p.conts, continuation{fn: fn, trusted: trusted})
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	fn()
}

func (p *promise[T]) wait() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done.Load() {
		return closed
	}
	if p.signal == nil {
		p.signal = make(chan struct{})
	}
	return p.signal
}
