package semaphore

import (
	"context"
	"fmt"
	"sync"

	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/common/validation"
)

// Semaphore bounds the number of concurrent holders of a resource.
// It satisfies guard.Semaphore.
type Semaphore interface {
	// TryAcquire takes one permit if one is free. It never blocks.
	TryAcquire() bool

	// TryAcquireN takes n permits if all are free. It never blocks.
	TryAcquireN(n int) bool

	// Wait blocks until a permit is taken or ctx is done. A canceled wait
	// returns a CanceledError and leaves the permit count unchanged.
	Wait(ctx context.Context) error

	// WaitN blocks until n permits are taken or ctx is done. Asking for more
	// than Capacity permits fails at once with ErrCapacityExceeded.
	WaitN(ctx context.Context, n int) error

	// Release returns one permit.
	// It panics if more permits are released than were acquired.
	Release()

	// ReleaseN returns n permits.
	ReleaseN(n int)

	// SetCapacity changes the maximum number of permits. A reduction below
	// current usage takes effect as holders release. Queued waiters asking
	// for more than the new capacity fail with ErrCapacityExceeded.
	SetCapacity(capacity int)

	// Capacity returns the maximum number of permits.
	Capacity() int

	// Available returns the number of free permits.
	Available() int

	// InUse returns the number of permits currently held.
	InUse() int
}

// Config holds configuration options for creating a Semaphore.
type Config struct {
	// Capacity is the maximum number of permits.
	Capacity int

	// InitialAvailable is the number of permits free at creation.
	// If negative or greater than Capacity, defaults to Capacity.
	InitialAvailable int
}

type fifoSemaphore struct {
	mu        sync.Mutex
	capacity  int
	available int
	inUse     int
	waiters   []*waiter
}

type waiter struct {
	n     int
	ready chan struct{}
	err   error // set before ready is closed when the wait is rejected
}

// New creates a semaphore with capacity free permits.
func New(capacity int) (Semaphore, error) {
	return NewWithConfig(Config{
		Capacity:         capacity,
		InitialAvailable: -1,
	})
}

// NewWithConfig creates a semaphore from config.
func NewWithConfig(config Config) (Semaphore, error) {
	if err := validation.ValidatePositive("semaphore", "capacity", config.Capacity); err != nil {
		return nil, err
	}

	initialAvailable := config.InitialAvailable
	if initialAvailable < 0 || initialAvailable > config.Capacity {
		initialAvailable = config.Capacity
	}

	return &fifoSemaphore{
		capacity:  config.Capacity,
		available: initialAvailable,
		inUse:     config.Capacity - initialAvailable,
	}, nil
}

func (s *fifoSemaphore) TryAcquire() bool {
	return s.TryAcquireN(1)
}

func (s *fifoSemaphore) TryAcquireN(n int) bool {
	if n <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Queued waiters go first.
	if len(s.waiters) == 0 && s.available >= n {
		s.available -= n
		s.inUse += n
		return true
	}
	return false
}

func (s *fifoSemaphore) Wait(ctx context.Context) error {
	return s.WaitN(ctx, 1)
}

func (s *fifoSemaphore) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if err := gfcontext.Err(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if n > s.capacity {
		err := capacityError(n, s.capacity)
		s.mu.Unlock()
		return err
	}
	if len(s.waiters) == 0 && s.available >= n {
		s.available -= n
		s.inUse += n
		s.mu.Unlock()
		return nil
	}

	w := &waiter{n: n, ready: make(chan struct{})}
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case <-w.ready:
		return w.err
	case <-ctx.Done():
		s.mu.Lock()
		select {
		case <-w.ready:
			if w.err != nil {
				s.mu.Unlock()
				return w.err
			}
			// Granted while we were being canceled; give the permits back.
			s.inUse -= n
			s.available = max(s.capacity-s.inUse, 0)
		default:
			s.removeWaiter(w)
		}
		s.notifyWaiters()
		s.mu.Unlock()
		return gfcontext.Err(ctx)
	}
}

func (s *fifoSemaphore) Release() {
	s.ReleaseN(1)
}

func (s *fifoSemaphore) ReleaseN(n int) {
	if n <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inUse < n {
		panic("semaphore: released more permits than acquired")
	}

	s.inUse -= n
	// Permits beyond a reduced capacity are retired instead of freed.
	s.available = s.capacity - s.inUse
	if s.available < 0 {
		s.available = 0
	}
	s.notifyWaiters()
}

func (s *fifoSemaphore) SetCapacity(capacity int) {
	if capacity <= 0 {
		panic("semaphore: capacity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.capacity = capacity
	s.available = capacity - s.inUse
	if s.available < 0 {
		s.available = 0
	}
	s.rejectOversized()
	s.notifyWaiters()
}

func (s *fifoSemaphore) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

func (s *fifoSemaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

func (s *fifoSemaphore) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inUse
}

// notifyWaiters grants permits to queued waiters in arrival order, stopping
// at the first one that cannot be satisfied. Must be called with s.mu held.
func (s *fifoSemaphore) notifyWaiters() {
	granted := 0
	for _, w := range s.waiters {
		if s.available < w.n {
			break
		}
		s.available -= w.n
		s.inUse += w.n
		close(w.ready)
		granted++
	}
	if granted > 0 {
		s.waiters = append(s.waiters[:0], s.waiters[granted:]...)
	}
}

// rejectOversized fails every queued waiter that can no longer be satisfied
// by the current capacity. Must be called with s.mu held.
func (s *fifoSemaphore) rejectOversized() {
	kept := s.waiters[:0]
	for _, w := range s.waiters {
		if w.n > s.capacity {
			w.err = capacityError(w.n, s.capacity)
			close(w.ready)
			continue
		}
		kept = append(kept, w)
	}
	clear(s.waiters[len(kept):])
	s.waiters = kept
}

func capacityError(n, capacity int) error {
	return fmt.Errorf("semaphore: %d permits requested, capacity is %d: %w", n, capacity, gferrors.ErrCapacityExceeded)
}

// removeWaiter drops w from the queue. Must be called with s.mu held.
func (s *fifoSemaphore) removeWaiter(w *waiter) {
	for i, queued := range s.waiters {
		if queued == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}
