package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sharwell/machinelearning/internal/testutil"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/resource/semaphore"
)

type closer struct {
	closes int
	err    error
}

func (c *closer) Close() error {
	c.closes++
	return c.err
}

func TestLocalClosesOnce(t *testing.T) {
	c := &closer{err: errors.New("flush failed")}
	l := NewLocal(c)
	testutil.AssertEqual(t, l.Value(), c)
	testutil.AssertEqual(t, l.Owned(), true)

	testutil.AssertEqual(t, l.Close(), c.err)
	testutil.AssertNoError(t, l.Close())
	testutil.AssertEqual(t, c.closes, 1)
	testutil.AssertEqual(t, l.Owned(), false)
}

func TestLocalExtract(t *testing.T) {
	c := &closer{}
	l := NewLocal(c)

	got := l.Extract()
	testutil.AssertEqual(t, got, c)
	testutil.AssertNoError(t, l.Close())
	testutil.AssertEqual(t, c.closes, 0)
	if l.Value() != nil {
		t.Error("Value after Extract should be nil")
	}
	if l.Extract() != nil {
		t.Error("second Extract should return nil")
	}
}

func TestLocalReleasesOnPanic(t *testing.T) {
	c := &closer{}
	func() {
		defer func() { _ = recover() }()
		l := NewLocal(c)
		defer l.Close()
		panic("fault between acquisition and use")
	}()
	testutil.AssertEqual(t, c.closes, 1)
}

func newSem(t *testing.T, capacity int) semaphore.Semaphore {
	t.Helper()
	sem, err := semaphore.New(capacity)
	testutil.AssertNoError(t, err)
	return sem
}

func TestAcquireRelease(t *testing.T) {
	sem := newSem(t, 2)

	r, err := Acquire(context.Background(), sem)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sem.Available(), 1)

	r.Release()
	r.Release()
	testutil.AssertNoError(t, r.Close())
	testutil.AssertEqual(t, sem.Available(), 2)
}

func TestAcquireCanceledBeforeWait(t *testing.T) {
	sem := newSem(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := Acquire(ctx, sem)
	if r != nil {
		t.Fatal("expected no releaser")
	}
	testutil.AssertEqual(t, gferrors.IsCanceled(err), true)
	testutil.AssertEqual(t, sem.Available(), 1)
}

func TestAcquireCanceledWhileWaiting(t *testing.T) {
	sem := newSem(t, 1)
	held, err := Acquire(context.Background(), sem)
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = Acquire(ctx, sem)
	testutil.AssertEqual(t, gferrors.IsCanceled(err), true)
	testutil.AssertEqual(t, errors.Is(err, context.DeadlineExceeded), true)
	testutil.AssertEqual(t, sem.Available(), 0)

	held.Release()
	testutil.AssertEqual(t, sem.Available(), 1)
}

type brokenSemaphore struct{ err error }

func (b brokenSemaphore) Wait(context.Context) error { return b.err }
func (b brokenSemaphore) Release()                   { panic("nothing to release") }

func TestAcquireFailureIsNotCancellation(t *testing.T) {
	boom := errors.New("backend down")
	_, err := Acquire(context.Background(), brokenSemaphore{err: boom})
	testutil.AssertEqual(t, err, boom)
	testutil.AssertEqual(t, gferrors.IsCanceled(err), false)
}

func TestAcquireAsyncCompletesInline(t *testing.T) {
	sem := newSem(t, 1)

	a := AcquireAsync(context.Background(), sem)
	testutil.AssertEqual(t, a.IsCompleted(), true)
	r, err := a.Result()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sem.InUse(), 1)
	r.Release()
	testutil.AssertEqual(t, sem.Available(), 1)
}

func TestAcquireAsyncSuspendsUntilRelease(t *testing.T) {
	sem := newSem(t, 1)
	held, err := Acquire(context.Background(), sem)
	testutil.AssertNoError(t, err)

	a := AcquireAsync(context.Background(), sem)
	testutil.AssertEqual(t, a.IsCompleted(), false)

	tracker := testutil.NewCallbackTracker()
	a.OnCompleted(func() { tracker.Mark() })

	held.Release()
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	r, err := a.Await(ctx)
	testutil.AssertNoError(t, err)
	testutil.Eventually(t, tracker.Called, time.Second, time.Millisecond)
	testutil.AssertEqual(t, sem.InUse(), 1)
	r.Release()
	testutil.AssertEqual(t, sem.Available(), 1)
}

func TestAcquireAsyncCanceled(t *testing.T) {
	sem := newSem(t, 1)
	held, err := Acquire(context.Background(), sem)
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	a := AcquireAsync(ctx, sem)
	cancel()

	<-a.Done()
	_, err = a.Result()
	testutil.AssertEqual(t, gferrors.IsCanceled(err), true)
	testutil.AssertEqual(t, sem.Available(), 0)
	testutil.AssertEqual(t, sem.InUse(), 1)

	held.Release()
	testutil.AssertEqual(t, sem.Available(), 1)
}

func TestDoReleasesOnEveryPath(t *testing.T) {
	sem := newSem(t, 1)
	boom := errors.New("fit failed")

	err := Do(context.Background(), sem, func(context.Context) error { return nil })
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sem.Available(), 1)

	err = Do(context.Background(), sem, func(context.Context) error { return boom })
	testutil.AssertEqual(t, err, boom)
	testutil.AssertEqual(t, sem.Available(), 1)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = Do(context.Background(), sem, func(context.Context) error { panic("boom") })
	}()
	testutil.AssertEqual(t, sem.Available(), 1)
}

func TestReleaserHeldByLocal(t *testing.T) {
	sem := newSem(t, 1)
	r, err := Acquire(context.Background(), sem)
	testutil.AssertNoError(t, err)

	l := NewLocal(r)
	testutil.AssertNoError(t, l.Close())
	testutil.AssertEqual(t, sem.Available(), 1)

	// A direct release after the guard already released is a no-op.
	r.Release()
	testutil.AssertEqual(t, sem.Available(), 1)
}
