package testutil

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventuallyWaitsForCondition(t *testing.T) {
	var ready atomic.Bool
	time.AfterFunc(20*time.Millisecond, func() { ready.Store(true) })

	start := time.Now()
	Eventually(t, ready.Load, time.Second, time.Millisecond)
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Eventually returned before the condition held")
	}
}

func TestCallbackTrackerConcurrentMarks(t *testing.T) {
	tracker := NewCallbackTracker()
	if tracker.Called() {
		t.Fatal("new tracker should not be called")
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Mark()
		}()
	}
	wg.Wait()
	tracker.AssertCallCount(t, 50)

	tracker.Mark("stage-2")
	AssertEqual(t, tracker.Value(), interface{}("stage-2"))
	tracker.Mark()
	AssertEqual(t, tracker.Value(), interface{}("stage-2"))

	tracker.Reset()
	AssertEqual(t, tracker.Called(), false)
	AssertEqual(t, tracker.Value(), nil)
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("WithTimeout should set a deadline")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > TestTimeout {
		t.Errorf("deadline in %v, want within %v", remaining, TestTimeout)
	}

	cancel()
	<-ctx.Done()
}

func TestAssertionsPass(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, errors.New("schema mismatch"))
	AssertEqual(t, "Features", "Features")
	AssertEqual(t, 3, 3)
	AssertNotEqual(t, uint64(1), uint64(2))
}
