package semaphore

import (
	"context"
	"time"

	"github.com/sharwell/machinelearning/pkg/metrics"
)

// meteredSemaphore reports permit usage of a wrapped Semaphore to Prometheus.
type meteredSemaphore struct {
	Semaphore
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates an in-process semaphore that reports to the
// registry resolved from config under the given name.
func NewWithMetrics(capacity int, name string, config metrics.Config) (Semaphore, error) {
	sem, err := New(capacity)
	if err != nil {
		return nil, err
	}
	return Instrument(sem, name, metrics.For(config)), nil
}

// Instrument wraps sem so that it reports to registry. A nil registry
// returns sem unchanged.
func Instrument(sem Semaphore, name string, registry *metrics.Registry) Semaphore {
	if registry == nil {
		return sem
	}
	ms := &meteredSemaphore{Semaphore: sem, name: name, registry: registry}
	ms.updateActive()
	return ms
}

func (ms *meteredSemaphore) updateActive() {
	ms.registry.PermitsActive.WithLabelValues(ms.name).Set(float64(ms.Semaphore.InUse()))
}

func (ms *meteredSemaphore) TryAcquire() bool {
	return ms.TryAcquireN(1)
}

func (ms *meteredSemaphore) TryAcquireN(n int) bool {
	ok := ms.Semaphore.TryAcquireN(n)
	ms.updateActive()
	return ok
}

func (ms *meteredSemaphore) Wait(ctx context.Context) error {
	return ms.WaitN(ctx, 1)
}

func (ms *meteredSemaphore) WaitN(ctx context.Context, n int) error {
	start := time.Now()
	waiting := ms.registry.PermitsWaiting.WithLabelValues(ms.name)
	waiting.Inc()

	err := ms.Semaphore.WaitN(ctx, n)

	waiting.Dec()
	ms.registry.PermitWaitTime.WithLabelValues(ms.name).Observe(time.Since(start).Seconds())
	ms.updateActive()
	return err
}

func (ms *meteredSemaphore) Release() {
	ms.ReleaseN(1)
}

func (ms *meteredSemaphore) ReleaseN(n int) {
	ms.Semaphore.ReleaseN(n)
	ms.updateActive()
}

func (ms *meteredSemaphore) SetCapacity(capacity int) {
	ms.Semaphore.SetCapacity(capacity)
	ms.updateActive()
}
