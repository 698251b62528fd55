/*
Package semaphore provides counting semaphores that bound how many fits, or
any other resource-hungry operations, run at once.

New returns an in-process semaphore. Waiters are served strictly in arrival
order, and a wait abandoned through its context never changes the permit
count, even when a permit was granted at the same moment the context was
canceled.

	sem, err := semaphore.New(4)
	if err != nil {
		return err
	}
	if err := sem.Wait(ctx); err != nil {
		return err // a CanceledError when ctx is done
	}
	defer sem.Release()

NewWithMetrics and Instrument report active permits, queued waiters and
wait time to Prometheus.

NewRedis shares permits between processes. Each permit is a lease in a Redis
sorted set, taken and returned with Lua scripts so that concurrent processes
never oversubscribe. Leases expire after LeaseTTL, so a crashed holder frees
its slot eventually.

All implementations satisfy guard.Semaphore and can be used with guard.Acquire,
guard.AcquireAsync and estimator.Throttle.
*/
package semaphore
