/*
Package guard ties resource lifetimes to a scope.

Local owns an io.Closer and closes it on scope exit unless ownership was
moved out with Extract:

	l := guard.NewLocal(conn)
	defer l.Close()

Acquire and AcquireAsync take one permit from a Semaphore and return a
Releaser whose only effect is returning that permit. Release and Close are
idempotent, so a deferred release after an explicit one is harmless.

A wait abandoned through its context takes no permit and fails with a
CanceledError, which errors.IsCanceled tells apart from other failures.
*/
package guard
