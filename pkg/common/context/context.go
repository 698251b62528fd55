// Package context maps context cancellation onto the library's error taxonomy.
package context

import (
	"context"
	"time"

	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
)

// Err returns a CanceledError wrapping ctx.Err() once ctx is done, nil otherwise.
func Err(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return gferrors.NewCanceledError(err)
	}
	return nil
}

// Wrap returns err unchanged while ctx is live and Err(ctx) once it is done.
// A nil err stays nil.
func Wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if cerr := Err(ctx); cerr != nil {
		return cerr
	}
	return err
}

// WithOptionalTimeout bounds ctx by d. A non-positive d leaves ctx unbounded.
func WithOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
