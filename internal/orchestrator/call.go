package orchestrator

import (
	"context"
	"time"
)

type callResult[T any] struct {
	value T
	err   error
}

// callWithContext runs fn and returns as soon as either fn finishes or ctx is
// done. A call that ignores ctx keeps running in the background and its
// result is dropped.
func callWithContext[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	done := make(chan callResult[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- callResult[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
