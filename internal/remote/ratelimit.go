package remote

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Client so that every trigger and status query draws
// from one shared token bucket. Waiting for a token only ends early when ctx
// is cancelled.
type RateLimited struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter of rps requests per second.
// Parameters:
//   - next: client to delegate to.
//   - rps: sustained requests per second; zero or negative disables limiting.
//   - burst: bucket size; values below 1 are raised to 1.
//
// Returns:
//   - Client: next itself when limiting is disabled, otherwise the wrapper.
func NewRateLimited(next Client, rps float64, burst int) Client {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Trigger waits for a token, then delegates.
func (c *RateLimited) Trigger(ctx context.Context, groupID, subSourceID string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.next.Trigger(ctx, groupID, subSourceID)
}

// GetStatus waits for a token, then delegates.
func (c *RateLimited) GetStatus(ctx context.Context, groupID, subSourceID, jobID string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.next.GetStatus(ctx, groupID, subSourceID, jobID)
}

// wait blocks until a token is available. rate.Limiter.Wait fails fast when
// the delay would pass the ctx deadline; a reservation keeps waiting until
// the deadline actually fires so callers can tell a timeout from a failure.
func (c *RateLimited) wait(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return ErrRateLimitBurst
	}

	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
