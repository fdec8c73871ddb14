package remote

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls atomic.Int32
}

func (c *countingClient) Trigger(context.Context, string, string) (string, error) {
	c.calls.Add(1)
	return "job", nil
}

func (c *countingClient) GetStatus(context.Context, string, string, string) (string, error) {
	c.calls.Add(1)
	return "IN_PROGRESS", nil
}

func TestNewRateLimitedDisabled(t *testing.T) {
	next := &countingClient{}
	assert.Same(t, next, NewRateLimited(next, 0, 5))
}

func TestRateLimitedSpacesRequests(t *testing.T) {
	next := &countingClient{}
	client := NewRateLimited(next, 20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.GetStatus(context.Background(), "kb1", "ds1", "job")
		require.NoError(t, err)
	}

	// first token is immediate, the next two wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestRateLimitedHonorsCancellation(t *testing.T) {
	next := &countingClient{}
	client := NewRateLimited(next, 0.1, 1)

	_, err := client.Trigger(context.Background(), "kb1", "ds1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Trigger(ctx, "kb1", "ds2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), next.calls.Load())
}
