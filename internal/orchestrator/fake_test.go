package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errTransport = errors.New("connection reset by peer")

// step is one scripted status response; the last step of a script repeats.
type step struct {
	status string
	err    error
}

type fakeClient struct {
	mu           sync.Mutex
	triggerErr   map[string]error
	scripts      map[string][]step
	triggerCalls map[string]int
	statusCalls  map[string]int

	triggerDelay time.Duration
	statusDelay  time.Duration
	// ignoreCtx makes status calls block for statusDelay regardless of ctx.
	ignoreCtx bool

	inFlight    int
	maxInFlight int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		triggerErr:   make(map[string]error),
		scripts:      make(map[string][]step),
		triggerCalls: make(map[string]int),
		statusCalls:  make(map[string]int),
	}
}

func (f *fakeClient) script(subSourceID string, steps ...step) *fakeClient {
	f.scripts[subSourceID] = steps
	return f
}

func (f *fakeClient) Trigger(ctx context.Context, groupID, subSourceID string) (string, error) {
	f.mu.Lock()
	f.triggerCalls[subSourceID]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	err := f.triggerErr[subSourceID]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.triggerDelay > 0 {
		select {
		case <-time.After(f.triggerDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return "job-" + subSourceID, nil
}

func (f *fakeClient) GetStatus(ctx context.Context, groupID, subSourceID, jobID string) (string, error) {
	f.mu.Lock()
	n := f.statusCalls[subSourceID]
	f.statusCalls[subSourceID]++
	steps := f.scripts[subSourceID]
	f.mu.Unlock()

	if f.statusDelay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.statusDelay)
		} else {
			select {
			case <-time.After(f.statusDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	if len(steps) == 0 {
		return "IN_PROGRESS", nil
	}
	if n >= len(steps) {
		n = len(steps) - 1
	}
	return steps[n].status, steps[n].err
}

func (f *fakeClient) triggers(subSourceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.triggerCalls[subSourceID]
}

func (f *fakeClient) totalTriggers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.triggerCalls {
		total += n
	}
	return total
}

func fastPolicy() PollPolicy {
	return PollPolicy{
		PollInterval:           10 * time.Millisecond,
		RetryBackoff:           5 * time.Millisecond,
		MaxConsecutiveFailures: 3,
		MaxElapsed:             2 * time.Second,
	}
}
