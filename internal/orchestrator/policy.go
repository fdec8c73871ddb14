package orchestrator

import (
	"fmt"
	"time"
)

// PollPolicy controls how a StatusPoller waits for a job to finish.
type PollPolicy struct {
	// PollInterval is the fixed wait between status queries of a running job.
	PollInterval time.Duration
	// RetryBackoff is the wait after a failed status query.
	RetryBackoff time.Duration
	// MaxConsecutiveFailures is the number of retries allowed after failed
	// queries before the job is reported as PollError.
	MaxConsecutiveFailures int
	// MaxElapsed bounds the whole polling loop of one job.
	MaxElapsed time.Duration
}

// DefaultPollPolicy returns the reference policy: poll every 5s, retry a
// failed query after 2s up to 3 times, give up after 30 minutes.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		PollInterval:           5 * time.Second,
		RetryBackoff:           2 * time.Second,
		MaxConsecutiveFailures: 3,
		MaxElapsed:             30 * time.Minute,
	}
}

// Validate checks that the policy can bound a polling loop.
func (p PollPolicy) Validate() error {
	if p.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidPolicy, p.PollInterval)
	}
	if p.RetryBackoff < 0 {
		return fmt.Errorf("%w: retry backoff must not be negative, got %s", ErrInvalidPolicy, p.RetryBackoff)
	}
	if p.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("%w: max consecutive failures must not be negative, got %d", ErrInvalidPolicy, p.MaxConsecutiveFailures)
	}
	if p.MaxElapsed <= 0 {
		return fmt.Errorf("%w: max elapsed must be positive, got %s", ErrInvalidPolicy, p.MaxElapsed)
	}
	return nil
}
