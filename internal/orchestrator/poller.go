package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/logger"
	"github.com/timmy/kbsync/internal/remote"
)

// Poller polls one job's remote status until it reaches a terminal state.
type Poller struct {
	client remote.Client
}

// NewPoller creates a poller over the shared remote client.
func NewPoller(client remote.Client) *Poller {
	return &Poller{client: client}
}

// Await polls handle until the remote service reports a terminal status,
// status queries fail more than policy.MaxConsecutiveFailures times in a row,
// policy.MaxElapsed passes, or ctx is cancelled.
// Parameters:
//   - ctx: run context; cancellation ends the loop with JobStateTimedOut.
//   - handle: job to poll.
//   - policy: validated poll policy.
//
// Returns:
//   - domain.JobOutcome: terminal outcome; never an error.
func (p *Poller) Await(ctx context.Context, handle domain.JobHandle, policy PollPolicy) domain.JobOutcome {
	start := time.Now()
	runCtx := ctx

	ctx, cancel := context.WithTimeout(ctx, policy.MaxElapsed)
	defer cancel()
	ctx = logger.SetJobID(logger.SetJob(ctx, handle.GroupID, handle.SubSourceID), handle.JobID)

	outcome := domain.JobOutcome{Handle: handle, FinalState: domain.JobStatePending}
	failures := 0

	for {
		if ctx.Err() != nil {
			return p.finish(ctx, outcome, start, domain.JobStateTimedOut, timeoutCause(runCtx, policy))
		}

		outcome.Attempts++
		outcome.FinalState = domain.JobStatePolling

		status, err := callWithContext(ctx, func(ctx context.Context) (string, error) {
			return p.client.GetStatus(ctx, handle.GroupID, handle.SubSourceID, handle.JobID)
		})
		if err != nil {
			if ctx.Err() != nil {
				return p.finish(ctx, outcome, start, domain.JobStateTimedOut, timeoutCause(runCtx, policy))
			}

			failures++
			if failures > policy.MaxConsecutiveFailures {
				return p.finish(ctx, outcome, start, domain.JobStatePollError,
					fmt.Sprintf("status query failed %d times in a row: %v", failures, err))
			}

			logger.With(logger.Fields{"failures": failures}).
				WithAttempts(outcome.Attempts).
				Warn(ctx, "Status query failed, retrying in %s: %v", policy.RetryBackoff, err)

			if !sleep(ctx, policy.RetryBackoff) {
				return p.finish(ctx, outcome, start, domain.JobStateTimedOut, timeoutCause(runCtx, policy))
			}
			continue
		}

		failures = 0
		outcome.RemoteStatus = status
		if state := domain.StateFromRemote(status); state.IsTerminal() {
			return p.finish(ctx, outcome, start, state, "")
		}

		logger.With(nil).WithStatus(status).WithAttempts(outcome.Attempts).
			Debug(ctx, "Ingestion job still running")

		if !sleep(ctx, policy.PollInterval) {
			return p.finish(ctx, outcome, start, domain.JobStateTimedOut, timeoutCause(runCtx, policy))
		}
	}
}

func (p *Poller) finish(ctx context.Context, outcome domain.JobOutcome, start time.Time, state domain.JobState, cause string) domain.JobOutcome {
	outcome.FinalState = state
	outcome.Elapsed = time.Since(start)
	outcome.Cause = cause

	entry := logger.With(nil).
		WithStatus(outcome.RemoteStatus).
		WithState(state.String()).
		WithAttempts(outcome.Attempts).
		WithDuration(outcome.Elapsed)

	switch state {
	case domain.JobStateSucceeded:
		entry.Info(ctx, "Ingestion job completed")
	case domain.JobStateFailed:
		entry.Warn(ctx, "Ingestion job failed")
	default:
		entry.WithField("cause", cause).Warn(ctx, "Ingestion job outcome unknown: %s", state)
	}
	return outcome
}

func timeoutCause(runCtx context.Context, policy PollPolicy) string {
	if runCtx.Err() != nil {
		return fmt.Sprintf("run cancelled: %v", runCtx.Err())
	}
	return fmt.Sprintf("no terminal status within %s", policy.MaxElapsed)
}
