package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/logger"
	"github.com/timmy/kbsync/internal/remote"
)

// LaunchFailure records a sub-source whose trigger call did not produce a job.
type LaunchFailure struct {
	GroupID     string
	SubSourceID string
	Cause       error
}

// Error implements error.
func (f *LaunchFailure) Error() string {
	return fmt.Sprintf("launch %s/%s: %v", f.GroupID, f.SubSourceID, f.Cause)
}

// Unwrap returns the trigger error.
func (f *LaunchFailure) Unwrap() error {
	return f.Cause
}

// LaunchResult is the result of one trigger attempt: either Handle is set
// or Failure is non-nil.
type LaunchResult struct {
	Handle  domain.JobHandle
	Failure *LaunchFailure
}

// Launcher issues one trigger call per sub-source of a spec.
// Triggers are never retried: a repeated trigger creates a duplicate remote job.
type Launcher struct {
	client remote.Client
	// timeout bounds each trigger call; zero leaves it to ctx alone.
	timeout time.Duration
}

// NewLauncher creates a launcher over the shared remote client.
func NewLauncher(client remote.Client) *Launcher {
	return &Launcher{client: client}
}

// Launch triggers every sub-source of spec in order.
// Parameters:
//   - ctx: context for cancellation; once done, remaining sub-sources are not triggered.
//   - spec: validated job spec.
//
// Returns:
//   - []LaunchResult: one result per sub-source ID, in spec order.
func (l *Launcher) Launch(ctx context.Context, spec domain.JobSpec) []LaunchResult {
	results := make([]LaunchResult, 0, len(spec.SubSourceIDs))
	for _, subSourceID := range spec.SubSourceIDs {
		results = append(results, l.launchOne(ctx, spec.GroupID, subSourceID))
	}
	return results
}

func (l *Launcher) launchOne(ctx context.Context, groupID, subSourceID string) LaunchResult {
	ctx = logger.SetJob(ctx, groupID, subSourceID)

	if err := ctx.Err(); err != nil {
		return LaunchResult{Failure: &LaunchFailure{GroupID: groupID, SubSourceID: subSourceID, Cause: err}}
	}

	callCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	jobID, err := callWithContext(callCtx, func(ctx context.Context) (string, error) {
		return l.client.Trigger(ctx, groupID, subSourceID)
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("trigger timed out after %s: %w", l.timeout, err)
		}
		logger.CtxWarn(ctx, "Failed to trigger ingestion job: %v", err)
		return LaunchResult{Failure: &LaunchFailure{GroupID: groupID, SubSourceID: subSourceID, Cause: err}}
	}

	logger.CtxInfo(logger.SetJobID(ctx, jobID), "Ingestion job triggered")
	return LaunchResult{
		Handle: domain.JobHandle{
			JobID:       jobID,
			GroupID:     groupID,
			SubSourceID: subSourceID,
		},
	}
}
