package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/logger"
	"github.com/timmy/kbsync/internal/remote"
)

// Orchestrator launches a batch of ingestion jobs, polls all of them
// concurrently and aggregates their outcomes into one BatchReport.
type Orchestrator struct {
	launcher          *Launcher
	poller            *Poller
	launchConcurrency int
	newID             func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLaunchConcurrency bounds how many specs are launched at once.
// Zero or negative means unbounded, which is the default.
func WithLaunchConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.launchConcurrency = n
	}
}

// WithTriggerTimeout bounds each trigger call. A trigger that exceeds it is
// recorded as a failed launch. Zero or negative disables the bound.
func WithTriggerTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.launcher.timeout = d
	}
}

// WithIDGenerator overrides how report IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// New creates an orchestrator sharing client across all launches and polls.
// Parameters:
//   - client: remote job client, safe for concurrent use.
//   - opts: optional settings.
//
// Returns:
//   - *Orchestrator: ready orchestrator.
//   - error: ErrClientRequired when client is nil.
func New(client remote.Client, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	o := &Orchestrator{
		launcher: NewLauncher(client),
		poller:   NewPoller(client),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run launches every sub-source of specs, waits for all jobs to reach a
// terminal state and returns the report. Outcomes follow the flattened input
// order. Per-job failures are recorded in the report; only invalid specs or
// an invalid policy make Run fail, and then nothing is launched.
//
// Cancelling ctx stops new remote calls. Jobs already terminal keep their
// outcome; every other job is reported as JobStateTimedOut.
func (o *Orchestrator) Run(ctx context.Context, specs []domain.JobSpec, policy PollPolicy) (*domain.BatchReport, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	report := &domain.BatchReport{
		ID:        o.newID(),
		StartedAt: time.Now().UTC(),
	}
	ctx = logger.SetRunID(logger.SetComponent(ctx, "orchestrator"), report.ID)

	launches, err := o.Launch(ctx, specs)
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.JobOutcome, len(launches))
	handles := make([]domain.JobHandle, 0, len(launches))
	slots := make([]int, 0, len(launches))
	for i, l := range launches {
		if l.Failure != nil {
			outcomes[i] = launchFailureOutcome(ctx, l.Failure)
			continue
		}
		handles = append(handles, l.Handle)
		slots = append(slots, i)
	}

	logger.With(logger.Fields{
		"launched": len(handles),
		"failed":   len(launches) - len(handles),
	}).WithCount(len(launches)).Info(ctx, "Launch phase finished")

	for j, outcome := range o.Await(ctx, handles, policy) {
		outcomes[slots[j]] = outcome
	}

	report.Outcomes = outcomes
	report.FinishedAt = time.Now().UTC()

	summary := report.Summary()
	logger.With(logger.Fields{
		"succeeded":  summary[domain.JobStateSucceeded],
		"failed":     summary[domain.JobStateFailed],
		"poll_error": summary[domain.JobStatePollError],
		"timed_out":  summary[domain.JobStateTimedOut],
	}).WithCount(len(outcomes)).WithDuration(report.Duration()).Info(ctx, "Batch finished")

	return report, nil
}

// Launch validates specs and triggers every sub-source, running up to the
// configured number of specs at once.
// Parameters:
//   - ctx: context for cancellation.
//   - specs: specs to launch.
//
// Returns:
//   - []LaunchResult: one result per sub-source in flattened spec order.
//   - error: wrapped ErrInvalidSpec if any spec is malformed; nothing is launched then.
func (o *Orchestrator) Launch(ctx context.Context, specs []domain.JobSpec) ([]LaunchResult, error) {
	if err := ValidateSpecs(specs); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(o.launchConcurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create launch pool: %w", err)
	}
	defer pool.Release()

	perSpec := make([][]LaunchResult, len(specs))
	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			perSpec[i] = o.launcher.Launch(ctx, spec)
		})
		if submitErr != nil {
			wg.Done()
			perSpec[i] = failAll(spec, fmt.Errorf("failed to schedule launch: %w", submitErr))
		}
	}
	wg.Wait()

	results := make([]LaunchResult, 0, countJobs(specs))
	for _, r := range perSpec {
		results = append(results, r...)
	}
	return results, nil
}

// Await polls every handle concurrently, one loop per handle, and waits for
// all of them to finish.
// Parameters:
//   - ctx: run context.
//   - handles: launched jobs.
//   - policy: validated poll policy.
//
// Returns:
//   - []domain.JobOutcome: outcomes in the same order as handles.
func (o *Orchestrator) Await(ctx context.Context, handles []domain.JobHandle, policy PollPolicy) []domain.JobOutcome {
	outcomes := make([]domain.JobOutcome, len(handles))

	var wg sync.WaitGroup
	for i, handle := range handles {
		wg.Add(1)
		go func(i int, handle domain.JobHandle) {
			defer wg.Done()
			outcomes[i] = o.poller.Await(ctx, handle, policy)
		}(i, handle)
	}
	wg.Wait()

	return outcomes
}

// ValidateSpecs checks every spec and rejects the same group/sub-source pair
// appearing twice across specs.
func ValidateSpecs(specs []domain.JobSpec) error {
	seen := make(map[domain.JobHandle]int)
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("%w: spec %d (group %q): %v", ErrInvalidSpec, i, spec.GroupID, err)
		}
		for _, subSourceID := range spec.SubSourceIDs {
			key := domain.JobHandle{GroupID: spec.GroupID, SubSourceID: subSourceID}
			if first, ok := seen[key]; ok {
				return fmt.Errorf("%w: spec %d repeats %s/%s from spec %d", ErrInvalidSpec, i, spec.GroupID, subSourceID, first)
			}
			seen[key] = i
		}
	}
	return nil
}

func launchFailureOutcome(ctx context.Context, f *LaunchFailure) domain.JobOutcome {
	state := domain.JobStateFailed
	cause := f.Cause.Error()
	if ctx.Err() != nil && (errors.Is(f.Cause, context.Canceled) || errors.Is(f.Cause, context.DeadlineExceeded)) {
		state = domain.JobStateTimedOut
		cause = fmt.Sprintf("run cancelled before launch: %v", f.Cause)
	}

	return domain.JobOutcome{
		Handle: domain.JobHandle{
			GroupID:     f.GroupID,
			SubSourceID: f.SubSourceID,
		},
		FinalState: state,
		Cause:      cause,
	}
}

func failAll(spec domain.JobSpec, cause error) []LaunchResult {
	results := make([]LaunchResult, len(spec.SubSourceIDs))
	for i, subSourceID := range spec.SubSourceIDs {
		results[i] = LaunchResult{Failure: &LaunchFailure{GroupID: spec.GroupID, SubSourceID: subSourceID, Cause: cause}}
	}
	return results
}

func countJobs(specs []domain.JobSpec) int {
	n := 0
	for _, spec := range specs {
		n += spec.JobCount()
	}
	return n
}
