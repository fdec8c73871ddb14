package remote

import "context"

// Client triggers and inspects remote ingestion jobs.
// Implementations are shared by every launch and polling loop of a run and
// must be safe for concurrent use.
type Client interface {
	// Trigger starts one ingestion job for a sub-source of a group.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - groupID: knowledge base / source group ID.
	//   - subSourceID: data source ID within the group.
	// Returns:
	//   - jobID: remote-assigned job ID.
	//   - err: non-nil if the remote service rejected the trigger or could not be reached.
	Trigger(ctx context.Context, groupID, subSourceID string) (jobID string, err error)

	// GetStatus returns the raw remote status string of a job.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - groupID: knowledge base / source group ID.
	//   - subSourceID: data source ID within the group.
	//   - jobID: ID returned by Trigger.
	// Returns:
	//   - status: status as reported by the remote service (e.g. IN_PROGRESS, COMPLETE).
	//   - err: non-nil on transport, auth or decoding failure.
	GetStatus(ctx context.Context, groupID, subSourceID, jobID string) (status string, err error)
}
