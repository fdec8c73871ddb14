package domain

import (
	"strings"
	"time"
)

// JobState represents where an ingestion job is in its lifecycle.
// Values include JobStatePending, JobStatePolling and the terminal states
// JobStateSucceeded, JobStateFailed, JobStatePollError and JobStateTimedOut.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStatePolling   JobState = "polling"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStatePollError JobState = "poll_error"
	JobStateTimedOut  JobState = "timed_out"
)

// IsTerminal reports whether no further transition can occur from s.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStatePollError, JobStateTimedOut:
		return true
	default:
		return false
	}
}

// String returns the state as a plain string.
func (s JobState) String() string {
	return string(s)
}

// StateFromRemote maps a raw status string reported by the remote job service
// to a JobState. Only COMPLETE/COMPLETED/SUCCEEDED and FAILED/STOPPED are terminal;
// every other value (STARTING, IN_PROGRESS, STOPPING, unknown) means the job is
// still being polled.
// Parameters:
//   - status: status string as returned by the remote service.
//
// Returns:
//   - JobState: JobStateSucceeded, JobStateFailed or JobStatePolling.
func StateFromRemote(status string) JobState {
	normalized := strings.ToUpper(strings.TrimSpace(status))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	switch normalized {
	case "COMPLETE", "COMPLETED", "SUCCEEDED", "SUCCESS":
		return JobStateSucceeded
	case "FAILED", "STOPPED":
		return JobStateFailed
	default:
		return JobStatePolling
	}
}

// JobHandle identifies one remote ingestion job created by a successful trigger.
type JobHandle struct {
	JobID       string `json:"job_id"`
	GroupID     string `json:"group_id"`
	SubSourceID string `json:"sub_source_id"`
}

// JobOutcome is the terminal result of one ingestion job.
// Attempts counts status queries issued, including failed ones; a job that
// could not be launched has zero attempts and an empty JobID.
type JobOutcome struct {
	Handle       JobHandle     `json:"handle"`
	FinalState   JobState      `json:"final_state"`
	Attempts     int           `json:"attempts"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	RemoteStatus string        `json:"remote_status,omitempty"`
	Cause        string        `json:"cause,omitempty"`
}

// Launched reports whether the remote service accepted the trigger for this job.
func (o JobOutcome) Launched() bool {
	return o.Handle.JobID != ""
}
