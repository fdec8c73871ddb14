package domain

import "time"

// BatchReport aggregates the outcomes of one orchestration run.
// Outcomes follow the flattened order of the input specs.
type BatchReport struct {
	ID         string       `json:"id"`
	Outcomes   []JobOutcome `json:"outcomes"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Summary counts outcomes per final state.
// Returns:
//   - map[JobState]int: number of outcomes in each state present in the report.
func (r *BatchReport) Summary() map[JobState]int {
	counts := make(map[JobState]int)
	for _, o := range r.Outcomes {
		counts[o.FinalState]++
	}
	return counts
}

// AllSucceeded reports whether every job in the report succeeded.
func (r *BatchReport) AllSucceeded() bool {
	for _, o := range r.Outcomes {
		if o.FinalState != JobStateSucceeded {
			return false
		}
	}
	return true
}

// Duration returns the wall-clock time the run took.
func (r *BatchReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
