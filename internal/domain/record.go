package domain

import "time"

// ReportRecord is the persisted form of a BatchReport.
type ReportRecord struct {
	ID         string          `gorm:"type:text;primaryKey" json:"id"`
	StartedAt  time.Time       `gorm:"index" json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Total      int             `gorm:"default:0" json:"total"`
	Succeeded  int             `gorm:"default:0" json:"succeeded"`
	Failed     int             `gorm:"default:0" json:"failed"`
	PollErrors int             `gorm:"default:0" json:"poll_errors"`
	TimedOut   int             `gorm:"default:0" json:"timed_out"`
	Outcomes   []OutcomeRecord `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"outcomes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName returns the database table name for ReportRecord.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ReportRecord) TableName() string {
	return "batch_reports"
}

// OutcomeRecord is the persisted form of a JobOutcome.
// Position keeps the report ordering stable across reads.
type OutcomeRecord struct {
	ID           uint     `gorm:"primaryKey;autoIncrement" json:"-"`
	ReportID     string   `gorm:"type:text;not null;index" json:"report_id"`
	Position     int      `gorm:"not null" json:"position"`
	JobID        string   `gorm:"type:text" json:"job_id,omitempty"`
	GroupID      string   `gorm:"type:text;not null;index" json:"group_id"`
	SubSourceID  string   `gorm:"type:text;not null" json:"sub_source_id"`
	FinalState   JobState `gorm:"type:text;not null" json:"final_state"`
	Attempts     int      `json:"attempts"`
	ElapsedNs    int64    `json:"elapsed_ns"`
	RemoteStatus string   `gorm:"type:text" json:"remote_status,omitempty"`
	Cause        string   `gorm:"type:text" json:"cause,omitempty"`
}

// TableName returns the database table name for OutcomeRecord.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (OutcomeRecord) TableName() string {
	return "job_outcomes"
}

// NewReportRecord converts a report into its persisted form.
// Parameters:
//   - r: report to convert.
//
// Returns:
//   - *ReportRecord: record with per-state counts and ordered outcome rows.
func NewReportRecord(r *BatchReport) *ReportRecord {
	summary := r.Summary()
	rec := &ReportRecord{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Total:      len(r.Outcomes),
		Succeeded:  summary[JobStateSucceeded],
		Failed:     summary[JobStateFailed],
		PollErrors: summary[JobStatePollError],
		TimedOut:   summary[JobStateTimedOut],
		Outcomes:   make([]OutcomeRecord, len(r.Outcomes)),
	}
	for i, o := range r.Outcomes {
		rec.Outcomes[i] = OutcomeRecord{
			ReportID:     r.ID,
			Position:     i,
			JobID:        o.Handle.JobID,
			GroupID:      o.Handle.GroupID,
			SubSourceID:  o.Handle.SubSourceID,
			FinalState:   o.FinalState,
			Attempts:     o.Attempts,
			ElapsedNs:    o.Elapsed.Nanoseconds(),
			RemoteStatus: o.RemoteStatus,
			Cause:        o.Cause,
		}
	}
	return rec
}

// ToReport converts the record back into a BatchReport.
// Outcome rows must already be sorted by Position.
func (rec *ReportRecord) ToReport() *BatchReport {
	r := &BatchReport{
		ID:         rec.ID,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Outcomes:   make([]JobOutcome, len(rec.Outcomes)),
	}
	for i, o := range rec.Outcomes {
		r.Outcomes[i] = JobOutcome{
			Handle: JobHandle{
				JobID:       o.JobID,
				GroupID:     o.GroupID,
				SubSourceID: o.SubSourceID,
			},
			FinalState:   o.FinalState,
			Attempts:     o.Attempts,
			Elapsed:      time.Duration(o.ElapsedNs),
			RemoteStatus: o.RemoteStatus,
			Cause:        o.Cause,
		}
	}
	return r
}
