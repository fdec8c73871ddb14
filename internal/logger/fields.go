package logger

// Fields is a set of structured log fields.
type Fields map[string]interface{}

// Tracing fields, carried on the context logger through a run.
const (
	FieldRequestID   = "request_id"
	FieldRunID       = "run_id"
	FieldGroupID     = "group_id"      // knowledge base
	FieldSubSourceID = "sub_source_id" // data source
	FieldJobID       = "job_id"        // remote ingestion job
	FieldComponent   = "component"
)

// Metric fields, attached per line through Entry.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldAttempts   = "attempts"
	FieldState      = "state"
	FieldStatus     = "status"
)
