package sink

import (
	"context"

	"github.com/timmy/kbsync/internal/domain"
)

// ReportStore persists reports.
type ReportStore interface {
	Create(ctx context.Context, report *domain.BatchReport) error
}

// DatabaseSink stores the report and its outcomes.
type DatabaseSink struct {
	store ReportStore
}

// NewDatabaseSink creates a sink over store, usually a *repository.ReportRepository.
func NewDatabaseSink(store ReportStore) *DatabaseSink {
	return &DatabaseSink{store: store}
}

func (s *DatabaseSink) Name() string {
	return "database"
}

func (s *DatabaseSink) Deliver(ctx context.Context, report *domain.BatchReport) error {
	return s.store.Create(ctx, report)
}
