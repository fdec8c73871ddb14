// Package sink delivers finished batch reports to their destinations.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/logger"
)

// ResultSink receives the report of a finished run.
type ResultSink interface {
	// Name identifies the sink in logs and errors.
	Name() string

	// Deliver writes the report.
	Deliver(ctx context.Context, report *domain.BatchReport) error
}

// Multi delivers to every sink in order. A failing sink does not stop the others.
type Multi []ResultSink

// Name returns "multi".
func (m Multi) Name() string {
	return "multi"
}

// Deliver hands report to each sink and joins their errors.
func (m Multi) Deliver(ctx context.Context, report *domain.BatchReport) error {
	if logger.GetRunID(ctx) == "" {
		ctx = logger.SetRunID(ctx, report.ID)
	}

	var errs []error
	for _, s := range m {
		entry := logger.With(logger.Fields{"sink": s.Name()})
		if err := s.Deliver(ctx, report); err != nil {
			entry.Error(ctx, "Report delivery failed: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		entry.Info(ctx, "Report delivered")
	}
	return errors.Join(errs...)
}
