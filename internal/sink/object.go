package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/logger"
	"github.com/timmy/kbsync/internal/storage"
)

// ErrReportExists is returned when a report object with the same ID is already stored.
var ErrReportExists = errors.New("report object already exists")

// ObjectSink uploads the report JSON to object storage under prefix/<id>.json.
// Published reports are never overwritten.
type ObjectSink struct {
	store  storage.ObjectStorage
	prefix string
}

// NewObjectSink creates a sink uploading through store.
func NewObjectSink(store storage.ObjectStorage, prefix string) *ObjectSink {
	return &ObjectSink{store: store, prefix: prefix}
}

func (s *ObjectSink) Name() string {
	return "object_storage"
}

// Key returns the object key for a report ID.
func (s *ObjectSink) Key(reportID string) string {
	return path.Join(s.prefix, reportID+".json")
}

func (s *ObjectSink) Deliver(ctx context.Context, report *domain.BatchReport) error {
	key := s.Key(report.ID)

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrReportExists, key)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return fmt.Errorf("failed to publish report %s: %w", key, err)
	}

	logger.CtxInfo(ctx, "Report published: %s", s.store.GetURL(key))
	return nil
}
