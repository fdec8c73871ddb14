package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/kbsync/internal/domain"
	"gorm.io/gorm"
)

// ErrReportNotFound is returned when no report matches the requested ID.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository handles batch report persistence.
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *ReportRepository: repository instance bound to db.
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create stores a report and its outcomes in one transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - report: report to persist.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *ReportRepository) Create(ctx context.Context, report *domain.BatchReport) error {
	rec := domain.NewReportRecord(report)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

// GetByID retrieves a report with its outcomes in report order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: report ID.
//
// Returns:
//   - *domain.BatchReport: report if found.
//   - error: ErrReportNotFound if missing, other non-nil errors if lookup fails.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.BatchReport, error) {
	var rec domain.ReportRecord
	err := r.db.WithContext(ctx).
		Preload("Outcomes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return rec.ToReport(), nil
}

// List returns report summaries, newest first, without outcomes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: max results.
//   - offset: pagination offset.
//
// Returns:
//   - []domain.ReportRecord: report summaries.
//   - error: non-nil if the query fails.
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]domain.ReportRecord, error) {
	var recs []domain.ReportRecord
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return recs, nil
}

// Count returns the total number of stored reports.
func (r *ReportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ReportRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// Ping checks that the database answers.
func (r *ReportRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
