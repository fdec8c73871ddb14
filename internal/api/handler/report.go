package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/kbsync/internal/api/middleware"
	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ReportReader is the read side of the report repository.
type ReportReader interface {
	GetByID(ctx context.Context, id string) (*domain.BatchReport, error)
	List(ctx context.Context, limit, offset int) ([]domain.ReportRecord, error)
	Count(ctx context.Context) (int64, error)
}

// ReportStore is what the API needs from the report repository.
type ReportStore interface {
	ReportReader
	Pinger
}

// ReportHandler serves stored batch reports.
type ReportHandler struct {
	reports ReportReader
}

// ListReportsResponse is the body of GET /api/v1/reports.
type ListReportsResponse struct {
	Reports []domain.ReportRecord `json:"reports"`
	Total   int64                 `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// NewReportHandler creates a new report handler.
// Parameters:
//   - reports: report repository.
//
// Returns:
//   - *ReportHandler: initialized handler.
func NewReportHandler(reports ReportReader) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ListReports handles GET /api/v1/reports.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *ReportHandler) ListReports(c *gin.Context) {
	ctx := c.Request.Context()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	records, err := h.reports.List(ctx, limit, offset)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reports"})
		return
	}
	total, err := h.reports.Count(ctx)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to count reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reports"})
		return
	}
	if records == nil {
		records = []domain.ReportRecord{}
	}

	c.JSON(http.StatusOK, ListReportsResponse{
		Reports: records,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// GetReport handles GET /api/v1/reports/:id.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *ReportHandler) GetReport(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	report, err := h.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		middleware.GetLogger(c).WithError(err).WithField("report_id", id).Error("Failed to get report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":  report,
		"summary": report.Summary(),
	})
}
