package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-series-api/internal/service"
	"github.com/noah-isme/class-series-api/pkg/response"
)

type dayBulkService interface {
	CancelDay(ctx context.Context, date time.Time, refundCredits bool) (*service.BulkResult, error)
	ReactivateDay(ctx context.Context, date time.Time) (*service.BulkResult, error)
}

type rosterExporter interface {
	DayRoster(ctx context.Context, date time.Time, format service.ExportFormat) (*service.ExportResult, error)
}

// CancelDayRequest is the optional body of a day cancellation.
type CancelDayRequest struct {
	RefundCredits bool `json:"refund_credits"`
}

// DayHandler exposes whole-day operations.
type DayHandler struct {
	bulk    dayBulkService
	exports rosterExporter
}

// NewDayHandler constructs DayHandler.
func NewDayHandler(bulk dayBulkService, exports rosterExporter) *DayHandler {
	return &DayHandler{bulk: bulk, exports: exports}
}

// Cancel godoc
// @Summary Cancel every class on a day
// @Tags Days
// @Accept json
// @Produce json
// @Param date path string true "Day (YYYY-MM-DD)"
// @Param payload body CancelDayRequest false "Refund options"
// @Success 200 {object} response.Envelope
// @Router /days/{date}/cancel [post]
func (h *DayHandler) Cancel(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req CancelDayRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	result, err := h.bulk.CancelDay(c.Request.Context(), date, req.RefundCredits)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Snapshot(c, http.StatusOK, result, result.SnapshotVersion)
}

// Reactivate godoc
// @Summary Reactivate the cancelled classes of a day
// @Tags Days
// @Produce json
// @Param date path string true "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /days/{date}/reactivate [post]
func (h *DayHandler) Reactivate(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.bulk.ReactivateDay(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Snapshot(c, http.StatusOK, result, result.SnapshotVersion)
}

// Export godoc
// @Summary Download the roster of a day
// @Tags Days
// @Produce text/csv
// @Produce application/pdf
// @Param date path string true "Day (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /days/{date}/export [get]
func (h *DayHandler) Export(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportCSV))))
	result, err := h.exports.DayRoster(c.Request.Context(), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
