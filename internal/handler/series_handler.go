package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/models"
	"github.com/noah-isme/class-series-api/internal/service"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
	"github.com/noah-isme/class-series-api/pkg/response"
)

type seriesService interface {
	List(ctx context.Context, version uint64, query engine.Query) (*service.SeriesList, error)
}

type expirationService interface {
	Detect(ctx context.Context, sessionID string, version uint64) (*models.ExtensionProposal, error)
	Pending(ctx context.Context, sessionID string) ([]models.ExtensionProposal, error)
	EndSession(ctx context.Context, sessionID string) error
}

type bulkService interface {
	Edit(ctx context.Context, req service.BulkEditRequest) (*service.BulkResult, error)
	Extend(ctx context.Context, req service.BulkExtendRequest) (*service.BulkResult, error)
	Delete(ctx context.Context, req service.BulkDeleteRequest) (*service.BulkResult, error)
}

// SeriesHandler exposes recurring series, expiration detection and bulk
// series mutations.
type SeriesHandler struct {
	series      seriesService
	expirations expirationService
	bulk        bulkService
}

// NewSeriesHandler constructs SeriesHandler.
func NewSeriesHandler(series seriesService, expirations expirationService, bulk bulkService) *SeriesHandler {
	return &SeriesHandler{series: series, expirations: expirations, bulk: bulk}
}

// List godoc
// @Summary List recurring series
// @Tags Series
// @Produce json
// @Param type query string false "Class type id or all"
// @Param q query string false "Search name, type or teacher"
// @Success 200 {object} response.Envelope
// @Router /series [get]
func (h *SeriesHandler) List(c *gin.Context) {
	query, err := queryFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	version, err := snapshotVersion(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.series.List(c.Request.Context(), version, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Snapshot(c, http.StatusOK, list.Series, list.SnapshotVersion)
}

// DetectExpirations godoc
// @Summary Propose extending a series with one remaining instance
// @Description Returns at most one proposal; each series is proposed once per session.
// @Tags Series
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /series/expirations/detect [post]
func (h *SeriesHandler) DetectExpirations(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	version, err := snapshotVersion(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.expirations.Detect(c.Request.Context(), service.SessionKey(claims), version)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal)
}

// Edit godoc
// @Summary Edit every future instance of a series
// @Tags Series
// @Accept json
// @Produce json
// @Param payload body service.BulkEditRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /series/bulk/edit [post]
func (h *SeriesHandler) Edit(c *gin.Context) {
	var req service.BulkEditRequest
	if !bindJSON(c, &req) {
		return
	}
	if !pinSnapshot(c, &req.SnapshotVersion) {
		return
	}
	h.respond(c)(h.bulk.Edit(c.Request.Context(), req))
}

// Extend godoc
// @Summary Extend a series to a new end date
// @Tags Series
// @Accept json
// @Produce json
// @Param payload body service.BulkExtendRequest true "New end date"
// @Success 200 {object} response.Envelope
// @Router /series/bulk/extend [post]
func (h *SeriesHandler) Extend(c *gin.Context) {
	var req service.BulkExtendRequest
	if !bindJSON(c, &req) {
		return
	}
	if !pinSnapshot(c, &req.SnapshotVersion) {
		return
	}
	h.respond(c)(h.bulk.Extend(c.Request.Context(), req))
}

// Delete godoc
// @Summary Delete every future instance of a series
// @Tags Series
// @Accept json
// @Produce json
// @Param payload body service.BulkDeleteRequest true "Series"
// @Success 200 {object} response.Envelope
// @Router /series/bulk/delete [post]
func (h *SeriesHandler) Delete(c *gin.Context) {
	var req service.BulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	if !pinSnapshot(c, &req.SnapshotVersion) {
		return
	}
	h.respond(c)(h.bulk.Delete(c.Request.Context(), req))
}

func (h *SeriesHandler) respond(c *gin.Context) func(*service.BulkResult, error) {
	return func(result *service.BulkResult, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Snapshot(c, http.StatusOK, result, result.SnapshotVersion)
	}
}

// pinSnapshot fills an unset body version from the query or header.
func pinSnapshot(c *gin.Context, version *uint64) bool {
	if *version != 0 {
		return true
	}
	v, err := snapshotVersion(c)
	if err != nil {
		response.Error(c, err)
		return false
	}
	*version = v
	return true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
