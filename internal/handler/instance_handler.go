package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/service"
	"github.com/noah-isme/class-series-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, userID string, version uint64, query engine.Query) (*service.InstanceList, error)
	Refresh(ctx context.Context, userID string, query engine.Query) (*service.InstanceList, error)
	Enroll(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error)
	Unenroll(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error)
	JoinWaitlist(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error)
	LeaveWaitlist(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error)
}

// InstanceHandler exposes class instance listings and enrollment actions.
type InstanceHandler struct {
	enrollments enrollmentService
}

// NewInstanceHandler constructs InstanceHandler.
func NewInstanceHandler(enrollments enrollmentService) *InstanceHandler {
	return &InstanceHandler{enrollments: enrollments}
}

// List godoc
// @Summary List class instances classified for the caller
// @Tags Instances
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param type query string false "Class type id or all"
// @Param q query string false "Search name, type or teacher"
// @Success 200 {object} response.Envelope
// @Router /instances [get]
func (h *InstanceHandler) List(c *gin.Context) {
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
	list, err := h.enrollments.List(c.Request.Context(), userIDFromContext(c), version, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Snapshot(c, http.StatusOK, list.Instances, list.SnapshotVersion)
}

// Refresh godoc
// @Summary Refetch class instances and list the new snapshot
// @Tags Instances
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param type query string false "Class type id or all"
// @Param q query string false "Search name, type or teacher"
// @Success 200 {object} response.Envelope
// @Router /snapshot/refresh [post]
func (h *InstanceHandler) Refresh(c *gin.Context) {
	query, err := queryFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.enrollments.Refresh(c.Request.Context(), userIDFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Snapshot(c, http.StatusOK, list.Instances, list.SnapshotVersion)
}

// Enroll godoc
// @Summary Take a seat in a class
// @Tags Instances
// @Produce json
// @Param id path string true "Instance ID"
// @Success 200 {object} response.Envelope
// @Router /instances/{id}/enrollment [post]
func (h *InstanceHandler) Enroll(c *gin.Context) {
	h.act(c, h.enrollments.Enroll)
}

// Unenroll godoc
// @Summary Release a seat
// @Tags Instances
// @Param id path string true "Instance ID"
// @Success 200 {object} response.Envelope
// @Router /instances/{id}/enrollment [delete]
func (h *InstanceHandler) Unenroll(c *gin.Context) {
	h.act(c, h.enrollments.Unenroll)
}

// JoinWaitlist godoc
// @Summary Join the waitlist of a full class
// @Tags Instances
// @Param id path string true "Instance ID"
// @Success 200 {object} response.Envelope
// @Router /instances/{id}/waitlist [post]
func (h *InstanceHandler) JoinWaitlist(c *gin.Context) {
	h.act(c, h.enrollments.JoinWaitlist)
}

// LeaveWaitlist godoc
// @Summary Leave the waitlist
// @Tags Instances
// @Param id path string true "Instance ID"
// @Success 200 {object} response.Envelope
// @Router /instances/{id}/waitlist [delete]
func (h *InstanceHandler) LeaveWaitlist(c *gin.Context) {
	h.act(c, h.enrollments.LeaveWaitlist)
}

func (h *InstanceHandler) act(c *gin.Context, action func(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error)) {
	result, err := action(c.Request.Context(), userIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Snapshot(c, http.StatusOK, result, result.SnapshotVersion)
}
