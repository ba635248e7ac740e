package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-series-api/internal/models"
	"github.com/noah-isme/class-series-api/internal/service"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
	"github.com/noah-isme/class-series-api/pkg/response"
)

func TestInstanceHandlerList(t *testing.T) {
	mockSvc := &enrollmentServiceMock{list: &service.InstanceList{SnapshotVersion: 3, Instances: []models.InstanceView{}}}
	handler := NewInstanceHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/instances?date=2026-10-19&type=A&q=yoga&snapshot_version=3", "", memberClaims)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get(response.SnapshotHeader))
	assert.Equal(t, "member-1", mockSvc.lastUser)
	assert.Equal(t, uint64(3), mockSvc.lastVer)
	assert.Equal(t, "A", mockSvc.lastQuery.ClassTypeID)
	assert.Equal(t, "yoga", mockSvc.lastQuery.Search)
	require.NotNil(t, mockSvc.lastQuery.Date)
	assert.Equal(t, "2026-10-19", models.FormatDate(*mockSvc.lastQuery.Date))
}

func TestInstanceHandlerListInvalidDate(t *testing.T) {
	handler := NewInstanceHandler(&enrollmentServiceMock{})
	c, w := newTestContext(http.MethodGet, "/instances?date=19-10-2026", "", memberClaims)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInstanceHandlerEnrollActions(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewInstanceHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/instances/i1/enrollment", "", memberClaims)
	c.Params = gin.Params{{Key: "id", Value: "i1"}}
	handler.Enroll(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "enroll:i1:member-1", mockSvc.lastAction)

	mockSvc.actionErr = appErrors.Clone(appErrors.ErrActionNotAllowed, "enroll not allowed while class is full")
	c, w = newTestContext(http.MethodPost, "/instances/i1/waitlist", "", memberClaims)
	c.Params = gin.Params{{Key: "id", Value: "i1"}}
	handler.JoinWaitlist(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "join_waitlist:i1:member-1", mockSvc.lastAction)
}

func TestInstanceHandlerRefresh(t *testing.T) {
	mockSvc := &enrollmentServiceMock{list: &service.InstanceList{SnapshotVersion: 9, Instances: []models.InstanceView{}}}
	handler := NewInstanceHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/snapshot/refresh?type=B", "", memberClaims)
	handler.Refresh(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mockSvc.refreshes)
	assert.Equal(t, "9", w.Header().Get(response.SnapshotHeader))
	assert.Equal(t, "B", mockSvc.lastQuery.ClassTypeID)
}
