package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-series-api/internal/models"
	"github.com/noah-isme/class-series-api/internal/service"
)

func TestDayHandlerCancelWithRefund(t *testing.T) {
	bulk := &bulkServiceMock{}
	handler := NewDayHandler(bulk, &exporterMock{})

	c, w := newTestContext(http.MethodPost, "/days/2026-10-21/cancel", `{"refund_credits":true}`, adminClaims)
	c.Params = gin.Params{{Key: "date", Value: "2026-10-21"}}
	handler.Cancel(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bulk.lastRefund)
	assert.Equal(t, "2026-10-21", models.FormatDate(bulk.lastDate))
}

func TestDayHandlerReactivateRejectsBadDate(t *testing.T) {
	bulk := &bulkServiceMock{}
	handler := NewDayHandler(bulk, &exporterMock{})

	c, w := newTestContext(http.MethodPost, "/days/tomorrow/reactivate", "", adminClaims)
	c.Params = gin.Params{{Key: "date", Value: "tomorrow"}}
	handler.Reactivate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, bulk.reactivated)
}

func TestDayHandlerExport(t *testing.T) {
	exports := &exporterMock{}
	handler := NewDayHandler(&bulkServiceMock{}, exports)

	c, w := newTestContext(http.MethodGet, "/days/2026-10-21/export?format=PDF", "", adminClaims)
	c.Params = gin.Params{{Key: "date", Value: "2026-10-21"}}
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportPDF, exports.lastFormat)
	assert.Equal(t, `attachment; filename="roster-2026-10-21.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Start\n", w.Body.String())
}
