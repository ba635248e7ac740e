package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/middleware"
	"github.com/noah-isme/class-series-api/internal/models"
	"github.com/noah-isme/class-series-api/internal/service"
)

type enrollmentServiceMock struct {
	list       *service.InstanceList
	listErr    error
	lastQuery  engine.Query
	lastUser   string
	lastVer    uint64
	actionErr  error
	lastAction string
	refreshes  int
}

func (m *enrollmentServiceMock) List(ctx context.Context, userID string, version uint64, query engine.Query) (*service.InstanceList, error) {
	m.lastUser, m.lastVer, m.lastQuery = userID, version, query
	return m.list, m.listErr
}

func (m *enrollmentServiceMock) Refresh(ctx context.Context, userID string, query engine.Query) (*service.InstanceList, error) {
	m.refreshes++
	m.lastUser, m.lastQuery = userID, query
	return m.list, m.listErr
}

func (m *enrollmentServiceMock) act(name, userID, instanceID string) (*service.EnrollmentResult, error) {
	m.lastAction = name + ":" + instanceID + ":" + userID
	if m.actionErr != nil {
		return nil, m.actionErr
	}
	return &service.EnrollmentResult{Action: models.Action(name), SnapshotVersion: 4}, nil
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error) {
	return m.act("enroll", userID, instanceID)
}

func (m *enrollmentServiceMock) Unenroll(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error) {
	return m.act("unenroll", userID, instanceID)
}

func (m *enrollmentServiceMock) JoinWaitlist(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error) {
	return m.act("join_waitlist", userID, instanceID)
}

func (m *enrollmentServiceMock) LeaveWaitlist(ctx context.Context, userID, instanceID string) (*service.EnrollmentResult, error) {
	return m.act("leave_waitlist", userID, instanceID)
}

type seriesServiceMock struct {
	list      *service.SeriesList
	err       error
	lastQuery engine.Query
}

func (m *seriesServiceMock) List(ctx context.Context, version uint64, query engine.Query) (*service.SeriesList, error) {
	m.lastQuery = query
	return m.list, m.err
}

type expirationServiceMock struct {
	proposal    *models.ExtensionProposal
	err         error
	lastSession string
	ended       []string
}

func (m *expirationServiceMock) Detect(ctx context.Context, sessionID string, version uint64) (*models.ExtensionProposal, error) {
	m.lastSession = sessionID
	return m.proposal, m.err
}

func (m *expirationServiceMock) Pending(ctx context.Context, sessionID string) ([]models.ExtensionProposal, error) {
	m.lastSession = sessionID
	if m.proposal == nil {
		return []models.ExtensionProposal{}, m.err
	}
	return []models.ExtensionProposal{*m.proposal}, m.err
}

func (m *expirationServiceMock) EndSession(ctx context.Context, sessionID string) error {
	m.ended = append(m.ended, sessionID)
	return m.err
}

type bulkServiceMock struct {
	err         error
	lastEdit    service.BulkEditRequest
	lastExtend  service.BulkExtendRequest
	lastDelete  service.BulkDeleteRequest
	lastDate    time.Time
	lastRefund  bool
	reactivated bool
}

func (m *bulkServiceMock) result(kind models.BulkKind) (*service.BulkResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &service.BulkResult{Plan: models.BulkPlan{Kind: kind}, Result: &models.MutationResult{Matched: 3}, SnapshotVersion: 9}, nil
}

func (m *bulkServiceMock) Edit(ctx context.Context, req service.BulkEditRequest) (*service.BulkResult, error) {
	m.lastEdit = req
	return m.result(models.BulkEdit)
}

func (m *bulkServiceMock) Extend(ctx context.Context, req service.BulkExtendRequest) (*service.BulkResult, error) {
	m.lastExtend = req
	return m.result(models.BulkExtend)
}

func (m *bulkServiceMock) Delete(ctx context.Context, req service.BulkDeleteRequest) (*service.BulkResult, error) {
	m.lastDelete = req
	return m.result(models.BulkDelete)
}

func (m *bulkServiceMock) CancelDay(ctx context.Context, date time.Time, refund bool) (*service.BulkResult, error) {
	m.lastDate, m.lastRefund = date, refund
	return m.result(models.BulkCancelDay)
}

func (m *bulkServiceMock) ReactivateDay(ctx context.Context, date time.Time) (*service.BulkResult, error) {
	m.lastDate, m.reactivated = date, true
	return m.result(models.BulkReactivateDay)
}

type exporterMock struct {
	lastFormat service.ExportFormat
	err        error
}

func (m *exporterMock) DayRoster(ctx context.Context, date time.Time, format service.ExportFormat) (*service.ExportResult, error) {
	m.lastFormat = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportResult{Filename: "roster-" + models.FormatDate(date) + ".csv", ContentType: "text/csv", Body: []byte("Start\n")}, nil
}

func newTestContext(method, target string, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

var (
	adminClaims  = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, SessionID: "sess-admin"}
	memberClaims = &models.JWTClaims{UserID: "member-1", Role: models.RoleMember, SessionID: "sess-member"}
)
