package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

// BulkEditRequest describes a series edit. Empty fields are left unchanged.
type BulkEditRequest struct {
	SeriesID        string              `json:"series_id" validate:"required"`
	SnapshotVersion uint64              `json:"snapshot_version"`
	StartTime       string              `json:"start_time" validate:"omitempty,clock"`
	EndTime         string              `json:"end_time" validate:"omitempty,clock"`
	Capacity        int                 `json:"capacity" validate:"omitempty,gt=0"`
	Teachers        []models.TeacherRef `json:"teachers" validate:"omitempty,dive"`
	Weekdays        []int               `json:"weekdays" validate:"omitempty,dive,min=0,max=6"`
}

// BulkExtendRequest extends a series to a new end date (YYYY-MM-DD).
type BulkExtendRequest struct {
	SeriesID        string `json:"series_id" validate:"required"`
	SnapshotVersion uint64 `json:"snapshot_version"`
	NewEndDate      string `json:"new_end_date" validate:"required,datetime=2006-01-02"`
}

// BulkDeleteRequest removes the future instances of a series.
type BulkDeleteRequest struct {
	SeriesID        string `json:"series_id" validate:"required"`
	SnapshotVersion uint64 `json:"snapshot_version"`
}

// BulkResult reports a dispatched plan and what the collaborator did.
type BulkResult struct {
	Plan            models.BulkPlan        `json:"plan"`
	Result          *models.MutationResult `json:"result"`
	SnapshotVersion uint64                 `json:"snapshot_version,omitempty"`
}

// BulkService plans bulk mutations and dispatches them to the collaborator.
// A planning error never reaches the collaborator.
type BulkService struct {
	series    *SeriesService
	store     *SnapshotStore
	gateway   InstanceGateway
	planner   *engine.Planner
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewBulkService constructs BulkService.
func NewBulkService(series *SeriesService, store *SnapshotStore, gateway InstanceGateway, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *BulkService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkService{
		series:    series,
		store:     store,
		gateway:   gateway,
		planner:   engine.NewPlanner(store.Location()),
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Edit applies changed fields to every instance of the series from today.
func (s *BulkService) Edit(ctx context.Context, req BulkEditRequest) (*BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk edit payload")
	}
	series, _, err := s.series.Get(ctx, req.SnapshotVersion, req.SeriesID)
	if err != nil {
		return nil, err
	}
	weekdays := make([]time.Weekday, 0, len(req.Weekdays))
	for _, d := range req.Weekdays {
		weekdays = append(weekdays, time.Weekday(d))
	}
	changes := models.SeriesChanges{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Capacity:  req.Capacity,
		Teachers:  req.Teachers,
		Weekdays:  weekdays,
	}
	plan, err := s.planner.PlanEdit(series, changes, s.store.Now())
	return s.dispatch(ctx, models.BulkEdit, plan, err)
}

// Extend materializes the series up to the new end date.
func (s *BulkService) Extend(ctx context.Context, req BulkExtendRequest) (*BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk extend payload")
	}
	newEnd, err := models.ParseDate(req.NewEndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid new end date")
	}
	series, _, err := s.series.Get(ctx, req.SnapshotVersion, req.SeriesID)
	if err != nil {
		return nil, err
	}
	plan, err := s.planner.PlanExtend(series, newEnd)
	return s.dispatch(ctx, models.BulkExtend, plan, err)
}

// Delete removes every future instance of the series.
func (s *BulkService) Delete(ctx context.Context, req BulkDeleteRequest) (*BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}
	series, _, err := s.series.Get(ctx, req.SnapshotVersion, req.SeriesID)
	if err != nil {
		return nil, err
	}
	plan, err := s.planner.PlanDelete(series, s.store.Now())
	return s.dispatch(ctx, models.BulkDelete, plan, err)
}

// CancelDay cancels every instance on date.
func (s *BulkService) CancelDay(ctx context.Context, date time.Time, refundCredits bool) (*BulkResult, error) {
	return s.dispatch(ctx, models.BulkCancelDay, s.planner.PlanCancelDay(date, refundCredits), nil)
}

// ReactivateDay restores the cancelled instances on date.
func (s *BulkService) ReactivateDay(ctx context.Context, date time.Time) (*BulkResult, error) {
	return s.dispatch(ctx, models.BulkReactivateDay, s.planner.PlanReactivateDay(date), nil)
}

func (s *BulkService) dispatch(ctx context.Context, kind models.BulkKind, plan models.BulkPlan, planErr error) (*BulkResult, error) {
	if planErr != nil {
		s.metrics.ObserveBulk(kind, outcomeRejected)
		s.logger.Warn("bulk plan rejected", zap.String("kind", string(kind)), zap.Error(planErr))
		return nil, planErr
	}

	result, err := s.gateway.MutateInstances(ctx, plan)
	if err != nil {
		s.metrics.ObserveBulk(kind, outcomeFailed)
		return nil, err
	}
	s.metrics.ObserveBulk(kind, outcomeOK)

	fields := []zap.Field{zap.String("kind", string(kind))}
	if result != nil {
		fields = append(fields, zap.Int("matched", result.Matched), zap.Int("created", result.Created), zap.Strings("affected_users", result.AffectedUserIDs))
	}
	s.logger.Info("bulk mutation applied", fields...)

	out := &BulkResult{Plan: plan, Result: result}
	snapshot, err := s.store.AfterMutation(ctx)
	if err != nil {
		s.logger.Warn("snapshot refresh after bulk mutation failed", zap.Error(err))
		return out, nil
	}
	out.SnapshotVersion = snapshot.Version
	return out, nil
}
