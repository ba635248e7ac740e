package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

// InstanceList is a classified instance listing bound to its snapshot.
type InstanceList struct {
	SnapshotVersion uint64                `json:"snapshot_version"`
	Instances       []models.InstanceView `json:"instances"`
}

// EnrollmentResult reports an enrollment action and the refreshed view.
type EnrollmentResult struct {
	Action          models.Action          `json:"action"`
	Result          *models.MutationResult `json:"result"`
	Instance        *models.InstanceView   `json:"instance,omitempty"`
	SnapshotVersion uint64                 `json:"snapshot_version"`
}

// EnrollmentService classifies instances for a viewer and performs the
// enrollment actions the classification allows.
type EnrollmentService struct {
	store   *SnapshotStore
	gateway InstanceGateway
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(store *SnapshotStore, gateway InstanceGateway, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{store: store, gateway: gateway, metrics: metrics, logger: logger}
}

// List filters, sorts and classifies the snapshot for userID.
func (s *EnrollmentService) List(ctx context.Context, userID string, version uint64, query engine.Query) (*InstanceList, error) {
	snapshot, err := s.store.Ensure(ctx, version)
	if err != nil {
		return nil, err
	}
	return s.listing(snapshot, userID, query), nil
}

// Refresh refetches the instance window from the collaborator and lists the
// new snapshot for userID.
func (s *EnrollmentService) Refresh(ctx context.Context, userID string, query engine.Query) (*InstanceList, error) {
	snapshot, err := s.store.ForceRefresh(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("snapshot refreshed on request", zap.Uint64("snapshot_version", snapshot.Version))
	return s.listing(snapshot, userID, query), nil
}

func (s *EnrollmentService) listing(snapshot *models.Snapshot, userID string, query engine.Query) *InstanceList {
	instances := query.Apply(snapshot.Instances)
	return &InstanceList{
		SnapshotVersion: snapshot.Version,
		Instances:       engine.ClassifyAll(instances, userID, s.store.Now(), s.store.Location()),
	}
}

// Classify returns the view of one instance for userID.
func (s *EnrollmentService) Classify(ctx context.Context, userID, instanceID string, version uint64) (*models.InstanceView, error) {
	snapshot, err := s.store.Ensure(ctx, version)
	if err != nil {
		return nil, err
	}
	inst, ok := snapshot.Find(instanceID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class instance not found")
	}
	return &models.InstanceView{
		ClassInstance:  inst,
		Classification: engine.Classify(inst, userID, s.store.Now(), s.store.Location()),
	}, nil
}

// Enroll takes a seat.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, instanceID string) (*EnrollmentResult, error) {
	return s.perform(ctx, userID, instanceID, models.ActionEnroll, s.gateway.Enroll)
}

// Unenroll releases a seat.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, instanceID string) (*EnrollmentResult, error) {
	return s.perform(ctx, userID, instanceID, models.ActionUnenroll, s.gateway.Unenroll)
}

// JoinWaitlist queues for a seat on a full class.
func (s *EnrollmentService) JoinWaitlist(ctx context.Context, userID, instanceID string) (*EnrollmentResult, error) {
	return s.perform(ctx, userID, instanceID, models.ActionJoinWaitlist, s.gateway.JoinWaitlist)
}

// LeaveWaitlist leaves the waitlist.
func (s *EnrollmentService) LeaveWaitlist(ctx context.Context, userID, instanceID string) (*EnrollmentResult, error) {
	return s.perform(ctx, userID, instanceID, models.ActionLeaveWaitlist, s.gateway.LeaveWaitlist)
}

type enrollmentCall func(ctx context.Context, instanceID, userID string) (*models.MutationResult, error)

func (s *EnrollmentService) perform(ctx context.Context, userID, instanceID string, action models.Action, call enrollmentCall) (*EnrollmentResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user required")
	}
	view, err := s.Classify(ctx, userID, instanceID, 0)
	if err != nil {
		return nil, err
	}
	if !view.Allows(action) {
		s.metrics.ObserveEnrollment(action, outcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrActionNotAllowed, string(action)+" not allowed while class is "+string(view.State))
	}

	result, err := call(ctx, instanceID, userID)
	if err != nil {
		s.metrics.ObserveEnrollment(action, outcomeFailed)
		return nil, err
	}
	s.metrics.ObserveEnrollment(action, outcomeOK)
	s.logger.Info("enrollment action applied",
		zap.String("action", string(action)),
		zap.String("instance_id", instanceID),
		zap.String("user_id", userID),
	)

	out := &EnrollmentResult{Action: action, Result: result}
	snapshot, err := s.store.AfterMutation(ctx)
	if err != nil {
		s.logger.Warn("snapshot refresh after enrollment failed", zap.Error(err))
		return out, nil
	}
	out.SnapshotVersion = snapshot.Version
	if inst, ok := snapshot.Find(instanceID); ok {
		out.Instance = &models.InstanceView{
			ClassInstance:  inst,
			Classification: engine.Classify(inst, userID, s.store.Now(), s.store.Location()),
		}
	}
	return out, nil
}
