package service

import (
	"context"
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
)

// InstanceGateway is the collaborator that owns class instance storage.
// Its errors are passed through unmodified.
type InstanceGateway interface {
	FetchInstances(ctx context.Context, window models.Window) ([]models.RawClassInstance, error)
	MutateInstances(ctx context.Context, plan models.BulkPlan) (*models.MutationResult, error)
	Enroll(ctx context.Context, instanceID, userID string) (*models.MutationResult, error)
	Unenroll(ctx context.Context, instanceID, userID string) (*models.MutationResult, error)
	JoinWaitlist(ctx context.Context, instanceID, userID string) (*models.MutationResult, error)
	LeaveWaitlist(ctx context.Context, instanceID, userID string) (*models.MutationResult, error)
}

// ExtensionNotifier surfaces extension proposals to the user.
type ExtensionNotifier interface {
	NotifyExtensionProposed(ctx context.Context, sessionID string, series models.SeriesDescriptor, proposedNewEndDate time.Time) error
}

// Clock returns the reference "now".
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now()
}

// Outcome labels shared by metrics.
const (
	RefreshCommitted  = "committed"
	RefreshSuperseded = "superseded"
	RefreshFailed     = "failed"

	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)
