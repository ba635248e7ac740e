package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/models"
	"github.com/noah-isme/class-series-api/pkg/jobs"
)

// JobTypeExtensionProposal identifies proposal delivery jobs.
const JobTypeExtensionProposal = "extension_proposal"

type proposalJob struct {
	SessionID string
	Proposal  models.ExtensionProposal
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ProposalNotifier delivers extension proposals asynchronously: the queue
// worker stores them in the session's pending list for the client to pick up.
type ProposalNotifier struct {
	queue    jobEnqueuer
	sessions SessionStateStore
	logger   *zap.Logger
	clock    Clock
}

// NewProposalNotifier constructs the notifier. Call Bind with the queue
// that runs Handle before notifying.
func NewProposalNotifier(sessions SessionStateStore, logger *zap.Logger, clock Clock) *ProposalNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = defaultClock
	}
	return &ProposalNotifier{sessions: sessions, logger: logger, clock: clock}
}

// Bind attaches the delivery queue.
func (n *ProposalNotifier) Bind(queue jobEnqueuer) {
	n.queue = queue
}

// NotifyExtensionProposed implements ExtensionNotifier.
func (n *ProposalNotifier) NotifyExtensionProposed(ctx context.Context, sessionID string, series models.SeriesDescriptor, proposedNewEndDate time.Time) error {
	payload := proposalJob{
		SessionID: sessionID,
		Proposal: models.ExtensionProposal{
			Series:             series,
			ProposedNewEndDate: proposedNewEndDate,
			DetectedAt:         n.clock(),
		},
	}
	if n.queue == nil {
		return n.deliver(ctx, payload)
	}
	return n.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeExtensionProposal, Payload: payload})
}

// Handle is the queue handler for proposal jobs.
func (n *ProposalNotifier) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(proposalJob)
	if !ok {
		n.logger.Error("unexpected proposal job payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return n.deliver(ctx, payload)
}

func (n *ProposalNotifier) deliver(ctx context.Context, payload proposalJob) error {
	stored, err := n.sessions.PushProposal(ctx, payload.SessionID, payload.Proposal)
	if err != nil {
		return fmt.Errorf("store proposal for session %s: %w", payload.SessionID, err)
	}
	if !stored {
		n.logger.Debug("extension proposal dropped for ended session",
			zap.String("session_id", payload.SessionID),
			zap.String("series_id", payload.Proposal.Series.ID),
		)
		return nil
	}
	n.logger.Info("extension proposal delivered",
		zap.String("session_id", payload.SessionID),
		zap.String("series_id", payload.Proposal.Series.ID),
	)
	return nil
}
