package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

// ExpirationService runs the expiration detector against a session's state.
type ExpirationService struct {
	series   *SeriesService
	store    *SnapshotStore
	sessions SessionStateStore
	notifier ExtensionNotifier
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewExpirationService constructs ExpirationService. notifier may be nil.
func NewExpirationService(series *SeriesService, store *SnapshotStore, sessions SessionStateStore, notifier ExtensionNotifier, metrics *MetricsService, logger *zap.Logger) *ExpirationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirationService{series: series, store: store, sessions: sessions, notifier: notifier, metrics: metrics, logger: logger}
}

// Detect returns at most one extension proposal for the session. A series
// is proposed at most once per session, even under concurrent calls.
func (s *ExpirationService) Detect(ctx context.Context, sessionID string, version uint64) (*models.ExtensionProposal, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session required")
	}
	list, err := s.series.List(ctx, version, engine.Query{})
	if err != nil {
		return nil, err
	}

	ids, err := s.sessions.Notified(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session state")
	}
	notified := engine.NewNotifiedSet(ids...)

	for {
		proposal := engine.DetectExpiring(list.Series, notified, s.store.Now())
		if proposal == nil {
			return nil, nil
		}
		added, err := s.sessions.MarkNotified(ctx, sessionID, proposal.Series.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record notified series")
		}
		if !added {
			// Another request of this session proposed it first.
			continue
		}

		s.metrics.IncProposals()
		s.logger.Info("series extension proposed",
			zap.String("session_id", sessionID),
			zap.String("series_id", proposal.Series.ID),
			zap.Time("proposed_new_end_date", proposal.ProposedNewEndDate),
		)
		if s.notifier != nil {
			if err := s.notifier.NotifyExtensionProposed(ctx, sessionID, proposal.Series, proposal.ProposedNewEndDate); err != nil {
				s.logger.Warn("extension notification failed", zap.String("series_id", proposal.Series.ID), zap.Error(err))
			}
		}
		return proposal, nil
	}
}

// Pending returns the proposals dispatched to the session and not yet cleared.
func (s *ExpirationService) Pending(ctx context.Context, sessionID string) ([]models.ExtensionProposal, error) {
	proposals, err := s.sessions.Proposals(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposals")
	}
	return proposals, nil
}

// EndSession drops all detector state of the session.
func (s *ExpirationService) EndSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session state")
	}
	s.logger.Info("session state cleared", zap.String("session_id", sessionID))
	return nil
}
