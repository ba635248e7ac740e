package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

// SnapshotConfig sizes the visibility window around today. A committed
// snapshot older than MaxAge is refetched on the next read; zero disables the
// age check.
type SnapshotConfig struct {
	PastDays   int
	FutureDays int
	MaxAge     time.Duration
	Location   *time.Location
}

// SnapshotStore keeps the current class instance snapshot. Every refresh
// draws a monotonically increasing token; a refresh that completes after a
// newer one has been committed is discarded instead of overwriting it.
type SnapshotStore struct {
	gateway InstanceGateway
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	clock   Clock
	cfg     SnapshotConfig

	tokens atomic.Uint64

	mu        sync.RWMutex
	current   *models.Snapshot
	committed uint64
}

// NewSnapshotStore constructs the store.
func NewSnapshotStore(gateway InstanceGateway, cache *CacheService, metrics *MetricsService, logger *zap.Logger, clock Clock, cfg SnapshotConfig) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = defaultClock
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PastDays < 0 {
		cfg.PastDays = 0
	}
	if cfg.FutureDays <= 0 {
		cfg.FutureDays = 62
	}
	return &SnapshotStore{gateway: gateway, cache: cache, metrics: metrics, logger: logger, clock: clock, cfg: cfg}
}

// Location returns the studio location the store reasons in.
func (s *SnapshotStore) Location() *time.Location {
	return s.cfg.Location
}

// Now returns the store's reference time.
func (s *SnapshotStore) Now() time.Time {
	return s.clock()
}

// Window returns the visibility window around today.
func (s *SnapshotStore) Window() models.Window {
	today := engine.Today(s.clock(), s.cfg.Location)
	return models.Window{
		From: today.AddDate(0, 0, -s.cfg.PastDays),
		To:   today.AddDate(0, 0, s.cfg.FutureDays),
	}
}

// Refresh fetches a new snapshot. It returns ErrStaleSnapshot when a newer
// refresh committed while this one was in flight.
func (s *SnapshotStore) Refresh(ctx context.Context) (*models.Snapshot, error) {
	token := s.tokens.Add(1)
	start := time.Now()
	window := s.Window()

	instances, err := s.load(ctx, window)
	if err != nil {
		s.metrics.ObserveRefresh(RefreshFailed, time.Since(start), 0)
		return nil, err
	}

	snapshot := &models.Snapshot{
		Version:   token,
		Window:    window,
		FetchedAt: s.clock(),
		Instances: instances,
	}

	s.mu.Lock()
	if token < s.committed {
		s.mu.Unlock()
		s.metrics.ObserveRefresh(RefreshSuperseded, time.Since(start), len(instances))
		s.logger.Debug("discarding superseded snapshot", zap.Uint64("token", token))
		return nil, appErrors.Clone(appErrors.ErrStaleSnapshot, "refresh superseded by a newer one")
	}
	s.current = snapshot
	s.committed = token
	s.mu.Unlock()

	s.metrics.ObserveRefresh(RefreshCommitted, time.Since(start), len(instances))
	return snapshot, nil
}

// Current returns the committed snapshot. It refreshes when none exists, when
// the committed one is older than MaxAge, or when today moved the window.
func (s *SnapshotStore) Current(ctx context.Context) (*models.Snapshot, error) {
	current := s.committedSnapshot()
	if current != nil && !s.expired(current) {
		return current, nil
	}
	return s.refreshOrLatest(ctx)
}

// ForceRefresh refetches the window now. When a concurrent refresh wins, its
// snapshot is returned instead.
func (s *SnapshotStore) ForceRefresh(ctx context.Context) (*models.Snapshot, error) {
	return s.refreshOrLatest(ctx)
}

func (s *SnapshotStore) refreshOrLatest(ctx context.Context) (*models.Snapshot, error) {
	snapshot, err := s.Refresh(ctx)
	if err != nil && errors.Is(err, appErrors.ErrStaleSnapshot) {
		// superseded only after a newer refresh committed
		if latest := s.committedSnapshot(); latest != nil {
			return latest, nil
		}
	}
	return snapshot, err
}

func (s *SnapshotStore) committedSnapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *SnapshotStore) expired(snapshot *models.Snapshot) bool {
	if snapshot.Window.Key() != s.Window().Key() {
		return true
	}
	return s.cfg.MaxAge > 0 && s.clock().Sub(snapshot.FetchedAt) >= s.cfg.MaxAge
}

// Ensure returns the current snapshot when it matches version. A zero
// version means the caller does not pin one.
func (s *SnapshotStore) Ensure(ctx context.Context, version uint64) (*models.Snapshot, error) {
	snapshot, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if version != 0 && snapshot.Version != version {
		return nil, appErrors.Clone(appErrors.ErrStaleSnapshot, "snapshot version superseded, refresh and retry")
	}
	return snapshot, nil
}

// AfterMutation drops cached windows and refreshes the snapshot.
func (s *SnapshotStore) AfterMutation(ctx context.Context) (*models.Snapshot, error) {
	_ = s.cache.Invalidate(ctx)
	return s.refreshOrLatest(ctx)
}

func (s *SnapshotStore) load(ctx context.Context, window models.Window) ([]models.ClassInstance, error) {
	if cached, ok := s.cache.GetWindow(ctx, window); ok {
		return cached, nil
	}

	raw, err := s.gateway.FetchInstances(ctx, window)
	if err != nil {
		return nil, err
	}

	instances := make([]models.ClassInstance, 0, len(raw))
	for _, r := range raw {
		inst, err := r.Normalize()
		if err != nil {
			s.logger.Warn("skipping malformed class instance", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		instances = append(instances, inst)
	}

	s.cache.SetWindow(ctx, window, instances)
	return instances, nil
}
