package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

// SnapshotCacheRepository persists fetched instance windows by window key.
type SnapshotCacheRepository interface {
	GetWindow(ctx context.Context, windowKey string) ([]models.ClassInstance, error)
	SetWindow(ctx context.Context, windowKey string, instances []models.ClassInstance, ttl time.Duration) error
	InvalidateWindows(ctx context.Context) error
}

// CacheService caches fetched instance windows between refreshes.
type CacheService struct {
	repo    SnapshotCacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo SnapshotCacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// GetWindow returns cached instances for window, reporting whether it hit.
// Lookup failures degrade to a miss.
func (s *CacheService) GetWindow(ctx context.Context, window models.Window) ([]models.ClassInstance, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	instances, err := s.repo.GetWindow(ctx, window.Key())
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("snapshot cache get failed", zap.String("window", window.Key()), zap.Error(err))
		}
		return nil, false
	}
	return instances, true
}

// SetWindow stores instances for window.
func (s *CacheService) SetWindow(ctx context.Context, window models.Window, instances []models.ClassInstance) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.SetWindow(ctx, window.Key(), instances, s.ttl); err != nil {
		s.logger.Warn("snapshot cache set failed", zap.String("window", window.Key()), zap.Error(err))
	}
}

// Invalidate drops every cached window, used after mutations.
func (s *CacheService) Invalidate(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.InvalidateWindows(ctx); err != nil {
		s.logger.Warn("snapshot cache invalidate failed", zap.Error(err))
		return err
	}
	return nil
}
