package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

// SeriesList is a grouping result bound to the snapshot it came from.
type SeriesList struct {
	SnapshotVersion uint64                   `json:"snapshot_version"`
	Series          []models.RecurringSeries `json:"series"`
}

// SeriesService derives recurring series from the current snapshot.
type SeriesService struct {
	store   *SnapshotStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSeriesService constructs SeriesService.
func NewSeriesService(store *SnapshotStore, metrics *MetricsService, logger *zap.Logger) *SeriesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeriesService{store: store, metrics: metrics, logger: logger}
}

// List groups the snapshot pinned by version (0 for current) and filters it.
func (s *SeriesService) List(ctx context.Context, version uint64, query engine.Query) (*SeriesList, error) {
	snapshot, err := s.store.Ensure(ctx, version)
	if err != nil {
		return nil, err
	}
	series := s.group(snapshot)
	return &SeriesList{SnapshotVersion: snapshot.Version, Series: query.ApplySeries(series)}, nil
}

// Get returns one series of the snapshot pinned by version.
func (s *SeriesService) Get(ctx context.Context, version uint64, id string) (models.RecurringSeries, *models.Snapshot, error) {
	snapshot, err := s.store.Ensure(ctx, version)
	if err != nil {
		return models.RecurringSeries{}, nil, err
	}
	series, ok := engine.FindSeries(s.group(snapshot), id)
	if !ok {
		return models.RecurringSeries{}, nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
	}
	return series, snapshot, nil
}

func (s *SeriesService) group(snapshot *models.Snapshot) []models.RecurringSeries {
	series := engine.GroupSeries(snapshot.Instances, s.store.Now(), s.store.Location())
	s.metrics.ObserveGrouping(len(series))
	return series
}
