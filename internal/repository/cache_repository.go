package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

const (
	snapshotKeyPrefix = "class-series:instances:"
	invalidateBatch   = 100
)

// SnapshotKey is the Redis key of a fetched instance window, e.g.
// class-series:instances:2026-10-12:2026-12-20.
func SnapshotKey(windowKey string) string {
	return snapshotKeyPrefix + windowKey
}

// SnapshotCacheRepository keeps fetched class instance windows in Redis,
// one JSON array per window key. A nil client behaves as an empty cache.
type SnapshotCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSnapshotCacheRepository constructs the repository.
func NewSnapshotCacheRepository(client *redis.Client, logger *zap.Logger) *SnapshotCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCacheRepository{client: client, logger: logger}
}

// GetWindow loads the instances cached for windowKey. A missing key yields
// ErrCacheMiss.
func (r *SnapshotCacheRepository) GetWindow(ctx context.Context, windowKey string) ([]models.ClassInstance, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	key := SnapshotKey(windowKey)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var instances []models.ClassInstance
	if err := json.Unmarshal(raw, &instances); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot window %s: %w", key, err)
	}
	return instances, nil
}

// SetWindow stores the instances of windowKey for ttl.
func (r *SnapshotCacheRepository) SetWindow(ctx context.Context, windowKey string, instances []models.ClassInstance, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	key := SnapshotKey(windowKey)
	payload, err := json.Marshal(instances)
	if err != nil {
		return fmt.Errorf("marshal snapshot window %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// InvalidateWindows drops every cached window. Keys are collected with SCAN
// and unlinked in batches, so it never blocks Redis on a large keyspace.
func (r *SnapshotCacheRepository) InvalidateWindows(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	pattern := snapshotKeyPrefix + "*"
	batch := make([]string, 0, invalidateBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink snapshot windows: %w", err)
		}
		r.logger.Debug("snapshot windows invalidated", zap.Int("keys", len(batch)))
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, invalidateBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == invalidateBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return flush()
}

// Close releases the underlying Redis connection if present.
func (r *SnapshotCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
