// Package cache holds the Redis read-side cache for populated releases.
// Cache misses and Redis failures are treated the same: callers fall back
// to the database, so a dead Redis only costs latency.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"labelops/logger"
	"labelops/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const releaseTTL = 10 * time.Minute

// ReleaseCache caches FullRelease payloads by release id.
type ReleaseCache struct {
	client *redis.Client
}

// NewReleaseCache creates a cache over an open Redis client.
func NewReleaseCache(client *redis.Client) *ReleaseCache {
	return &ReleaseCache{client: client}
}

func releaseKey(id string) string {
	return fmt.Sprintf("release:%s", id)
}

// GetFullRelease returns the cached release and true on a hit.
func (c *ReleaseCache) GetFullRelease(ctx context.Context, id string) (*model.FullRelease, bool) {
	data, err := c.client.Get(ctx, releaseKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("release cache read failed", zap.String("releaseId", id), zap.Error(err))
		}
		return nil, false
	}

	var full model.FullRelease
	if err := json.Unmarshal(data, &full); err != nil {
		logger.Warn("release cache entry corrupt, dropping", zap.String("releaseId", id), zap.Error(err))
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &full, true
}

// SetFullRelease stores the release with a TTL.
func (c *ReleaseCache) SetFullRelease(ctx context.Context, full *model.FullRelease) {
	data, err := json.Marshal(full)
	if err != nil {
		logger.Warn("failed to marshal release for cache", zap.String("releaseId", full.Release.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, releaseKey(full.Release.ID), data, releaseTTL).Err(); err != nil {
		logger.Warn("release cache write failed", zap.String("releaseId", full.Release.ID), zap.Error(err))
	}
}

// Invalidate drops the cached entry for a release.
func (c *ReleaseCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, releaseKey(id)).Err(); err != nil {
		logger.Warn("release cache invalidation failed", zap.String("releaseId", id), zap.Error(err))
	}
}
