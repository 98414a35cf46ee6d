package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tunecrate/core/youtube"
	"tunecrate/logger"

	"github.com/redis/go-redis/v9"
)

const (
	metadataKeyPrefix = "yt:meta:"
	metadataTTL       = 7 * 24 * time.Hour
)

// MetadataCache is a cache-aside layer in front of the YouTube metadata
// lookup. Video metadata is immutable enough that a week-long TTL is safe;
// cache failures are logged and treated as misses.
type MetadataCache struct {
	client  *redis.Client
	wrapped youtube.MetadataLookup
}

// NewMetadataCache wraps lookup with a Redis cache. client may be nil, in
// which case every call falls through to the wrapped lookup.
func NewMetadataCache(client *redis.Client, wrapped youtube.MetadataLookup) *MetadataCache {
	return &MetadataCache{client: client, wrapped: wrapped}
}

// Lookup implements youtube.MetadataLookup.
func (c *MetadataCache) Lookup(ctx context.Context, videoID string) (*youtube.VideoMeta, error) {
	key := metadataKeyPrefix + videoID

	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Result()
		if err == nil {
			var meta youtube.VideoMeta
			if err := json.Unmarshal([]byte(raw), &meta); err == nil {
				logger.Debug("[MetaCache] hit", logger.String("videoId", videoID))
				return &meta, nil
			}
			// Corrupt entry; drop it and refetch.
			c.client.Del(ctx, key)
		} else if err != redis.Nil {
			logger.Warn("[MetaCache] redis get failed", logger.ErrorField(err))
		}
	}

	meta, err := c.wrapped.Lookup(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			return meta, nil
		}
		if err := c.client.Set(ctx, key, raw, metadataTTL).Err(); err != nil {
			logger.Warn("[MetaCache] redis set failed", logger.ErrorField(err))
		}
	}

	return meta, nil
}

// Invalidate removes a cached entry.
func (c *MetadataCache) Invalidate(ctx context.Context, videoID string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, metadataKeyPrefix+videoID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate metadata for %s: %w", videoID, err)
	}
	return nil
}
