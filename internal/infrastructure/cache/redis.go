package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/embedworks/vidembed/internal/domain/model"
)

const (
	// embedCacheKeyPrefix is the prefix for embed cache keys in Redis.
	embedCacheKeyPrefix = "embed:"

	// flushScanCount is the SCAN page size used by Flush.
	flushScanCount = 100
)

// embedJSON is the JSON representation of an EmbedRecord for caching.
// Using explicit struct avoids coupling to domain model's JSON tags.
type embedJSON struct {
	VideoID         string `json:"video_id"`
	VideoURL        string `json:"video_url"`
	Valid           bool   `json:"valid"`
	EmbedHTML       string `json:"embed_html,omitempty"`
	HTTPStatus      int    `json:"http_status"`
	Title           string `json:"title,omitempty"`
	AuthorName      string `json:"author_name,omitempty"`
	AuthorURL       string `json:"author_url,omitempty"`
	ProviderName    string `json:"provider_name,omitempty"`
	ProviderURL     string `json:"provider_url,omitempty"`
	Type            string `json:"type,omitempty"`
	Version         string `json:"version,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	ThumbnailWidth  int    `json:"thumbnail_width,omitempty"`
	ThumbnailHeight int    `json:"thumbnail_height,omitempty"`
	CreatedAt       string `json:"created_at"`
	OwnerPageID     int    `json:"owner_page_id,omitempty"`
	OwnerField      string `json:"owner_field,omitempty"`
}

// RedisEmbedCache implements EmbedCache using Redis as the backing store.
type RedisEmbedCache struct {
	client *redis.Client
}

// NewRedisEmbedCache creates a new Redis-backed embed cache.
func NewRedisEmbedCache(client *redis.Client) *RedisEmbedCache {
	return &RedisEmbedCache{
		client: client,
	}
}

// Get retrieves a record from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisEmbedCache) Get(ctx context.Context, videoID string) (*model.EmbedRecord, error) {
	key := c.buildKey(videoID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	rec, err := c.deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize embed: %w", err)
	}

	return rec, nil
}

// Set stores a record in Redis cache with the specified TTL.
func (c *RedisEmbedCache) Set(ctx context.Context, rec *model.EmbedRecord, ttl time.Duration) error {
	key := c.buildKey(rec.VideoID)

	data, err := c.serialize(rec)
	if err != nil {
		return fmt.Errorf("serialize embed: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a record from Redis cache.
func (c *RedisEmbedCache) Delete(ctx context.Context, videoID string) error {
	key := c.buildKey(videoID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// Flush removes every key under the embed prefix. It scans instead of
// calling FLUSHDB so other tenants of the Redis database are untouched.
func (c *RedisEmbedCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, embedCacheKeyPrefix+"*", flushScanCount).Iterator()

	keys := make([]string, 0, flushScanCount)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == flushScanCount {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}

	return nil
}

// buildKey constructs the Redis key for a video id.
func (c *RedisEmbedCache) buildKey(videoID string) string {
	return embedCacheKeyPrefix + videoID
}

// serialize converts an EmbedRecord to JSON bytes.
func (c *RedisEmbedCache) serialize(rec *model.EmbedRecord) ([]byte, error) {
	v := embedJSON{
		VideoID:         rec.VideoID,
		VideoURL:        rec.VideoURL,
		Valid:           rec.Valid,
		EmbedHTML:       rec.EmbedHTML,
		HTTPStatus:      rec.HTTPStatus,
		Title:           rec.Title,
		AuthorName:      rec.AuthorName,
		AuthorURL:       rec.AuthorURL,
		ProviderName:    rec.ProviderName,
		ProviderURL:     rec.ProviderURL,
		Type:            rec.Type,
		Version:         rec.Version,
		Width:           rec.Width,
		Height:          rec.Height,
		ThumbnailURL:    rec.ThumbnailURL,
		ThumbnailWidth:  rec.ThumbnailWidth,
		ThumbnailHeight: rec.ThumbnailHeight,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339Nano),
		OwnerPageID:     rec.Owner.PageID,
		OwnerField:      rec.Owner.Field,
	}
	return json.Marshal(v)
}

// deserialize converts JSON bytes to an EmbedRecord.
func (c *RedisEmbedCache) deserialize(data []byte) (*model.EmbedRecord, error) {
	var v embedJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339Nano, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &model.EmbedRecord{
		VideoID:         v.VideoID,
		VideoURL:        v.VideoURL,
		Valid:           v.Valid,
		EmbedHTML:       v.EmbedHTML,
		HTTPStatus:      v.HTTPStatus,
		Title:           v.Title,
		AuthorName:      v.AuthorName,
		AuthorURL:       v.AuthorURL,
		ProviderName:    v.ProviderName,
		ProviderURL:     v.ProviderURL,
		Type:            v.Type,
		Version:         v.Version,
		Width:           v.Width,
		Height:          v.Height,
		ThumbnailURL:    v.ThumbnailURL,
		ThumbnailWidth:  v.ThumbnailWidth,
		ThumbnailHeight: v.ThumbnailHeight,
		CreatedAt:       createdAt,
		Owner: model.OwnerRef{
			PageID: v.OwnerPageID,
			Field:  v.OwnerField,
		},
	}, nil
}

// Compile-time verification that RedisEmbedCache implements EmbedCache.
var _ EmbedCache = (*RedisEmbedCache)(nil)
