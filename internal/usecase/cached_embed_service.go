package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/domain/repository"
	"github.com/embedworks/vidembed/internal/infrastructure/cache"
	"github.com/embedworks/vidembed/internal/infrastructure/metrics"
)

// CachedEmbedServiceConfig holds configuration for CachedEmbedService.
type CachedEmbedServiceConfig struct {
	// CacheTTL is the TTL for hot records in the Redis layer.
	CacheTTL time.Duration
}

// DefaultCachedEmbedServiceConfig returns the default configuration.
func DefaultCachedEmbedServiceConfig() CachedEmbedServiceConfig {
	return CachedEmbedServiceConfig{
		CacheTTL: 10 * time.Minute,
	}
}

// cachedEmbedService wraps EmbedService with a Redis hot layer in front of
// the persistent store. It implements the decorator pattern to add caching
// without modifying the original service.
type cachedEmbedService struct {
	delegate EmbedService
	cache    cache.EmbedCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration
}

// NewCachedEmbedService creates a new CachedEmbedService wrapping the provided EmbedService.
func NewCachedEmbedService(
	delegate EmbedService,
	embedCache cache.EmbedCache,
	cfg CachedEmbedServiceConfig,
) EmbedService {
	return &cachedEmbedService{
		delegate: delegate,
		cache:    embedCache,
		cacheTTL: cfg.CacheTTL,
	}
}

// Resolve retrieves a record through the hot layer.
// Uses singleflight to prevent cache stampede on concurrent requests for the same video.
func (s *cachedEmbedService) Resolve(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
	result, err, shared := s.sfGroup.Do(input.VideoID, func() (any, error) {
		return s.resolveWithCache(ctx, input)
	})

	// Record singleflight metrics
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	return result.(*ResolveOutput), nil
}

// resolveWithCache implements the cache-aside pattern over the hot layer.
func (s *cachedEmbedService) resolveWithCache(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
	rec, err := s.cache.Get(ctx, input.VideoID)
	if err != nil {
		// Log cache error but continue to the persistent store
		slog.Warn("cache get failed, falling back to store",
			"video_id", input.VideoID,
			"error", err,
		)
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
	}

	if rec != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
		return &ResolveOutput{Record: rec, FromCache: true}, nil
	}
	if err == nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
	}

	out, err := s.delegate.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	// Store in cache (errors logged but not propagated)
	if err := s.cache.Set(ctx, out.Record, s.cacheTTL); err != nil {
		slog.Warn("failed to cache embed",
			"video_id", input.VideoID,
			"error", err,
		)
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
	} else {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	}

	return out, nil
}

// Refresh evicts the hot entry and delegates.
// Eviction happens first so readers pick up the refreshed row from the
// store instead of serving the hot copy for up to a full TTL.
func (s *cachedEmbedService) Refresh(ctx context.Context, videoID string) (uuid.UUID, error) {
	if err := s.cache.Delete(ctx, videoID); err != nil {
		// Log but don't fail - cache invalidation failure is non-critical
		slog.Warn("failed to evict hot entry on refresh",
			"video_id", videoID,
			"error", err,
		)
	}

	return s.delegate.Refresh(ctx, videoID)
}

// Invalidate evicts the hot entry and delegates.
func (s *cachedEmbedService) Invalidate(ctx context.Context, videoID string) (int64, error) {
	if err := s.cache.Delete(ctx, videoID); err != nil {
		slog.Warn("failed to evict hot entry on invalidate",
			"video_id", videoID,
			"error", err,
		)
	}

	return s.delegate.Invalidate(ctx, videoID)
}

// InvalidateAll flushes the hot layer and delegates.
func (s *cachedEmbedService) InvalidateAll(ctx context.Context) error {
	if err := s.cache.Flush(ctx); err != nil {
		slog.Warn("failed to flush hot cache on invalidate all",
			"error", err,
		)
	}

	return s.delegate.InvalidateAll(ctx)
}

// List delegates to the underlying service.
// Listing always reads the persistent store; the hot layer is keyed per video.
func (s *cachedEmbedService) List(ctx context.Context, params repository.ListParams) ([]*model.EmbedRecord, error) {
	return s.delegate.List(ctx, params)
}

// Count delegates to the underlying service.
func (s *cachedEmbedService) Count(ctx context.Context) (int64, error) {
	return s.delegate.Count(ctx)
}

// ThumbnailURL delegates to the underlying service.
func (s *cachedEmbedService) ThumbnailURL(ctx context.Context, videoID string) (string, error) {
	return s.delegate.ThumbnailURL(ctx, videoID)
}
