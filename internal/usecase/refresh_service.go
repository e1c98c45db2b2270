package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/domain/repository"
	"github.com/embedworks/vidembed/internal/infrastructure/cache"
	"github.com/embedworks/vidembed/internal/infrastructure/metrics"
	"github.com/embedworks/vidembed/internal/match"
)

// RefreshService processes queued embed refresh tasks.
type RefreshService interface {
	// ProcessTask re-fetches the embed named by the task and overwrites
	// the stored record. A nil return acknowledges the task; an error
	// sends it back to the queue for another attempt.
	ProcessTask(ctx context.Context, task repository.RefreshTask) error
}

type refreshService struct {
	store    repository.EmbedStore
	cache    cache.EmbedCache
	fetcher  OembedFetcher
	storage  repository.ObjectStorage
	settings model.Settings
	thumbs   *retryablehttp.Client

	now func() time.Time
}

// NewRefreshService creates a new RefreshService instance.
func NewRefreshService(
	store repository.EmbedStore,
	embedCache cache.EmbedCache,
	fetcher OembedFetcher,
	storage repository.ObjectStorage,
	settings model.Settings,
) RefreshService {
	thumbs := retryablehttp.NewClient()
	thumbs.RetryMax = 3
	thumbs.Logger = nil // the service logs failures itself

	return newRefreshServiceWithClient(store, embedCache, fetcher, storage, settings, thumbs)
}

// newRefreshServiceWithClient allows injecting the thumbnail download
// client for testing.
func newRefreshServiceWithClient(
	store repository.EmbedStore,
	embedCache cache.EmbedCache,
	fetcher OembedFetcher,
	storage repository.ObjectStorage,
	settings model.Settings,
	thumbs *retryablehttp.Client,
) RefreshService {
	return &refreshService{
		store:    store,
		cache:    embedCache,
		fetcher:  fetcher,
		storage:  storage,
		settings: settings.Normalize(),
		thumbs:   thumbs,
		now:      time.Now,
	}
}

// ProcessTask handles one refresh task.
func (s *refreshService) ProcessTask(ctx context.Context, task repository.RefreshTask) error {
	provider, ok := match.ByName(task.Provider)
	if !ok {
		provider, ok = match.ForURL(task.VideoURL)
	}
	if !ok {
		// Permanent: requeueing cannot fix an unknown provider.
		slog.Error("dropping refresh task for unknown provider",
			"task_id", task.TaskID,
			"provider", task.Provider,
			"url", task.VideoURL,
		)
		metrics.RefreshTasksTotal.WithLabelValues(metrics.ResultDropped).Inc()
		return nil
	}

	existing, err := s.store.Get(ctx, task.VideoID)
	if errors.Is(err, repository.ErrEmbedNotFound) {
		// The record was invalidated after the task was queued. Refreshing
		// it back would undo the deletion.
		slog.Info("skipping refresh for missing embed",
			"task_id", task.TaskID,
			"video_id", task.VideoID,
		)
		metrics.RefreshTasksTotal.WithLabelValues(metrics.ResultDropped).Inc()
		return nil
	}
	if err != nil {
		metrics.RefreshTasksTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("get embed %s: %w", task.VideoID, err)
	}

	rec := fetchWithFallback(ctx, s.fetcher, ResolveInput{
		Provider: provider,
		VideoID:  task.VideoID,
		VideoURL: task.VideoURL,
		Owner:    existing.Owner,
	})
	rec.CreatedAt = s.now().UTC()

	if err := s.store.Put(ctx, rec); err != nil {
		metrics.RefreshTasksTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("put refreshed embed %s: %w", task.VideoID, err)
	}

	// Drop the hot entry so the next resolve serves the fresh record.
	if err := s.cache.Delete(ctx, task.VideoID); err != nil {
		slog.Warn("failed to evict refreshed embed from cache",
			"video_id", task.VideoID,
			"error", err,
		)
	}

	if s.settings.PrivacyEnhanced && rec.Valid && rec.ThumbnailURL != "" {
		s.mirrorThumbnail(ctx, rec)
	}

	metrics.RefreshTasksTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	slog.Info("refreshed embed",
		"task_id", task.TaskID,
		"provider", provider.Name,
		"video_id", task.VideoID,
		"valid", rec.Valid,
	)
	return nil
}

// mirrorThumbnail downloads the provider thumbnail into object storage.
// In privacy-enhanced mode pages must not load images from the provider,
// so the thumbnail is served from our own bucket instead. Mirror failures
// never fail the task; the record falls back to the provider URL.
func (s *refreshService) mirrorThumbnail(ctx context.Context, rec *model.EmbedRecord) {
	resp, err := s.thumbs.Get(rec.ThumbnailURL)
	if err != nil {
		slog.Warn("failed to download thumbnail",
			"video_id", rec.VideoID,
			"url", rec.ThumbnailURL,
			"error", err,
		)
		metrics.ThumbnailMirrorsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("failed to download thumbnail",
			"video_id", rec.VideoID,
			"url", rec.ThumbnailURL,
			"status", resp.StatusCode,
		)
		metrics.ThumbnailMirrorsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return
	}

	key := ThumbnailKey(rec.VideoID)
	contentType := resp.Header.Get("Content-Type")
	if err := s.storage.Upload(ctx, key, resp.Body, contentType); err != nil {
		slog.Warn("failed to store mirrored thumbnail",
			"video_id", rec.VideoID,
			"key", key,
			"error", err,
		)
		metrics.ThumbnailMirrorsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return
	}

	metrics.ThumbnailMirrorsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	slog.Info("mirrored thumbnail",
		"video_id", rec.VideoID,
		"key", key,
	)
}
