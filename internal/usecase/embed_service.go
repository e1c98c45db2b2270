package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/domain/repository"
	"github.com/embedworks/vidembed/internal/infrastructure/metrics"
	"github.com/embedworks/vidembed/internal/infrastructure/oembed"
	"github.com/embedworks/vidembed/internal/match"
)

var (
	// ErrUnknownProvider is returned when a video URL matches no registered provider.
	ErrUnknownProvider = errors.New("no provider recognizes this video URL")

	// ErrNoThumbnail is returned when a cached record carries no thumbnail.
	ErrNoThumbnail = errors.New("embed has no thumbnail")
)

// ThumbnailKey returns the object storage key of a mirrored thumbnail.
func ThumbnailKey(videoID string) string {
	return "thumbs/" + videoID
}

// OembedFetcher fetches embed markup from a provider's oembed endpoint.
// Fetch never returns nil; failed lookups come back as invalid records.
type OembedFetcher interface {
	Fetch(ctx context.Context, req oembed.FetchRequest) *model.EmbedRecord
}

// ResolveInput identifies one video occurrence to resolve.
type ResolveInput struct {
	Provider match.Provider
	VideoID  string
	VideoURL string
	Owner    model.OwnerRef
}

// ResolveOutput contains the result of resolving a video.
type ResolveOutput struct {
	Record    *model.EmbedRecord
	FromCache bool
}

// EmbedService defines embed resolution and cache administration.
type EmbedService interface {
	// Resolve returns the record for input.VideoID, fetching from the
	// provider and caching the outcome on a miss. Failed lookups are
	// cached exactly like successes.
	Resolve(ctx context.Context, input ResolveInput) (*ResolveOutput, error)

	// Refresh queues an asynchronous re-fetch of one cached record and
	// returns the task id.
	Refresh(ctx context.Context, videoID string) (uuid.UUID, error)

	// Invalidate removes one record and reports how many were removed.
	Invalidate(ctx context.Context, videoID string) (int64, error)

	// InvalidateAll clears the whole cache.
	InvalidateAll(ctx context.Context) error

	// List pages through cached records.
	List(ctx context.Context, params repository.ListParams) ([]*model.EmbedRecord, error)

	// Count returns the number of cached records.
	Count(ctx context.Context) (int64, error)

	// ThumbnailURL returns a URL serving the thumbnail of a cached
	// record, preferring the mirrored copy over the provider origin.
	ThumbnailURL(ctx context.Context, videoID string) (string, error)
}

// EmbedServiceConfig holds configuration for EmbedService.
type EmbedServiceConfig struct {
	// ThumbnailURLExpiry is the validity window of presigned thumbnail URLs.
	ThumbnailURLExpiry time.Duration
}

// DefaultEmbedServiceConfig returns the default configuration.
func DefaultEmbedServiceConfig() EmbedServiceConfig {
	return EmbedServiceConfig{
		ThumbnailURLExpiry: 1 * time.Hour,
	}
}

type embedService struct {
	store    repository.EmbedStore
	fetcher  OembedFetcher
	queue    repository.MessageQueue
	storage  repository.ObjectStorage
	settings model.Settings

	thumbnailURLExpiry time.Duration

	// sweepMu serializes the once-per-day expiry sweep within this process.
	sweepMu   sync.Mutex
	sweepDate string

	now func() time.Time
}

// NewEmbedService creates a new EmbedService instance.
func NewEmbedService(
	store repository.EmbedStore,
	fetcher OembedFetcher,
	queue repository.MessageQueue,
	storage repository.ObjectStorage,
	settings model.Settings,
	cfg EmbedServiceConfig,
) EmbedService {
	return &embedService{
		store:              store,
		fetcher:            fetcher,
		queue:              queue,
		storage:            storage,
		settings:           settings.Normalize(),
		thumbnailURLExpiry: cfg.ThumbnailURLExpiry,
		now:                time.Now,
	}
}

// Resolve implements the persistent cache-aside flow.
func (s *embedService) Resolve(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
	s.maybeSweep(ctx)

	rec, err := s.store.Get(ctx, input.VideoID)
	if err == nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypePostgres).Inc()
		return &ResolveOutput{Record: rec, FromCache: true}, nil
	}
	if !errors.Is(err, repository.ErrEmbedNotFound) {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypePostgres).Inc()
		return nil, fmt.Errorf("get embed: %w", err)
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypePostgres).Inc()

	rec = fetchWithFallback(ctx, s.fetcher, input)
	rec.CreatedAt = s.now().UTC()

	if err := s.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("put embed: %w", err)
	}

	if rec.Valid {
		metrics.FetchesTotal.WithLabelValues(input.Provider.Name, metrics.ResultSuccess).Inc()
		slog.Info("retrieved embed",
			"provider", input.Provider.Name,
			"video_id", rec.VideoID,
			"url", rec.VideoURL,
			"page_id", input.Owner.PageID,
			"field", input.Owner.Field,
		)
	} else {
		metrics.FetchesTotal.WithLabelValues(input.Provider.Name, metrics.ResultFailure).Inc()
		slog.Warn("embed fetch failed",
			"provider", input.Provider.Name,
			"video_id", rec.VideoID,
			"url", rec.VideoURL,
			"status", rec.HTTPStatus,
			"page_id", input.Owner.PageID,
			"field", input.Owner.Field,
		)
	}

	return &ResolveOutput{Record: rec}, nil
}

// fetchWithFallback fetches the record, retrying at most once with the
// provider's canonical watch URL when the source URL failed. Short links
// and legacy paths sometimes 404 on the oembed endpoint even though the
// video exists.
func fetchWithFallback(ctx context.Context, fetcher OembedFetcher, input ResolveInput) *model.EmbedRecord {
	req := oembed.FetchRequest{
		Provider: input.Provider,
		VideoURL: input.VideoURL,
		VideoID:  input.VideoID,
		Owner:    input.Owner,
	}

	rec := fetcher.Fetch(ctx, req)
	if rec.Valid {
		return rec
	}

	canonical, ok := input.Provider.CanonicalURL(input.VideoID)
	if !ok || canonical == input.VideoURL {
		return rec
	}

	req.VideoURL = canonical
	retry := fetcher.Fetch(ctx, req)
	if retry.Valid {
		slog.Info("canonical URL fallback succeeded",
			"provider", input.Provider.Name,
			"video_id", input.VideoID,
			"url", canonical,
		)
	}

	// The canonical attempt's record is kept even when it also failed.
	return retry
}

// maybeSweep removes expired records at most once per calendar day (UTC).
// It is an opportunistic janitor running on the resolution path, so any
// failure is logged and resolution continues.
func (s *embedService) maybeSweep(ctx context.Context) {
	if s.settings.RefreshDays <= 0 {
		return
	}

	now := s.now().UTC()
	today := now.Format(time.DateOnly)

	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	if s.sweepDate == today {
		return
	}

	last, err := s.store.LastSweepAt(ctx)
	if err != nil {
		slog.Warn("failed to read sweep stamp", "error", err)
		return
	}
	if !last.IsZero() && last.UTC().Format(time.DateOnly) == today {
		// Another instance already swept today.
		s.sweepDate = today
		return
	}

	cutoff := now.AddDate(0, 0, -s.settings.RefreshDays)
	deleted, err := s.store.SweepExpired(ctx, cutoff)
	if err != nil {
		slog.Warn("expiry sweep failed", "error", err)
		return
	}
	if err := s.store.RecordSweep(ctx, now); err != nil {
		slog.Warn("failed to record sweep", "error", err)
	}

	s.sweepDate = today
	metrics.SweepDeletionsTotal.Add(float64(deleted))
	slog.Info("swept expired embeds", "deleted", deleted, "cutoff", cutoff)
}

// Refresh queues an async re-fetch for a record that is already cached.
func (s *embedService) Refresh(ctx context.Context, videoID string) (uuid.UUID, error) {
	rec, err := s.store.Get(ctx, videoID)
	if err != nil {
		return uuid.Nil, err
	}

	provider, ok := match.ForURL(rec.VideoURL)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownProvider, rec.VideoURL)
	}

	task := repository.RefreshTask{
		TaskID:   uuid.New(),
		Provider: provider.Name,
		VideoID:  rec.VideoID,
		VideoURL: rec.VideoURL,
	}

	if err := s.queue.PublishRefreshTask(ctx, task); err != nil {
		return uuid.Nil, fmt.Errorf("publish refresh task: %w", err)
	}

	slog.Info("queued embed refresh",
		"task_id", task.TaskID,
		"provider", provider.Name,
		"video_id", videoID,
	)

	return task.TaskID, nil
}

// Invalidate removes one record along with its mirrored thumbnail.
func (s *embedService) Invalidate(ctx context.Context, videoID string) (int64, error) {
	deleted, err := s.store.DeleteOne(ctx, videoID)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypePostgres).Inc()
		return 0, fmt.Errorf("delete embed: %w", err)
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypePostgres).Inc()

	if deleted > 0 {
		// Best effort: a dangling thumbnail object is harmless.
		if err := s.storage.Delete(ctx, ThumbnailKey(videoID)); err != nil {
			slog.Warn("failed to delete mirrored thumbnail",
				"video_id", videoID,
				"error", err,
			)
		}
		slog.Info("invalidated embed", "video_id", videoID)
	}

	return deleted, nil
}

// InvalidateAll clears the persistent cache.
func (s *embedService) InvalidateAll(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all embeds: %w", err)
	}

	slog.Info("invalidated all embeds")
	return nil
}

// List pages through cached records.
func (s *embedService) List(ctx context.Context, params repository.ListParams) ([]*model.EmbedRecord, error) {
	records, err := s.store.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list embeds: %w", err)
	}
	return records, nil
}

// Count returns the number of cached records.
func (s *embedService) Count(ctx context.Context) (int64, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count embeds: %w", err)
	}
	return count, nil
}

// ThumbnailURL prefers the mirrored thumbnail and falls back to the
// provider-hosted one.
func (s *embedService) ThumbnailURL(ctx context.Context, videoID string) (string, error) {
	rec, err := s.store.Get(ctx, videoID)
	if err != nil {
		return "", err
	}

	key := ThumbnailKey(videoID)
	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		slog.Warn("failed to check mirrored thumbnail",
			"video_id", videoID,
			"error", err,
		)
	} else if exists {
		url, err := s.storage.GeneratePresignedDownloadURL(ctx, key, s.thumbnailURLExpiry)
		if err == nil {
			return url, nil
		}
		slog.Warn("failed to presign thumbnail URL",
			"video_id", videoID,
			"error", err,
		)
	}

	if rec.ThumbnailURL != "" {
		return rec.ThumbnailURL, nil
	}

	return "", ErrNoThumbnail
}
