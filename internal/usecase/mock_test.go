package usecase

import (
	"context"
	"io"
	"time"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/domain/repository"
	"github.com/embedworks/vidembed/internal/infrastructure/oembed"
)

// mockEmbedStore provides a configurable mock for EmbedStore.
type mockEmbedStore struct {
	getFn          func(ctx context.Context, videoID string) (*model.EmbedRecord, error)
	putFn          func(ctx context.Context, rec *model.EmbedRecord) error
	deleteOneFn    func(ctx context.Context, videoID string) (int64, error)
	deleteAllFn    func(ctx context.Context) error
	countFn        func(ctx context.Context) (int64, error)
	listFn         func(ctx context.Context, params repository.ListParams) ([]*model.EmbedRecord, error)
	sweepExpiredFn func(ctx context.Context, olderThan time.Time) (int64, error)
	lastSweepAtFn  func(ctx context.Context) (time.Time, error)
	recordSweepFn  func(ctx context.Context, at time.Time) error
}

func (m *mockEmbedStore) Get(ctx context.Context, videoID string) (*model.EmbedRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, videoID)
	}
	return nil, repository.ErrEmbedNotFound
}

func (m *mockEmbedStore) Put(ctx context.Context, rec *model.EmbedRecord) error {
	if m.putFn != nil {
		return m.putFn(ctx, rec)
	}
	return nil
}

func (m *mockEmbedStore) DeleteOne(ctx context.Context, videoID string) (int64, error) {
	if m.deleteOneFn != nil {
		return m.deleteOneFn(ctx, videoID)
	}
	return 0, nil
}

func (m *mockEmbedStore) DeleteAll(ctx context.Context) error {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx)
	}
	return nil
}

func (m *mockEmbedStore) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockEmbedStore) List(ctx context.Context, params repository.ListParams) ([]*model.EmbedRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, params)
	}
	return nil, nil
}

func (m *mockEmbedStore) SweepExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	if m.sweepExpiredFn != nil {
		return m.sweepExpiredFn(ctx, olderThan)
	}
	return 0, nil
}

func (m *mockEmbedStore) LastSweepAt(ctx context.Context) (time.Time, error) {
	if m.lastSweepAtFn != nil {
		return m.lastSweepAtFn(ctx)
	}
	return time.Time{}, nil
}

func (m *mockEmbedStore) RecordSweep(ctx context.Context, at time.Time) error {
	if m.recordSweepFn != nil {
		return m.recordSweepFn(ctx, at)
	}
	return nil
}

// mockOembedFetcher provides a configurable mock for OembedFetcher.
type mockOembedFetcher struct {
	fetchFn func(ctx context.Context, req oembed.FetchRequest) *model.EmbedRecord
}

func (m *mockOembedFetcher) Fetch(ctx context.Context, req oembed.FetchRequest) *model.EmbedRecord {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, req)
	}
	return model.NewFailedEmbed(req.VideoID, req.VideoURL, 0)
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	publishRefreshTaskFn  func(ctx context.Context, task repository.RefreshTask) error
	consumeRefreshTasksFn func(ctx context.Context, handler func(task repository.RefreshTask) error) error
}

func (m *mockMessageQueue) PublishRefreshTask(ctx context.Context, task repository.RefreshTask) error {
	if m.publishRefreshTaskFn != nil {
		return m.publishRefreshTaskFn(ctx, task)
	}
	return nil
}

func (m *mockMessageQueue) ConsumeRefreshTasks(ctx context.Context, handler func(task repository.RefreshTask) error) error {
	if m.consumeRefreshTasksFn != nil {
		return m.consumeRefreshTasksFn(ctx, handler)
	}
	return nil
}

func (m *mockMessageQueue) Close() error {
	return nil
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
type mockObjectStorage struct {
	uploadFn                       func(ctx context.Context, key string, reader io.Reader, contentType string) error
	deleteFn                       func(ctx context.Context, key string) error
	existsFn                       func(ctx context.Context, key string) (bool, error)
	generatePresignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, reader, contentType)
	}
	return nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedDownloadURLFn != nil {
		return m.generatePresignedDownloadURLFn(ctx, key, expiry)
	}
	return "http://example.com/download", nil
}
