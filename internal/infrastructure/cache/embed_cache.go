package cache

import (
	"context"
	"time"

	"github.com/embedworks/vidembed/internal/domain/model"
)

// EmbedCache is the hot read-through cache in front of the persistent
// embed store. Implementations should handle serialization transparently.
type EmbedCache interface {
	// Get retrieves a record from cache by video id.
	// Returns nil, nil if the record is not cached (cache miss).
	Get(ctx context.Context, videoID string) (*model.EmbedRecord, error)

	// Set stores a record in cache with the specified TTL.
	Set(ctx context.Context, rec *model.EmbedRecord, ttl time.Duration) error

	// Delete removes a record from cache by video id.
	// Returns nil if the record was not cached.
	Delete(ctx context.Context, videoID string) error

	// Flush removes every cached record.
	Flush(ctx context.Context) error
}
