package repository

import (
	"context"
	"time"

	"github.com/embedworks/vidembed/internal/domain/model"
)

// SortOrder selects how List orders records.
type SortOrder string

const (
	// SortCreatedDesc lists the most recently cached records first.
	SortCreatedDesc SortOrder = "created_desc"

	// SortCreatedAsc lists the oldest records first.
	SortCreatedAsc SortOrder = "created_asc"
)

// ParseSortOrder maps a query-string value to a SortOrder. Unknown values
// fall back to newest first.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortCreatedAsc {
		return SortCreatedAsc
	}
	return SortCreatedDesc
}

// ListParams controls pagination and ordering for List.
type ListParams struct {
	// Start is the number of records to skip.
	Start int

	// Limit caps the number of returned records. Zero means no cap.
	Limit int

	Sort SortOrder
}

// EmbedStore is the persistent cache of oembed lookups, keyed by video id.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type EmbedStore interface {
	// Get retrieves the cached record for a video id.
	// Returns nil and ErrEmbedNotFound when no record exists.
	Get(ctx context.Context, videoID string) (*model.EmbedRecord, error)

	// Put inserts or replaces the record for its video id. Last write
	// wins. Transient write failures are retried a bounded number of
	// times before ErrPutRetriesExhausted is returned.
	// Sets rec.CreatedAt to the current time if unset.
	Put(ctx context.Context, rec *model.EmbedRecord) error

	// DeleteOne removes the record for one video id and reports how many
	// rows were removed (zero or one). A missing record is not an error.
	DeleteOne(ctx context.Context, videoID string) (int64, error)

	// DeleteAll clears the store and resets the sweep stamp.
	DeleteAll(ctx context.Context) error

	// Count returns the number of cached records.
	Count(ctx context.Context) (int64, error)

	// List returns records according to params.
	List(ctx context.Context, params ListParams) ([]*model.EmbedRecord, error)

	// SweepExpired removes records created before the cutoff and reports
	// how many were removed.
	SweepExpired(ctx context.Context, olderThan time.Time) (int64, error)

	// LastSweepAt returns when the last sweep ran, or the zero time if a
	// sweep has never run.
	LastSweepAt(ctx context.Context) (time.Time, error)

	// RecordSweep persists the time of a completed sweep.
	RecordSweep(ctx context.Context, at time.Time) error
}
