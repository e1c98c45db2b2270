package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// putAttempts bounds how often Put retries a failed write before giving up.
const putAttempts = 3

// lastSweepKey is the embed_meta row that stamps the last expiry sweep.
const lastSweepKey = "last_sweep"

// EmbedStore implements repository.EmbedStore using PostgreSQL.
type EmbedStore struct {
	db DBTX
}

// NewEmbedStore creates a new EmbedStore instance.
func NewEmbedStore(db DBTX) *EmbedStore {
	return &EmbedStore{db: db}
}

// embedData is the JSONB document stored per record. Using an explicit
// struct avoids coupling the schema to the domain model's field names.
type embedData struct {
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
	OwnerPageID     int    `json:"owner_page_id,omitempty"`
	OwnerField      string `json:"owner_field,omitempty"`
}

func encodeEmbedData(rec *model.EmbedRecord) ([]byte, error) {
	return json.Marshal(embedData{
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
		OwnerPageID:     rec.Owner.PageID,
		OwnerField:      rec.Owner.Field,
	})
}

func decodeEmbedData(videoID string, created time.Time, raw []byte) (*model.EmbedRecord, error) {
	var data embedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode embed data: %w", err)
	}

	return &model.EmbedRecord{
		VideoID:         videoID,
		VideoURL:        data.VideoURL,
		Valid:           data.Valid,
		EmbedHTML:       data.EmbedHTML,
		HTTPStatus:      data.HTTPStatus,
		Title:           data.Title,
		AuthorName:      data.AuthorName,
		AuthorURL:       data.AuthorURL,
		ProviderName:    data.ProviderName,
		ProviderURL:     data.ProviderURL,
		Type:            data.Type,
		Version:         data.Version,
		Width:           data.Width,
		Height:          data.Height,
		ThumbnailURL:    data.ThumbnailURL,
		ThumbnailWidth:  data.ThumbnailWidth,
		ThumbnailHeight: data.ThumbnailHeight,
		CreatedAt:       created,
		Owner: model.OwnerRef{
			PageID: data.OwnerPageID,
			Field:  data.OwnerField,
		},
	}, nil
}

// Get retrieves the cached record for a video id.
func (s *EmbedStore) Get(ctx context.Context, videoID string) (*model.EmbedRecord, error) {
	const query = `
		SELECT video_id, created, data
		FROM embeds
		WHERE video_id = $1
	`

	var (
		id      string
		created time.Time
		raw     []byte
	)

	err := s.db.QueryRow(ctx, query, videoID).Scan(&id, &created, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrEmbedNotFound
		}
		return nil, fmt.Errorf("failed to get embed: %w", err)
	}

	return decodeEmbedData(id, created, raw)
}

// Put inserts or replaces the record for its video id. The write is
// retried on failure; the last error is wrapped in
// repository.ErrPutRetriesExhausted once the attempts run out.
func (s *EmbedStore) Put(ctx context.Context, rec *model.EmbedRecord) error {
	const query = `
		INSERT INTO embeds (video_id, embed_code, created, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (video_id) DO UPDATE
		SET embed_code = EXCLUDED.embed_code,
		    created    = EXCLUDED.created,
		    data       = EXCLUDED.data
	`

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid embed record: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	raw, err := encodeEmbedData(rec)
	if err != nil {
		return fmt.Errorf("failed to encode embed data: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= putAttempts; attempt++ {
		_, lastErr = s.db.Exec(ctx, query, rec.VideoID, rec.EmbedCode(), rec.CreatedAt, raw)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	return fmt.Errorf("failed to put embed %s: %w: %w", rec.VideoID, repository.ErrPutRetriesExhausted, lastErr)
}

// DeleteOne removes the record for one video id.
func (s *EmbedStore) DeleteOne(ctx context.Context, videoID string) (int64, error) {
	const query = `DELETE FROM embeds WHERE video_id = $1`

	tag, err := s.db.Exec(ctx, query, videoID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete embed: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteAll clears the store and resets the sweep stamp so the next
// resolution schedules a fresh sweep.
func (s *EmbedStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM embeds`); err != nil {
		return fmt.Errorf("failed to delete embeds: %w", err)
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM embed_meta WHERE key = $1`, lastSweepKey); err != nil {
		return fmt.Errorf("failed to reset sweep stamp: %w", err)
	}

	return nil
}

// Count returns the number of cached records.
func (s *EmbedStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM embeds`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count embeds: %w", err)
	}
	return count, nil
}

// List returns records according to params.
func (s *EmbedStore) List(ctx context.Context, params repository.ListParams) ([]*model.EmbedRecord, error) {
	// The ORDER BY clause is selected from a fixed set, never built from
	// caller input.
	orderBy := "created DESC, video_id"
	if params.Sort == repository.SortCreatedAsc {
		orderBy = "created ASC, video_id"
	}

	query := fmt.Sprintf(`
		SELECT video_id, created, data
		FROM embeds
		ORDER BY %s
		OFFSET $1
	`, orderBy)

	args := []any{params.Start}
	if params.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, params.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeds: %w", err)
	}
	defer rows.Close()

	var records []*model.EmbedRecord
	for rows.Next() {
		var (
			id      string
			created time.Time
			raw     []byte
		)
		if err := rows.Scan(&id, &created, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan embed: %w", err)
		}
		rec, err := decodeEmbedData(id, created, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embeds: %w", err)
	}

	return records, nil
}

// SweepExpired removes records created before the cutoff. A zero cutoff
// removes nothing.
func (s *EmbedStore) SweepExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	const query = `DELETE FROM embeds WHERE created < $1`

	if olderThan.IsZero() {
		return 0, nil
	}

	tag, err := s.db.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired embeds: %w", err)
	}

	return tag.RowsAffected(), nil
}

// LastSweepAt returns when the last sweep ran, or the zero time if a
// sweep has never run.
func (s *EmbedStore) LastSweepAt(ctx context.Context) (time.Time, error) {
	const query = `SELECT value FROM embed_meta WHERE key = $1`

	var value string
	err := s.db.QueryRow(ctx, query, lastSweepKey).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get sweep stamp: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse sweep stamp: %w", err)
	}

	return at, nil
}

// RecordSweep persists the time of a completed sweep.
func (s *EmbedStore) RecordSweep(ctx context.Context, at time.Time) error {
	const query = `
		INSERT INTO embed_meta (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value
	`

	if _, err := s.db.Exec(ctx, query, lastSweepKey, at.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to record sweep: %w", err)
	}

	return nil
}

// Compile-time verification that EmbedStore implements repository.EmbedStore.
var _ repository.EmbedStore = (*EmbedStore)(nil)
