package model

import (
	"errors"
	"strconv"
	"time"
)

// OwnerRef identifies the document and field a rich-text value came from.
// It travels through logs and stored records for traceability; the engine
// never dereferences it.
type OwnerRef struct {
	PageID int
	Field  string
}

// IsZero reports whether the reference carries no owner information.
func (o OwnerRef) IsZero() bool {
	return o.PageID == 0 && o.Field == ""
}

// EmbedRecord is the cached outcome of one oembed lookup, keyed by the
// provider video id. Failed lookups are cached exactly like successes so
// repeated render passes do not hammer a dead video.
type EmbedRecord struct {
	VideoID  string
	VideoURL string

	// Valid reports whether the lookup produced usable embed markup.
	// When true, EmbedHTML is non-empty and HTTPStatus is 200.
	// When false, EmbedHTML is empty and HTTPStatus carries the failure
	// code (0 for transport-level errors).
	Valid      bool
	EmbedHTML  string
	HTTPStatus int

	Title           string
	AuthorName      string
	AuthorURL       string
	ProviderName    string
	ProviderURL     string
	Type            string
	Version         string
	Width           int
	Height          int
	ThumbnailURL    string
	ThumbnailWidth  int
	ThumbnailHeight int

	CreatedAt time.Time
	Owner     OwnerRef
}

var (
	ErrEmptyVideoID    = errors.New("video ID cannot be empty")
	ErrInvalidOutcome  = errors.New("embed record mixes valid and failed state")
	ErrMissingEmbedURL = errors.New("video URL cannot be empty")
)

// NewFailedEmbed creates a record for a lookup that did not yield embed
// markup. The status is the provider's HTTP response code, or zero when
// the request never completed.
func NewFailedEmbed(videoID, videoURL string, status int) *EmbedRecord {
	return &EmbedRecord{
		VideoID:    videoID,
		VideoURL:   videoURL,
		HTTPStatus: status,
	}
}

// Validate checks the internal consistency of the record before it is
// persisted.
func (r *EmbedRecord) Validate() error {
	if r.VideoID == "" {
		return ErrEmptyVideoID
	}
	if r.VideoURL == "" {
		return ErrMissingEmbedURL
	}
	if r.Valid == (r.EmbedHTML == "") {
		return ErrInvalidOutcome
	}
	return nil
}

// EmbedCode returns the legacy single-column form of the outcome: the
// embed markup for valid records, the failure status in decimal for
// failed ones.
func (r *EmbedRecord) EmbedCode() string {
	if r.Valid {
		return r.EmbedHTML
	}
	return strconv.Itoa(r.HTTPStatus)
}

// ExpiredBefore reports whether the record was created before the cutoff.
func (r *EmbedRecord) ExpiredBefore(cutoff time.Time) bool {
	return r.CreatedAt.Before(cutoff)
}
