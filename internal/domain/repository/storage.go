package repository

import (
	"context"
	"io"
	"time"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
// The engine uses it to mirror provider thumbnails when privacy-enhanced
// mode is enabled, so pages never load images from the provider's CDN.
type ObjectStorage interface {
	// Upload stores an object. The reader is consumed fully.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists in the storage.
	Exists(ctx context.Context, key string) (bool, error)

	// GeneratePresignedDownloadURL creates a presigned URL for downloading
	// an object. The URL is valid for the specified duration.
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
