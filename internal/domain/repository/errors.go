package repository

import "errors"

var (
	// ErrEmbedNotFound is returned when no record exists for a video id.
	ErrEmbedNotFound = errors.New("embed not found")

	// ErrPutRetriesExhausted is returned when a write to the embed store
	// kept failing after the bounded number of attempts.
	ErrPutRetriesExhausted = errors.New("embed store put retries exhausted")

	// ErrBucketNotFound is returned when the configured storage bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
)
