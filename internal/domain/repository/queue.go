package repository

import (
	"context"

	"github.com/google/uuid"
)

// RefreshTask represents an asynchronous embed re-fetch job message.
type RefreshTask struct {
	TaskID     uuid.UUID `json:"task_id"`
	Provider   string    `json:"provider"`
	VideoID    string    `json:"video_id"`
	VideoURL   string    `json:"video_url"`
	RetryCount int       `json:"retry_count"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishRefreshTask sends a refresh task to the queue.
	// Used by the API server to trigger async re-fetching.
	PublishRefreshTask(ctx context.Context, task RefreshTask) error

	// ConsumeRefreshTasks starts consuming refresh tasks from the queue.
	// The handler function is called for each received task.
	// Used by the worker service.
	ConsumeRefreshTasks(ctx context.Context, handler func(task RefreshTask) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
