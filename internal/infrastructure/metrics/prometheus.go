// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidembed"

var (
	// FormatsTotal tracks rich-text format passes.
	// Labels:
	//   - outcome: replaced, unchanged, error
	FormatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formats_total",
			Help:      "Total number of rich-text format passes",
		},
		[]string{"outcome"},
	)

	// FetchesTotal tracks oembed lookups against providers.
	// Labels:
	//   - provider: youtube, vimeo
	//   - result: success, failure
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Total number of oembed fetches",
		},
		[]string{"provider", "result"},
	)

	// CacheOperationsTotal tracks embed cache lookups per layer.
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis, postgres
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// SweepDeletionsTotal counts records removed by expiry sweeps.
	SweepDeletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_deletions_total",
			Help:      "Total number of embed records removed by expiry sweeps",
		},
	)

	// RefreshTasksTotal tracks async refresh task processing.
	// Labels:
	//   - result: success, failure, dropped
	RefreshTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_tasks_total",
			Help:      "Total number of refresh tasks processed",
		},
		[]string{"result"},
	)

	// ThumbnailMirrorsTotal tracks thumbnail mirroring into object storage.
	// Labels:
	//   - result: success, failure
	ThumbnailMirrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_mirrors_total",
			Help:      "Total number of thumbnail mirror attempts",
		},
		[]string{"result"},
	)
)

// Format outcome constants.
const (
	FormatReplaced  = "replaced"
	FormatUnchanged = "unchanged"
	FormatError     = "error"
)

// Fetch and task result constants.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDropped = "dropped"
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis    = "redis"
	CacheTypePostgres = "postgres"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
