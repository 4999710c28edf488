package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Sync outcomes
	ResultSuccess      = "success"
	ResultRetry        = "retry"
	ResultError        = "error"
	ResultUnauthorized = "unauthorized"

	// Sync phases
	PhasePush = "push"
	PhasePull = "pull"
	PhaseFull = "full"

	// HTTP endpoints (reference server)
	EndpointPush   = "push"
	EndpointPull   = "pull"
	EndpointFull   = "full"
	EndpointHealth = "health"
)

// Engine metrics
var (
	SyncState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftlog_sync_state",
			Help: "Current sync engine state (0=idle, 1=syncing, 2=error)",
		},
	)

	PendingChanges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftlog_pending_changes",
			Help: "Number of outbox entries not yet accepted by the server",
		},
	)

	SyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_syncs_total",
			Help: "Total number of sync attempts by outcome",
		},
		[]string{"result"},
	)

	SyncRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liftlog_sync_retries_total",
			Help: "Total number of scheduled sync retries",
		},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liftlog_sync_duration_seconds",
			Help:    "Sync phase latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"phase"},
	)

	PushBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liftlog_push_batch_size",
			Help:    "Number of outbox entries per push batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

// Reference server metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_server_requests_total",
			Help: "Total number of sync server requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liftlog_server_request_duration_seconds",
			Help:    "Sync server request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"endpoint", "status_code"},
	)
)
