package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IntentsTotal counts dispatched intents by name and outcome.
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_intents_total",
		Help: "Total number of dispatched intents by outcome",
	}, []string{"intent", "outcome"})

	// ForcedLogouts counts sessions terminated by ban reconciliation or ForceLogout.
	ForcedLogouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillswap_forced_logouts_total",
		Help: "Total number of sessions terminated by the engine",
	})

	// PersistenceFailures counts snapshot save/load failures by operation.
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_persistence_failures_total",
		Help: "Total number of snapshot persistence failures",
	}, []string{"operation"})

	// PersistenceLatency records slot read/write latency by backend and operation.
	PersistenceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillswap_persistence_latency_seconds",
		Help:    "Snapshot slot latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// WebSocketConnectionsTotal is the gauge of open event-stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skillswap_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts events dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket events dropped due to backpressure",
	}, []string{"reason"})

	// ModerationEventsPublished counts moderation events by action and outcome.
	ModerationEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_moderation_events_total",
		Help: "Total number of moderation events handed to the broker",
	}, []string{"action", "outcome"})
)

// TrackPersistence returns a function that records slot latency when called (e.g. defer).
func TrackPersistence(backend, operation string) func() {
	start := time.Now()
	return func() {
		PersistenceLatency.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	}
}
