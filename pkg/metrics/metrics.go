package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Dispatch metrics
	RideTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ride_transitions_total",
			Help: "Successful ride status transitions",
		},
		[]string{"from", "to"},
	)

	RideTransitionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ride_transition_conflicts_total",
			Help: "Compare-and-swap transitions lost to a concurrent writer",
		},
	)

	AssignmentAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_assignment_attempts_total",
			Help: "Driver assignment attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Location metrics
	LocationWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_writes_total",
			Help: "Durable location history writes",
		},
	)

	LocationCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_cache_results_total",
			Help: "Latest-location cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	LocationsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locations_swept_total",
			Help: "History rows deleted by the retention sweep",
		},
	)

	// Broadcast metrics
	BroadcastSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_subscribers",
			Help: "Currently subscribed real-time connections",
		},
	)

	BroadcastDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Events delivered to subscribers by outcome",
		},
		[]string{"outcome"},
	)

	// Messaging metrics
	RabbitMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Messages published to RabbitMQ",
		},
		[]string{"exchange", "status"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordCacheResult records one latest-location cache lookup outcome.
func RecordCacheResult(result string) {
	LocationCacheResults.WithLabelValues(result).Inc()
}

// RecordRabbitPublish records a RabbitMQ publish attempt.
func RecordRabbitPublish(exchange string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMessagesPublished.WithLabelValues(exchange, status).Inc()
}
