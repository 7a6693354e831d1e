package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "belowmsrp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "belowmsrp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "belowmsrp_chat_turns_total",
			Help: "Conversation turns processed, by completion outcome",
		},
		[]string{"outcome"},
	)

	completionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "belowmsrp_completion_duration_seconds",
			Help:    "Completion service latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	escalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "belowmsrp_escalations_total",
			Help: "Replies carrying the admin alert marker",
		},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "belowmsrp_notifications_total",
			Help: "Admin notifications dispatched, by delivery status",
		},
		[]string{"status"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "belowmsrp_sessions",
			Help: "Sessions held in memory",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers the collectors with the default registry.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			turnsTotal,
			completionDuration,
			escalationsTotal,
			notificationsTotal,
			activeSessions,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTurn records one orchestrated turn. outcome is "ok" or "completion_failed".
func RecordTurn(outcome string, completion time.Duration) {
	turnsTotal.WithLabelValues(outcome).Inc()
	completionDuration.Observe(completion.Seconds())
}

// RecordEscalation counts a reply that asked for admin attention.
func RecordEscalation() {
	escalationsTotal.Inc()
}

// RecordNotification counts a notification attempt. status is "sent" or "failed".
func RecordNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}

// SetSessions updates the in-memory session gauge.
func SetSessions(n int) {
	activeSessions.Set(float64(n))
}
