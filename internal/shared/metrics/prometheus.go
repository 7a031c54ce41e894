package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	allocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emergency_allocations_total",
			Help: "Total number of emergency allocations performed",
		},
		[]string{"severity", "hospital"},
	)

	donorAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donor_alerts_total",
			Help: "Total number of donor-alert webhook attempts",
		},
		[]string{"outcome"},
	)

	emergencyNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emergency_notifications_total",
			Help: "Total number of emergency-notification webhook attempts",
		},
		[]string{"outcome"},
	)

	identificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_identifications_total",
			Help: "Total number of face identification attempts",
		},
		[]string{"method", "matched"},
	)

	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_registrations_total",
			Help: "Total number of patient registrations",
		},
		[]string{"mode"},
	)

	workflowTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_triggers_total",
			Help: "Total number of workflow trigger requests",
		},
		[]string{"workflow", "outcome"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordAllocation records a completed emergency allocation
func RecordAllocation(severity, hospitalName string) {
	allocationsTotal.WithLabelValues(severity, hospitalName).Inc()
}

// RecordDonorAlert records a donor-alert attempt ("webhook", "fallback")
func RecordDonorAlert(outcome string) {
	donorAlertsTotal.WithLabelValues(outcome).Inc()
}

// RecordEmergencyNotification records an emergency-notification attempt
func RecordEmergencyNotification(outcome string) {
	emergencyNotificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordIdentification records a face identification attempt
func RecordIdentification(method string, matched bool) {
	identificationsTotal.WithLabelValues(method, strconv.FormatBool(matched)).Inc()
}

// RecordRegistration records a registration ("created", "updated")
func RecordRegistration(mode string) {
	registrationsTotal.WithLabelValues(mode).Inc()
}

// RecordWorkflowTrigger records a generic workflow trigger
func RecordWorkflowTrigger(workflow, outcome string) {
	workflowTriggersTotal.WithLabelValues(workflow, outcome).Inc()
}
