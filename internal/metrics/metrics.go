// Package metrics owns the Prometheus collectors shared by the service
// binaries. Collectors register with the default registry on import.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	reconcileOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_outcomes_total",
			Help: "Reconciliation attempts by claim source, flow and outcome",
		},
		[]string{"source", "flow", "outcome"},
	)

	reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reconcile_duration_seconds",
			Help:    "Reconciliation latency including the gateway verify call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	gatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Payment gateway call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "result"},
	)

	entrySubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entry_submissions_total",
			Help: "Bulk-order entry submissions by outcome",
		},
		[]string{"outcome"},
	)

	tasksEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_enqueued_total",
			Help: "Side-effect tasks handed to a sink",
		},
		[]string{"sink", "kind", "result"},
	)

	tasksExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_executed_total",
			Help: "Side-effect tasks executed",
		},
		[]string{"kind", "result"},
	)

	sweeperResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweeper_resolved_total",
			Help: "Stale pending payments resolved by the sweeper",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(reconcileOutcomesTotal)
	prometheus.MustRegister(reconcileDuration)
	prometheus.MustRegister(gatewayRequestDuration)
	prometheus.MustRegister(entrySubmissionsTotal)
	prometheus.MustRegister(tasksEnqueuedTotal)
	prometheus.MustRegister(tasksExecutedTotal)
	prometheus.MustRegister(sweeperResolvedTotal)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, endpoint, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func RecordReconcile(source, flow, outcome string, elapsed time.Duration) {
	reconcileOutcomesTotal.WithLabelValues(source, flow, outcome).Inc()
	reconcileDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

func RecordGatewayCall(operation string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gatewayRequestDuration.WithLabelValues(operation, result).Observe(elapsed.Seconds())
}

func RecordEntrySubmission(outcome string) {
	entrySubmissionsTotal.WithLabelValues(outcome).Inc()
}

func RecordTaskEnqueued(sink, kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	tasksEnqueuedTotal.WithLabelValues(sink, kind, result).Inc()
}

// RecordTaskExecuted takes result "ok", "error" or "duplicate".
func RecordTaskExecuted(kind, result string) {
	tasksExecutedTotal.WithLabelValues(kind, result).Inc()
}

func RecordSweeperResolved(outcome string) {
	sweeperResolvedTotal.WithLabelValues(outcome).Inc()
}
