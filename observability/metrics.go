package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics are labelled by method, route template, and status code.
// The path label holds the chi route pattern, not the raw URL, to keep
// label cardinality bounded.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Pipeline metrics track how requests move through the security stages.
var (
	RequestsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_processed_total",
			Help: "Secure requests processed, by caller tier and decision (completed, rejected kind).",
		},
		[]string{"tier", "decision"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_stage_duration_seconds",
			Help:    "Time spent in each security pipeline stage.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	ThreatScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_threat_score",
			Help:    "Distribution of threat scores assigned to requests.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RateLimitDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rate_limit_denied_total",
			Help: "Requests denied by the rate limiter, by caller tier and reason.",
		},
		[]string{"tier", "reason"},
	)
)

// Audit metrics expose the buffering behavior of the audit logger.
var (
	AuditBufferedEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_audit_buffered_entries",
			Help: "Audit log entries currently held in the in-memory buffer.",
		},
	)

	AuditFlushFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_audit_flush_failures_total",
			Help: "Audit buffer flushes that failed and were retried.",
		},
	)
)
