// Package metrics holds the Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Invocation metrics
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_invocations_total",
			Help: "Bot invocations by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	InvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postbot_invocation_duration_seconds",
			Help:    "End-to-end invocation duration",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	// Pipeline metrics
	CandidatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_candidates_rejected_total",
			Help: "Generated or fetched candidates rejected by the statement classifier",
		},
		[]string{"mode", "code"},
	)

	RetryExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postbot_generation_retry_exhausted_total",
			Help: "ORIGINAL runs that fell back to the last candidate",
		},
	)

	LookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postbot_lookup_failures_total",
			Help: "Replied-to lookups skipped after a platform failure",
		},
	)

	PostsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_posts_published_total",
			Help: "Posts published by mode",
		},
		[]string{"mode"},
	)
)
