package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trina_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trina_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	ConversationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trina_conversations_created_total",
			Help: "Total conversations created",
		},
		[]string{"kind"}, // "anonymous" or "identified"
	)

	TurnsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trina_turns_appended_total",
			Help: "Total turns appended",
		},
		[]string{"role"},
	)

	ActivitiesLogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trina_activities_logged_total",
			Help: "Total activities logged",
		},
	)

	// Generation metrics
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trina_generation_duration_seconds",
			Help:    "Completion call latency",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	GenerationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trina_generation_failures_total",
			Help: "Total failed completion calls",
		},
	)

	GenerationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trina_generation_fallbacks_total",
			Help: "Completions without text that were replaced by the fallback reply",
		},
	)
)
