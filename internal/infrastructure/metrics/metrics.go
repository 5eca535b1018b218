package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// One sample per network attempt, labeled by the attempt outcome (success, retryable, fatal).
	LLMAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailsort_llm_attempts_total",
			Help: "Total number of remote completion attempts",
		},
		[]string{"provider", "outcome"},
	)

	LLMAttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailsort_llm_attempt_latency_ms",
			Help:    "Remote completion attempt latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 10), // 50ms to ~25s
		},
		[]string{"provider", "status"},
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailsort_classifications_total",
			Help: "Total number of classify operations by result",
		},
		[]string{"status"}, // success or an error kind
	)
)

func RecordAttempt(provider, outcome, status string, duration time.Duration) {
	LLMAttempts.WithLabelValues(provider, outcome).Inc()
	LLMAttemptLatency.WithLabelValues(provider, status).Observe(float64(duration.Milliseconds()))
}

func IncrementClassification(status string) {
	Classifications.WithLabelValues(status).Inc()
}
