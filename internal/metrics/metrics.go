package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readify"

var (
	// Labels: tool, result (ok, limit, error)
	reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "usage",
		Name:      "reservations_total",
		Help:      "Usage reservation attempts by outcome",
	}, []string{"tool", "result"})

	rollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "usage",
		Name:      "rollbacks_total",
		Help:      "Usage reservations given back after a failed generation",
	}, []string{"tool"})

	// Labels: tool, outcome (ok, no_content, malformed, error)
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Retrieval plus generation latency per tool",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"tool", "outcome"})

	retrievalPassages = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "retrieval_passages",
		Help:      "Passages returned by vector search per tool",
		Buckets:   []float64{0, 1, 2, 4, 8, 10, 15, 20},
	}, []string{"tool"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"route"})

	// Labels: layer (lru, db), result (hit, miss)
	embedCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embed_cache",
		Name:      "lookups_total",
		Help:      "Embedding cache lookups per cache layer",
	}, []string{"layer", "result"})

	ingested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "files_total",
		Help:      "Files processed by the ingest job by final status",
	}, []string{"status"})
)

func ObserveReservation(tool, result string) {
	reservations.WithLabelValues(tool, result).Inc()
}

func ObserveRollback(tool string) {
	rollbacks.WithLabelValues(tool).Inc()
}

func ObserveGeneration(tool, outcome string, elapsed time.Duration) {
	generationDuration.WithLabelValues(tool, outcome).Observe(elapsed.Seconds())
}

func ObserveRetrieval(tool string, passages int) {
	retrievalPassages.WithLabelValues(tool).Observe(float64(passages))
}

func ObserveRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}

func ObserveEmbedCache(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	embedCache.WithLabelValues(layer, result).Inc()
}

func ObserveIngest(status string) {
	ingested.WithLabelValues(status).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
