package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrag_ingestions_total",
			Help: "Total number of ingestion attempts by outcome",
		},
		[]string{"result"}, // ready, failed, skipped
	)

	ChunksEmbeddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docrag_chunks_embedded_total",
			Help: "Total number of chunks persisted with an embedding",
		},
	)

	OCRRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrag_ocr_runs_total",
			Help: "Total number of OCR pipeline runs by outcome",
		},
		[]string{"result"},
	)

	// Retrieval
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrag_queries_total",
			Help: "Total number of questions by outcome",
		},
		[]string{"result"}, // answered, no_sources, failed
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docrag_backend_request_duration_seconds",
			Help:    "Embedding and chat backend request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"backend", "op"},
	)
)

// ObserveBackend records the time elapsed since start for one backend call.
func ObserveBackend(backend, op string, start time.Time) {
	BackendRequestDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
