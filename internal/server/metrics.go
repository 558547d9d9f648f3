package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks ingestion and query activity. Each Server carries its own
// registry so tests can create servers freely.
type Metrics struct {
	registry *prometheus.Registry

	documentsTotal *prometheus.CounterVec
	chunksIndexed  prometheus.Counter
	ingestSeconds  prometheus.Histogram

	queriesTotal *prometheus.CounterVec
	querySeconds prometheus.Histogram
}

// NewMetrics creates the metric set on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		documentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medragd_documents_total",
			Help: "Documents processed by the ingestion pipeline, labeled by outcome.",
		}, []string{"outcome"}),
		chunksIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "medragd_chunks_indexed_total",
			Help: "Chunks written to the vector index.",
		}),
		ingestSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "medragd_ingest_duration_seconds",
			Help:    "End-to-end document ingestion duration.",
			Buckets: prometheus.DefBuckets,
		}),
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medragd_queries_total",
			Help: "Answered queries, labeled by outcome.",
		}, []string{"outcome"}),
		querySeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "medragd_query_duration_seconds",
			Help:    "Query duration including retrieval and generation.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveIngest records one ingestion attempt.
func (m *Metrics) ObserveIngest(d time.Duration, chunks int, err error) {
	m.documentsTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.chunksIndexed.Add(float64(chunks))
		m.ingestSeconds.Observe(d.Seconds())
	}
}

// ObserveQuery records one query attempt.
func (m *Metrics) ObserveQuery(d time.Duration, err error) {
	m.queriesTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.querySeconds.Observe(d.Seconds())
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
