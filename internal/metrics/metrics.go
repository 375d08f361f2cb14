// Package metrics defines the Prometheus collectors for indexing and
// querying and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes recorded by QueriesTotal.
const (
	OutcomeHit        = "hit"
	OutcomeFuzzy      = "fuzzy"
	OutcomeZeroResult = "zero_result"
	OutcomeEmpty      = "empty"
	OutcomeError      = "error"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry             *prometheus.Registry
	QueriesTotal         *prometheus.CounterVec
	QueryDuration        prometheus.Histogram
	FuzzyCandidatesTotal prometheus.Counter
	IndexDocuments       prometheus.Gauge
	IndexTerms           prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_queries_total",
				Help: "Total queries by outcome (hit, fuzzy, zero_result, empty, error).",
			},
			[]string{"outcome"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_query_duration_seconds",
				Help:    "Query latency in seconds, fuzzy fallback included.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		FuzzyCandidatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_fuzzy_candidates_total",
				Help: "Total alternate queries ranked by the fuzzy fallback.",
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_index_documents",
				Help: "Number of documents in the loaded index.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_index_terms",
				Help: "Number of vocabulary terms in the loaded index.",
			},
		),
	}

	m.registry.MustRegister(
		m.QueriesTotal,
		m.QueryDuration,
		m.FuzzyCandidatesTotal,
		m.IndexDocuments,
		m.IndexTerms,
	)

	return m
}

// ObserveQuery records one finished query.
func (m *Metrics) ObserveQuery(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(outcome).Inc()
	m.QueryDuration.Observe(elapsed.Seconds())
}

// AddFuzzyCandidates counts alternate queries tried.
func (m *Metrics) AddFuzzyCandidates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FuzzyCandidatesTotal.Add(float64(n))
}

// SetIndexSize publishes the size of the loaded index.
func (m *Metrics) SetIndexSize(documents, terms int) {
	if m == nil {
		return
	}
	m.IndexDocuments.Set(float64(documents))
	m.IndexTerms.Set(float64(terms))
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
