// Package metrics registers the service's Prometheus collectors and exposes
// the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentsIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spatialprefix_documents",
		Help: "Number of documents currently indexed",
	})
	TermsIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spatialprefix_terms",
		Help: "Number of distinct grid tokens in the term dictionary",
	})
	IndexOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spatialprefix_index_ops_total",
		Help: "Document writes by operation",
	}, []string{"op"})
	TokensPerDocument = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "spatialprefix_tokens_per_document",
		Help:    "Grid tokens produced when indexing one shape",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spatialprefix_searches_total",
		Help: "Searches by strategy and operation",
	}, []string{"strategy", "op"})
	SearchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spatialprefix_search_duration_ms",
		Help:    "Search duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 500},
	}, []string{"strategy"})
	CandidatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spatialprefix_candidates_total",
		Help: "Candidate documents produced by the coarse stage, by strategy",
	}, []string{"strategy"})
	FilterWork = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spatialprefix_filter_work_total",
		Help: "Prefix filter work by kind (seeks, short_circuits, bulk_accepts, scanned_terms, geometry_tests, subdivisions)",
	}, []string{"kind"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spatialprefix_cache_hits_total",
		Help: "Search cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spatialprefix_cache_misses_total",
		Help: "Search cache misses",
	})
)

func init() {
	prometheus.MustRegister(DocumentsIndexed)
	prometheus.MustRegister(TermsIndexed)
	prometheus.MustRegister(IndexOpsTotal)
	prometheus.MustRegister(TokensPerDocument)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDurationMs)
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(FilterWork)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler serves the default registry for Prometheus to scrape.
func Handler() http.Handler { return promhttp.Handler() }
