// Package metrics exposes Prometheus counters for the search and index
// paths. The search read path degrades failures to empty results, so
// these counters are the only place those failures stay visible besides
// the log.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registry holds the Docseek collectors. A dedicated registry keeps the
// /metrics output limited to our own counters.
var registry = prometheus.NewRegistry()

var (
	searchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docseek_searches_total",
		Help: "Number of search requests served.",
	})
	searchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docseek_search_errors_total",
		Help: "Number of search requests that failed and degraded to empty results.",
	})
	excerptErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docseek_excerpt_errors_total",
		Help: "Number of hits whose stored fields could not produce an excerpt.",
	})
	indexWriteErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docseek_index_write_errors_total",
		Help: "Number of index write batches that failed to commit.",
	})
	documentsIndexedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docseek_documents_indexed_total",
		Help: "Number of documents written to the search index.",
	})
)

func init() {
	registry.MustRegister(
		searchesTotal,
		searchErrorsTotal,
		excerptErrorsTotal,
		indexWriteErrorsTotal,
		documentsIndexedTotal,
	)
}

// RecordSearch counts one served search request.
func RecordSearch() { searchesTotal.Inc() }

// RecordSearchError counts one search that degraded to empty results.
func RecordSearchError() { searchErrorsTotal.Inc() }

// RecordExcerptError counts one excerpt that fell back to truncation.
func RecordExcerptError() { excerptErrorsTotal.Inc() }

// RecordIndexWriteError counts one failed index write batch.
func RecordIndexWriteError() { indexWriteErrorsTotal.Inc() }

// RecordDocumentsIndexed counts documents written to the index.
func RecordDocumentsIndexed(n int) { documentsIndexedTotal.Add(float64(n)) }

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
