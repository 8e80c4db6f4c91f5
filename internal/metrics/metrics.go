// Package metrics exposes Prometheus counters for cache effectiveness and the
// heuristic-vs-llm enrichment mix.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skillfit"

// Custom registry keeps the default Go runtime collectors out of the scrape.
var registry = prometheus.NewRegistry()

var (
	cacheLookups = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups partitioned by outcome.",
	}, []string{"outcome"})

	enrichments = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "enrich",
		Name:      "completed_total",
		Help:      "Completed enrichments partitioned by source.",
	}, []string{"source"})

	enrichFailures = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "enrich",
		Name:      "collaborator_failures_total",
		Help:      "External enrichment calls that exhausted their retries.",
	})

	comparisons = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "match",
		Name:      "pair_comparisons_total",
		Help:      "Requirement/candidate pairs scored by the similarity engine.",
	})
)

// RecordCacheLookup counts a single cache lookup.
func RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.WithLabelValues(outcome).Inc()
}

// RecordEnrichment counts a completed enrichment by source ("cache",
// "heuristic", "llm").
func RecordEnrichment(source string) {
	enrichments.WithLabelValues(source).Inc()
}

// RecordCollaboratorFailure counts an external enrichment call that degraded
// to the heuristic result.
func RecordCollaboratorFailure() {
	enrichFailures.Inc()
}

// RecordComparisons counts scored pairs.
func RecordComparisons(n int) {
	comparisons.Add(float64(n))
}

// Handler returns the scrape handler for the skillfit registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve blocks serving /metrics on addr.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
