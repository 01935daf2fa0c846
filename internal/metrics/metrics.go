// Package metrics tracks pipeline stage outcomes and latencies with Prometheus collectors.
//
// Each Metrics value owns a private registry so tests and multiple servers in one process
// never collide on the global default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scoutteam"

// Fragment outcomes
const (
	FragmentOK             = "ok"
	FragmentFetchError     = "fetch_error"
	FragmentStructureError = "structure_error"
	FragmentRejected       = "rejected"
)

// Extraction outcomes
const (
	ExtractionSuccess = "success"
	ExtractionFailure = "failure"
)

// Metrics holds the collectors for one process
type Metrics struct {
	registry      *prometheus.Registry
	fragments     *prometheus.CounterVec
	extractions   *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	modelDuration prometheus.Histogram
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_total",
			Help:      "Roster fragments produced, by outcome.",
		}, []string{"outcome"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Structured extraction calls, by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching and parsing one roster page.",
			Buckets:   prometheus.DefBuckets,
		}),
		modelDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_duration_seconds",
			Help:      "Time spent waiting for the language model.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
	}

	m.registry.MustRegister(m.fragments, m.extractions, m.fetchDuration, m.modelDuration)
	return m
}

// ObserveFragment counts one fragment outcome and its fetch latency
func (m *Metrics) ObserveFragment(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.fragments.WithLabelValues(outcome).Inc()
	if outcome != FragmentRejected {
		m.fetchDuration.Observe(took.Seconds())
	}
}

// ObserveExtraction counts one extraction outcome and its model latency
func (m *Metrics) ObserveExtraction(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
	if took > 0 {
		m.modelDuration.Observe(took.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
