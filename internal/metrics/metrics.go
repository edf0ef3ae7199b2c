// Package metrics exposes Prometheus instrumentation for classifications.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civicrisk/internal/risk"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on metric names.
type Metrics struct {
	registry        *prometheus.Registry
	classifications *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

// New registers the classification collectors plus Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civicrisk_classifications_total",
			Help: "Classifications by resulting intensity and outcome",
		}, []string{"intensity", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civicrisk_classification_duration_seconds",
			Help:    "Wall time spent classifying one complaint",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"outcome"}),
	}
}

// ObserveClassification implements risk.Recorder.
func (m *Metrics) ObserveClassification(result risk.Classification, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := string(result.Outcome)
	if outcome == "" {
		outcome = string(risk.OutcomeClassified)
	}
	m.classifications.WithLabelValues(intensityLabel(result.Intensity), outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// intensityLabel folds values outside low/medium/high into "other" to keep
// label cardinality bounded.
func intensityLabel(intensity risk.Intensity) string {
	if intensity.Known() {
		return string(intensity)
	}
	return "other"
}
