// Package metrics provides Prometheus instrumentation for the
// scheduling engine. All methods are nil-receiver safe so callers can
// run without metrics wired.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports engine counters and histograms.
type Metrics struct {
	registry *prometheus.Registry

	// Learning metrics
	learningUpdates *prometheus.CounterVec

	// Scoring metrics
	scoreComputed *prometheus.CounterVec
	scoreValue    prometheus.Histogram

	// Ranking metrics
	rankingDuration prometheus.Histogram
	suggestions     prometheus.Histogram
}

// New creates a Metrics instance on its own registry, or on registry
// when given.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		learningUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadence_learning_updates_total",
			Help: "Energy pattern updates by observation source.",
		}, []string{"source"}),
		scoreComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadence_block_scores_total",
			Help: "Task-block scores computed, by gate outcome.",
		}, []string{"outcome"}),
		scoreValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cadence_block_score",
			Help:    "Distribution of computed suitability scores.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		rankingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cadence_ranking_duration_seconds",
			Help:    "Wall time of one suggestion ranking call.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		suggestions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cadence_suggestions_returned",
			Help:    "Suggestions returned per ranking call.",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
	}

	registry.MustRegister(m.learningUpdates, m.scoreComputed, m.scoreValue, m.rankingDuration, m.suggestions)
	return m
}

// Registry returns the underlying registry for callers that aggregate
// their own exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler exposing the engine metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// LearningUpdate counts one pattern update from source ("explicit" or
// "observed").
func (m *Metrics) LearningUpdate(source string) {
	if m == nil {
		return
	}
	m.learningUpdates.WithLabelValues(source).Inc()
}

// ScoreComputed records one scorer run: the gate outcome and, for
// scored blocks, the score value.
func (m *Metrics) ScoreComputed(outcome string, score float64) {
	if m == nil {
		return
	}
	m.scoreComputed.WithLabelValues(outcome).Inc()
	if outcome == "scored" {
		m.scoreValue.Observe(score)
	}
}

// RankingDone records one ranking call.
func (m *Metrics) RankingDone(elapsed time.Duration, suggestions int) {
	if m == nil {
		return
	}
	m.rankingDuration.Observe(elapsed.Seconds())
	m.suggestions.Observe(float64(suggestions))
}
