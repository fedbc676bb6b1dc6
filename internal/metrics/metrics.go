// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes answer and draft counters on a private
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/solaris/internal/answer"
)

// Metrics implements answer.Observer and draft.Observer.
type Metrics struct {
	registry   *prometheus.Registry
	answers    *prometheus.CounterVec
	passages   prometheus.Histogram
	generation prometheus.Histogram
	drafts     *prometheus.CounterVec
	draftTime  prometheus.Histogram
}

// New registers the solaris collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solaris",
			Name:      "answers_total",
			Help:      "Answers produced, by outcome.",
		}, []string{"outcome"}),
		passages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "solaris",
			Name:      "retrieved_passages",
			Help:      "Passages retrieved per answer.",
			Buckets:   []float64{0, 1, 3, 5, 10, 20},
		}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "solaris",
			Name:      "generation_seconds",
			Help:      "Language model call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9),
		}),
		drafts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solaris",
			Name:      "drafts_total",
			Help:      "Draft generations, by result.",
		}, []string{"result"}),
		draftTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "solaris",
			Name:      "draft_seconds",
			Help:      "Wall time of a full draft.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
	m.registry.MustRegister(
		m.answers, m.passages, m.generation, m.drafts, m.draftTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAnswer records one answer cycle.
func (m *Metrics) ObserveAnswer(outcome answer.Outcome, passages int, generation time.Duration) {
	m.answers.WithLabelValues(string(outcome)).Inc()
	m.passages.Observe(float64(passages))
	if generation > 0 {
		m.generation.Observe(generation.Seconds())
	}
}

// ObserveDraft records one draft generation.
func (m *Metrics) ObserveDraft(ok bool, elapsed time.Duration) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.drafts.WithLabelValues(result).Inc()
	m.draftTime.Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
