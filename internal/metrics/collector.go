// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records pipeline counters and stage timings in Prometheus
// form on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "research_digest"

// Collector holds the pipeline metrics. A nil *Collector is valid and
// records nothing, so stages can run without metrics in tests.
type Collector struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	completionCalls  *prometheus.CounterVec
	scoreFallbacks   prometheus.Counter
	papersRetrieved  prometheus.Counter
	papersSummarized prometheus.Counter
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Pipeline runs by final status.",
	}, []string{"status"})

	c.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall time spent in each pipeline stage.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	c.completionCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completion_calls_total",
		Help:      "Completion service calls by component and outcome.",
	}, []string{"component", "status"})

	c.scoreFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "score_fallbacks_total",
		Help:      "Relevance scores replaced by the neutral default.",
	})

	c.papersRetrieved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "papers_retrieved_total",
		Help:      "Candidate paper records returned by the search backend.",
	})

	c.papersSummarized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "papers_summarized_total",
		Help:      "Papers summarized by the local inference engine.",
	})

	c.registry.MustRegister(
		c.runsTotal,
		c.stageDuration,
		c.completionCalls,
		c.scoreFallbacks,
		c.papersRetrieved,
		c.papersSummarized,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordRun counts a finished run.
func (c *Collector) RecordRun(status string) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(status).Inc()
}

// ObserveStage records how long a stage took.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordCompletion counts one completion call. status is "ok" or "error".
func (c *Collector) RecordCompletion(component, status string) {
	if c == nil {
		return
	}
	c.completionCalls.WithLabelValues(component, status).Inc()
}

// RecordFallback counts one neutral-default score.
func (c *Collector) RecordFallback() {
	if c == nil {
		return
	}
	c.scoreFallbacks.Inc()
}

// AddRetrieved counts retrieved candidate records.
func (c *Collector) AddRetrieved(n int) {
	if c == nil {
		return
	}
	c.papersRetrieved.Add(float64(n))
}

// AddSummarized counts summarized papers.
func (c *Collector) AddSummarized(n int) {
	if c == nil {
		return
	}
	c.papersSummarized.Add(float64(n))
}
