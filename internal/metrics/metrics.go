// Package metrics exposes Prometheus metrics for the grading engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/XavierBriggs/Delphi/internal/stability"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects engine metrics on its own registry
type Metrics struct {
	registry *prometheus.Registry

	CacheLookups      *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	RecomputeTimeouts *prometheus.CounterVec
	ClosedReads       *prometheus.CounterVec
	GradesAssigned    *prometheus.CounterVec
	RecommendedEdge   *prometheus.HistogramVec
}

var _ stability.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delphi_cache_lookups_total",
				Help: "Grade cache lookups by outcome",
			},
			[]string{"sport", "result"},
		),
		RecomputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "delphi_recompute_duration_seconds",
				Help:    "Time to recompute an event's recommendations",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"sport"},
		),
		RecomputeTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delphi_recompute_timeouts_total",
				Help: "Readers that gave up waiting on a recompute",
			},
			[]string{"sport"},
		),
		ClosedReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delphi_closed_reads_total",
				Help: "Reads of events that have gone final",
			},
			[]string{"sport", "policy"},
		),
		GradesAssigned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delphi_grades_assigned_total",
				Help: "Grades produced by recomputes",
			},
			[]string{"sport", "grade"},
		),
		RecommendedEdge: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "delphi_recommendation_edge",
				Help:    "Anchored edge of produced recommendations",
				Buckets: []float64{-0.05, -0.03, -0.01, 0, 0.01, 0.02, 0.03, 0.05, 0.08},
			},
			[]string{"sport"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CacheLookups,
		m.RecomputeDuration,
		m.RecomputeTimeouts,
		m.ClosedReads,
		m.GradesAssigned,
		m.RecommendedEdge,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CacheHit(sport string) {
	m.CacheLookups.WithLabelValues(sport, "hit").Inc()
}

func (m *Metrics) CacheMiss(sport string) {
	m.CacheLookups.WithLabelValues(sport, "miss").Inc()
}

func (m *Metrics) Recomputed(sport string, elapsed time.Duration, recs []models.Recommendation) {
	m.RecomputeDuration.WithLabelValues(sport).Observe(elapsed.Seconds())

	for _, rec := range recs {
		m.GradesAssigned.WithLabelValues(sport, rec.Grade.String()).Inc()
		m.RecommendedEdge.WithLabelValues(sport).Observe(rec.Edge)
	}
}

func (m *Metrics) RecomputeTimedOut(sport string) {
	m.RecomputeTimeouts.WithLabelValues(sport).Inc()
}

func (m *Metrics) ClosedServed(sport string, policy stability.ClosedPolicy) {
	m.ClosedReads.WithLabelValues(sport, string(policy)).Inc()
}
