// Package metrics exposes pathway activity as prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry         *prometheus.Registry
	turns            *prometheus.CounterVec
	classifierErrors prometheus.Counter
	upstreamErrors   *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	storeDuration    *prometheus.HistogramVec
	storeErrors      *prometheus.CounterVec
}

// New registers the pathway collectors, plus the Go and process collectors,
// on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathway_turns_total",
				Help: "Total number of decided turns by outcome",
			},
			[]string{"outcome", "gated"},
		),
		classifierErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pathway_classifier_errors_total",
				Help: "Classifier failures that forced the error branch",
			},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathway_upstream_errors_total",
				Help: "Failed upstream completion requests",
			},
			[]string{"stream"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathway_upstream_duration_seconds",
				Help:    "Duration of upstream completion requests",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"stream"},
		),
		storeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathway_store_duration_seconds",
				Help:    "Duration of position store operations",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"op"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathway_store_errors_total",
				Help: "Failed position store operations",
			},
			[]string{"op"},
		),
	}
	m.registry.MustRegister(
		m.turns,
		m.classifierErrors,
		m.upstreamErrors,
		m.upstreamDuration,
		m.storeDuration,
		m.storeErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks returns controller hooks that record turns and classifier failures.
// next, if set, is called after recording.
func (m *Metrics) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDecision: func(ctx context.Context, e *domain.DecisionEvent) {
			m.turns.WithLabelValues(string(e.Outcome), strconv.FormatBool(e.Gated)).Inc()
			if next.OnDecision != nil {
				next.OnDecision(ctx, e)
			}
		},
		OnClassifierError: func(ctx context.Context, e *domain.ClassifierEvent) {
			m.classifierErrors.Inc()
			if next.OnClassifierError != nil {
				next.OnClassifierError(ctx, e)
			}
		},
	}
}

// ObserveUpstream records one upstream exchange.
func (m *Metrics) ObserveUpstream(stream bool, elapsed time.Duration, err error) {
	label := strconv.FormatBool(stream)
	m.upstreamDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err != nil {
		m.upstreamErrors.WithLabelValues(label).Inc()
	}
}

// ObserveStore records one position store operation.
// Lookups of unseen calls are not failures.
func (m *Metrics) ObserveStore(op string, elapsed time.Duration, err error) {
	m.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil && !errors.Is(err, domain.ErrCallNotFound) {
		m.storeErrors.WithLabelValues(op).Inc()
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
