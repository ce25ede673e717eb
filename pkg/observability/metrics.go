package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records wizard activity in a Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	StepVisits   *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec
	Objects      *prometheus.CounterVec

	mu      sync.Mutex
	entered map[string]time.Time
}

// NewMetrics creates the collectors and registers them, along with the Go and
// process collectors, in a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StepVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_step_visits_total",
				Help: "Total number of wizard step visits",
			},
			[]string{"step"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_step_duration_seconds",
				Help:    "Time spent on a wizard step before leaving it",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"step"},
		),
		Objects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_objects_total",
				Help: "Objects processed by finalization, by outcome",
			},
			[]string{"outcome"},
		),
		entered: make(map[string]time.Time),
	}
	m.registry.MustRegister(
		m.StepVisits,
		m.StepDuration,
		m.Objects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.StepID).Inc()
			m.mu.Lock()
			m.entered[e.SessionID] = e.Timestamp
			m.mu.Unlock()
		},
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.mu.Lock()
			since, ok := m.entered[e.SessionID]
			delete(m.entered, e.SessionID)
			m.mu.Unlock()
			if ok && !since.IsZero() {
				m.StepDuration.WithLabelValues(e.StepID).Observe(e.Timestamp.Sub(since).Seconds())
			}
		},
		OnObjectPersisted: func(_ context.Context, e *domain.ObjectEvent) {
			m.Objects.WithLabelValues("persisted").Inc()
		},
		OnObjectFailed: func(_ context.Context, e *domain.ObjectEvent) {
			m.Objects.WithLabelValues("failed").Inc()
		},
	}
}
