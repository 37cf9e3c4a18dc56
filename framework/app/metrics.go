package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records bootstrap progress. Each Metrics owns its registry so
// several bootstrappers (tests, mostly) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	PhaseDuration *prometheus.HistogramVec
	State         prometheus.Gauge
	Modules       prometheus.Gauge
	Bindings      prometheus.Gauge
	Failures      *prometheus.CounterVec
}

// NewMetrics creates bootstrap metrics under namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	phaseDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each bootstrap phase in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	state := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "state",
			Help:      "Current bootstrap state (0=created .. 5=ready, 6=failed)",
		},
	)

	modules := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "modules",
			Help:      "Number of modules resolved",
		},
	)

	bindings := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "bindings",
			Help:      "Number of distinct bindings after resolution",
		},
	)

	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "failures_total",
			Help:      "Bootstrap failures by phase",
		},
		[]string{"phase"},
	)

	registry.MustRegister(phaseDuration, state, modules, bindings, failures)

	return &Metrics{
		registry:      registry,
		PhaseDuration: phaseDuration,
		State:         state,
		Modules:       modules,
		Bindings:      bindings,
		Failures:      failures,
	}
}

// Registry exposes the registry for a /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observe(phase string, start time.Time) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.State.Set(float64(s))
}

func (m *Metrics) fail(phase string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(phase).Inc()
}

func (m *Metrics) resolved(modules, bindings int) {
	if m == nil {
		return
	}
	m.Modules.Set(float64(modules))
	m.Bindings.Set(float64(bindings))
}
