// Package metrics exposes Prometheus collectors for the shell.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faylit/appshell/internal/frame"
)

const namespace = "appshell"

// Metrics holds the collectors on a private registry. It satisfies
// frame.Recorder, push.Recorder and pushreg.Recorder.
type Metrics struct {
	registry      *prometheus.Registry
	navigations   *prometheus.CounterVec
	loads         *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	registrations *prometheus.CounterVec
	sessions      prometheus.Gauge
}

// New creates and registers the collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: registry,
		navigations: newCounter(registry, "frame_navigations_total",
			"Navigations started by the embedded view controller.",
			[]string{"kind"}),
		loads: newCounter(registry, "frame_loads_total",
			"Load signals and timeouts reconciled by the embedded view controller.",
			[]string{"outcome"}),
		deliveries: newCounter(registry, "push_deliveries_total",
			"Push delivery attempts by result.",
			[]string{"result"}),
		registrations: newCounter(registry, "push_registrations_total",
			"Browser push registration attempts by outcome.",
			[]string{"outcome"}),
		sessions: newGauge(registry, "bridge_sessions",
			"Open browser bridge sessions."),
	}
}

func newCounter(registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	registry.MustRegister(counter)
	return counter
}

func newGauge(registry *prometheus.Registry, name, help string) prometheus.Gauge {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(gauge)
	return gauge
}

// Navigation implements frame.Recorder.
func (m *Metrics) Navigation(kind frame.NavigationKind) {
	m.navigations.WithLabelValues(string(kind)).Inc()
}

// Load implements frame.Recorder.
func (m *Metrics) Load(outcome frame.LoadOutcome) {
	m.loads.WithLabelValues(string(outcome)).Inc()
}

// Delivery implements push.Recorder.
func (m *Metrics) Delivery(result string) {
	m.deliveries.WithLabelValues(result).Inc()
}

// Registration implements pushreg.Recorder.
func (m *Metrics) Registration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

// SessionOpened increments the open session gauge.
func (m *Metrics) SessionOpened() { m.sessions.Inc() }

// SessionClosed decrements the open session gauge.
func (m *Metrics) SessionClosed() { m.sessions.Dec() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
