// Package metrics exposes the engine's Prometheus instrumentation. One
// Metrics value owns its own registry so tests and parallel services never
// fight over a global default.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the wirebom collectors.
type Metrics struct {
	reg *prometheus.Registry

	RunsTotal     *prometheus.CounterVec // label: outcome = ok|aborted|rejected
	FindingsTotal *prometheus.CounterVec // label: severity
	WiresTotal    prometheus.Counter
	AnalyzedTotal prometheus.Counter
	RunDuration   prometheus.Histogram
}

// New creates a Metrics with its own registry, including the standard Go
// runtime collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Schematic conversion runs by outcome.",
		}, []string{"outcome"}),
		FindingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "findings_total",
			Help: "Validation findings by severity.",
		}, []string{"severity"}),
		WiresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "wires_total",
			Help: "Wire segments received.",
		}),
		AnalyzedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "wires_analyzed_total",
			Help: "Wires with computed electrical analysis.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time per conversion run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveRun records one conversion run.
func (m *Metrics) ObserveRun(outcome string, wires, analyzed int, severities map[string]int, dur time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.WiresTotal.Add(float64(wires))
	m.AnalyzedTotal.Add(float64(analyzed))
	for sev, n := range severities {
		m.FindingsTotal.WithLabelValues(sev).Add(float64(n))
	}
	m.RunDuration.Observe(dur.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
