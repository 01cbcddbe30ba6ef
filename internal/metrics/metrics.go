package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Result labels for pipeline runs. Failed runs are labelled with the stage
// that failed instead.
const (
	ResultSuccess = "success"
)

type Metrics struct {
	registry *prometheus.Registry

	events      *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	inFlight    prometheus.Gauge
}

// New builds a collector set on its own registry so tests and multiple
// servers in one process do not collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook envelopes by kind.",
		}, []string{"kind"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Finished pipeline runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of a pipeline run, fetch to reply.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "background_tasks_in_flight",
			Help:      "Spawned background tasks that have not settled.",
		}),
	}
	m.registry.MustRegister(
		m.events,
		m.runs,
		m.runDuration,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) EventReceived(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) RunFinished(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(d.Seconds())
}

// InFlight is the gauge handed to the task spawner.
func (m *Metrics) InFlight() prometheus.Gauge {
	if m == nil {
		return nil
	}
	return m.inFlight
}
