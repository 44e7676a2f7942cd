package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the journey engine collectors.
type Metrics struct {
	CheckpointTransitions *prometheus.CounterVec
	JourneysStarted       *prometheus.CounterVec
	JourneysCompleted     *prometheus.CounterVec
	ActualWaitMinutes     *prometheus.HistogramVec
	DepartmentQueue       *prometheus.GaugeVec
	HTTPRequests          *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CheckpointTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journey_checkpoint_transitions_total",
				Help: "Checkpoint status changes applied, by target status",
			},
			[]string{"status"},
		),
		JourneysStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journeys_started_total",
				Help: "Journeys created, by hospital",
			},
			[]string{"hospital"},
		),
		JourneysCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journeys_completed_total",
				Help: "Journeys that reached completed, by hospital",
			},
			[]string{"hospital"},
		),
		ActualWaitMinutes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "journey_checkpoint_wait_minutes",
				Help:    "Minutes between arrival and start of service",
				Buckets: []float64{1, 5, 10, 15, 30, 45, 60, 90, 120, 180},
			},
			[]string{"department"},
		),
		DepartmentQueue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "department_current_queue",
				Help: "Patients currently queued or in service at a department",
			},
			[]string{"department"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.CheckpointTransitions,
		m.JourneysStarted,
		m.JourneysCompleted,
		m.ActualWaitMinutes,
		m.DepartmentQueue,
		m.HTTPRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
