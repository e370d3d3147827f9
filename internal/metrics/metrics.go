// Package metrics exposes the reference server's Prometheus collectors on a
// private registry so tests never fight over the global one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	trainingJobsInflight prometheus.Gauge
	trainingsTotal       *prometheus.CounterVec
	trainingDuration     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		trainingJobsInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "training_jobs_inflight",
			Help: "Training jobs currently running.",
		}),
		trainingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trainings_total",
			Help: "Finished training jobs by terminal status.",
		}, []string{"status"}),
		trainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Wall-clock duration of finished training jobs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.trainingJobsInflight,
		m.trainingsTotal,
		m.trainingDuration,
	)
	return m
}

// Handler serves the exposition endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The recording methods are nil-safe so callers wired without metrics need
// no guards.

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.trainingJobsInflight.Inc()
}

func (m *Metrics) JobFinished(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.trainingJobsInflight.Dec()
	m.trainingsTotal.WithLabelValues(status).Inc()
	m.trainingDuration.Observe(elapsed.Seconds())
}
