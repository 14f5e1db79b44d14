package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsCreated  prometheus.Counter
	RegistrationsRejected *prometheus.CounterVec
	FilesStored           prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrations_created_total",
			Help: "Total number of registration records created",
		}),
		RegistrationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrations_rejected_total",
			Help: "Total number of rejected submissions by reason",
		}, []string{"reason"}),
		FilesStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registration_files_stored_total",
			Help: "Total number of files written to the content store",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registration_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}

// IncrementRejected counts a rejected submission under the given reason.
func (m *Metrics) IncrementRejected(reason string) {
	m.RegistrationsRejected.WithLabelValues(reason).Inc()
}
