// Package metrics holds the Prometheus collectors for enrollments,
// certificates and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enrollment outcomes.
const (
	OutcomeRegistered = "registered"
	OutcomeNotFound   = "not_found"
	OutcomeConflict   = "conflict"
	OutcomeNoSeats    = "no_seats"
	OutcomeIneligible = "ineligible"
	OutcomeError      = "error"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics groups the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Registrations       *prometheus.CounterVec
	CertificatesIssued  *prometheus.CounterVec
	BulkIssueDuration   prometheus.Histogram
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		CertificatesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates created, by issuance mode",
		}, []string{"mode"}),
		BulkIssueDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certificates_bulk_issue_duration_seconds",
			Help:    "Duration of bulk certificate issuance for an event",
			Buckets: durationBuckets,
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: durationBuckets,
		}, []string{"method", "route"}),
	}
}

// IncRegistration records a registration attempt.
func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

// AddCertificates records n created certificates. mode is "single" or "bulk".
func (m *Metrics) AddCertificates(mode string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CertificatesIssued.WithLabelValues(mode).Add(float64(n))
}

// ObserveBulkIssue records a bulk issuance duration.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveBulkIssue(start time.Time) {
	if m == nil {
		return
	}
	m.BulkIssueDuration.Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
