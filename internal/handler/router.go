package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/metrics"
)

// RouterDeps holds everything NewRouter wires.
type RouterDeps struct {
	Log          *slog.Logger
	Metrics      *metrics.Metrics
	MetricsPage  http.Handler
	Enrollments  *EnrollmentHandler
	Certificates *CertificateHandler
	Health       *HealthHandler
}

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(d.Log, d.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS)

	r.Get("/health", d.Health.Health)
	r.Get("/health/live", d.Health.Live)
	if d.MetricsPage != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsPage)
	}

	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Post("/enrollments", d.Enrollments.Register)
		r.Get("/enrollments", d.Enrollments.ListByEvent)
		r.Get("/seats", d.Enrollments.Seats)
		r.Get("/eligibility/{personID}", d.Enrollments.Eligibility)
		r.Post("/certificates", d.Certificates.IssueForEvent)
		r.Get("/certificates", d.Certificates.ListByEvent)
	})

	r.Route("/enrollments/{enrollmentID}", func(r chi.Router) {
		r.Put("/attendance", d.Enrollments.UpdateAttendance)
		r.Delete("/", d.Enrollments.Cancel)
	})

	r.Route("/persons/{personID}", func(r chi.Router) {
		r.Get("/enrollments", d.Enrollments.ListByPerson)
		r.Get("/certificates", d.Certificates.ListByPerson)
	})

	r.Route("/certificates", func(r chi.Router) {
		r.Post("/", d.Certificates.Issue)
		r.Get("/", d.Certificates.List)
		r.Get("/verify/{hash}", d.Certificates.Verify)
		r.Delete("/{certificateID}", d.Certificates.Delete)
	})

	return r
}
