package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

// enrollmentService is what EnrollmentHandler needs from the service layer.
type enrollmentService interface {
	Register(ctx context.Context, eventID, personID int64) (*model.Enrollment, error)
	UpdateAttendance(ctx context.Context, enrollmentID int64, present bool) (*model.Enrollment, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.Enrollment, error)
	ListByPerson(ctx context.Context, personID int64) ([]model.Enrollment, error)
	Cancel(ctx context.Context, enrollmentID int64) error
	Seats(ctx context.Context, eventID int64) (model.SeatAvailability, error)
	CheckEligibility(ctx context.Context, eventID, personID int64) (model.EligibilityResult, error)
}

// EnrollmentHandler serves registration and attendance endpoints.
type EnrollmentHandler struct {
	svc enrollmentService
	log *slog.Logger
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(svc enrollmentService, log *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{svc: svc, log: log}
}

// Register handles POST /events/{eventID}/enrollments
func (h *EnrollmentHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	enrollment, err := h.svc.Register(r.Context(), eventID, req.PersonID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, enrollment)
}

// ListByEvent handles GET /events/{eventID}/enrollments
func (h *EnrollmentHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	enrollments, err := h.svc.ListByEvent(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(enrollments))
}

// Seats handles GET /events/{eventID}/seats
func (h *EnrollmentHandler) Seats(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	seats, err := h.svc.Seats(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, seats)
}

// Eligibility handles GET /events/{eventID}/eligibility/{personID}
func (h *EnrollmentHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	personID, err := idParam(r, "personID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	res, err := h.svc.CheckEligibility(r.Context(), eventID, personID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdateAttendance handles PUT /enrollments/{enrollmentID}/attendance
func (h *EnrollmentHandler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := idParam(r, "enrollmentID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	var req model.AttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	enrollment, err := h.svc.UpdateAttendance(r.Context(), enrollmentID, *req.Present)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollment)
}

// Cancel handles DELETE /enrollments/{enrollmentID}
func (h *EnrollmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := idParam(r, "enrollmentID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	if err := h.svc.Cancel(r.Context(), enrollmentID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListByPerson handles GET /persons/{personID}/enrollments
func (h *EnrollmentHandler) ListByPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := idParam(r, "personID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	enrollments, err := h.svc.ListByPerson(r.Context(), personID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(enrollments))
}

// nonNil returns an empty slice instead of nil so lists encode as [].
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
