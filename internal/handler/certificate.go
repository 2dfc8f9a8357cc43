package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

type certificateService interface {
	IssueForEvent(ctx context.Context, eventID, speakerID int64, institutionName, institutionID string) ([]model.Certificate, error)
	Issue(ctx context.Context, personID, eventID, speakerID int64, payload model.CertificatePayload) (*model.Certificate, error)
	Verify(ctx context.Context, hash string) (*model.Certificate, error)
	ListByPerson(ctx context.Context, personID int64) ([]model.Certificate, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.Certificate, error)
	List(ctx context.Context) ([]model.Certificate, error)
	Delete(ctx context.Context, id int64) error
}

// CertificateHandler serves certificate issuance and lookup endpoints.
type CertificateHandler struct {
	svc certificateService
	log *slog.Logger
}

// NewCertificateHandler constructs a CertificateHandler.
func NewCertificateHandler(svc certificateService, log *slog.Logger) *CertificateHandler {
	return &CertificateHandler{svc: svc, log: log}
}

// IssueForEvent handles POST /events/{eventID}/certificates
// Issues certificates to every confirmed attendee not yet certified.
func (h *CertificateHandler) IssueForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	var req model.BulkIssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	certs, err := h.svc.IssueForEvent(r.Context(), eventID, req.SpeakerID, req.InstitutionName, req.InstitutionID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, nonNil(certs))
}

// ListByEvent handles GET /events/{eventID}/certificates
func (h *CertificateHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	certs, err := h.svc.ListByEvent(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(certs))
}

// ListByPerson handles GET /persons/{personID}/certificates
func (h *CertificateHandler) ListByPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := idParam(r, "personID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	certs, err := h.svc.ListByPerson(r.Context(), personID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(certs))
}

// Issue handles POST /certificates
func (h *CertificateHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req model.IssueCertificateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	cert, err := h.svc.Issue(r.Context(), req.PersonID, req.EventID, req.SpeakerID, model.CertificatePayload{
		Hash:            req.Hash,
		InstitutionName: req.InstitutionName,
		InstitutionID:   req.InstitutionID,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, cert)
}

// List handles GET /certificates
func (h *CertificateHandler) List(w http.ResponseWriter, r *http.Request) {
	certs, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(certs))
}

// Verify handles GET /certificates/verify/{hash}
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	cert, err := h.svc.Verify(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

// Delete handles DELETE /certificates/{certificateID}
func (h *CertificateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "certificateID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
