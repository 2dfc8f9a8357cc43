package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/lock"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/metrics"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/queue"
)

const (
	issueModeSingle = "single"
	issueModeBulk   = "bulk"
)

// certificateStore is the part of the Catalog Store used for issuance.
type certificateStore interface {
	catalogReader
	GetSpeaker(ctx context.Context, id int64) (*model.Speaker, error)
	ListEnrollmentsByEvent(ctx context.Context, eventID int64, attendance *model.Attendance) ([]model.Enrollment, error)
	ListCertificatesByPerson(ctx context.Context, personID int64) ([]model.Certificate, error)
	ListCertificatesByEvent(ctx context.Context, eventID int64) ([]model.Certificate, error)
	ListCertificates(ctx context.Context) ([]model.Certificate, error)
	SaveCertificate(ctx context.Context, c model.Certificate) (*model.Certificate, error)
	FindCertificateByHash(ctx context.Context, hash string) (*model.Certificate, error)
	DeleteCertificate(ctx context.Context, id int64) error
}

// hasher derives a certificate verification hash.
type hasher interface {
	Hash(in model.HashInput) (string, error)
}

// CertificateService issues and looks up attendance certificates.
type CertificateService struct {
	log       *slog.Logger
	store     certificateStore
	tx        txManager
	locker    lock.Locker
	hasher    hasher
	publisher queue.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewCertificateService creates a CertificateService. A nil locker or
// publisher disables that concern.
func NewCertificateService(
	logger *slog.Logger,
	store certificateStore,
	tx txManager,
	locker lock.Locker,
	h hasher,
	publisher queue.Publisher,
	m *metrics.Metrics,
) *CertificateService {
	if locker == nil {
		locker = lock.Noop{}
	}
	if publisher == nil {
		publisher = queue.Noop{}
	}
	return &CertificateService{
		log:       logger.With("service", "certificate"),
		store:     store,
		tx:        tx,
		locker:    locker,
		hasher:    h,
		publisher: publisher,
		metrics:   m,
		now:       utcNow,
	}
}

// IssueForEvent creates a certificate for every attendee with confirmed
// presence who does not already hold one for the event. It returns only the
// newly created certificates; an empty result means everyone was already
// certified. It fails with model.ErrNoConfirmedAttendees when nobody has
// confirmed presence.
func (s *CertificateService) IssueForEvent(
	ctx context.Context,
	eventID, speakerID int64,
	institutionName, institutionID string,
) ([]model.Certificate, error) {
	start := time.Now()
	defer s.metrics.ObserveBulkIssue(start)

	unlock, err := s.locker.Lock(ctx, lock.EventKey(eventID))
	if err != nil {
		return nil, fmt.Errorf("issue for event: %w", err)
	}
	defer func() {
		warnIfFailed(ctx, s.log, "release event lock", unlock(context.WithoutCancel(ctx)), slog.Int64("event_id", eventID))
	}()

	created := []model.Certificate{}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		event, err := s.store.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		speaker, err := s.store.GetSpeaker(ctx, speakerID)
		if err != nil {
			return err
		}

		present := model.AttendancePresent
		attendees, err := s.store.ListEnrollmentsByEvent(ctx, eventID, &present)
		if err != nil {
			return err
		}
		if len(attendees) == 0 {
			return model.ErrNoConfirmedAttendees
		}

		for _, enrollment := range attendees {
			held, err := s.store.ListCertificatesByPerson(ctx, enrollment.PersonID)
			if err != nil {
				return err
			}
			if slices.ContainsFunc(held, func(c model.Certificate) bool { return c.EventID == eventID }) {
				continue
			}

			student, err := s.store.GetStudent(ctx, enrollment.PersonID)
			if err != nil {
				return err
			}

			issuedAt := s.now()
			hash, err := s.hasher.Hash(model.HashInput{
				PersonID:         student.ID,
				PersonName:       student.Name,
				PersonNationalID: student.NationalID,
				EventID:          event.ID,
				EventName:        event.Name,
				SpeakerID:        speaker.ID,
				SpeakerName:      speaker.Name,
				InstitutionID:    institutionID,
				IssuedAt:         issuedAt,
			})
			if err != nil {
				return err
			}

			cert, err := s.store.SaveCertificate(ctx, model.Certificate{
				PersonID:        student.ID,
				EventID:         event.ID,
				SpeakerID:       speaker.ID,
				Hash:            hash,
				InstitutionName: institutionName,
				InstitutionID:   institutionID,
				IssuedAt:        issuedAt,
			})
			if err != nil {
				return err
			}
			created = append(created, *cert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddCertificates(issueModeBulk, len(created))
	s.log.InfoContext(ctx, "certificates issued for event",
		slog.Int64("event_id", eventID),
		slog.Int64("speaker_id", speakerID),
		slog.Int("created", len(created)),
	)
	for _, c := range created {
		s.publishIssued(ctx, c)
	}
	return created, nil
}

// Issue persists one certificate with a caller-supplied hash. It resolves
// person, event and speaker in that order but does not check whether the
// person already holds a certificate for the event.
func (s *CertificateService) Issue(
	ctx context.Context,
	personID, eventID, speakerID int64,
	payload model.CertificatePayload,
) (*model.Certificate, error) {
	if _, err := s.store.GetStudent(ctx, personID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetSpeaker(ctx, speakerID); err != nil {
		return nil, err
	}

	cert, err := s.store.SaveCertificate(ctx, model.Certificate{
		PersonID:        personID,
		EventID:         eventID,
		SpeakerID:       speakerID,
		Hash:            payload.Hash,
		InstitutionName: payload.InstitutionName,
		InstitutionID:   payload.InstitutionID,
		IssuedAt:        s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddCertificates(issueModeSingle, 1)
	s.log.InfoContext(ctx, "certificate issued",
		slog.Int64("certificate_id", cert.ID),
		slog.Int64("event_id", eventID),
		slog.Int64("person_id", personID),
	)
	s.publishIssued(ctx, *cert)
	return cert, nil
}

func (s *CertificateService) publishIssued(ctx context.Context, c model.Certificate) {
	warnIfFailed(ctx, s.log, "publish certificate issued", s.publisher.Publish(ctx, queue.CertificateIssued{
		CertificateID: c.ID,
		EventID:       c.EventID,
		PersonID:      c.PersonID,
		SpeakerID:     c.SpeakerID,
		Hash:          c.Hash,
		IssuedAt:      c.IssuedAt,
	}), slog.Int64("certificate_id", c.ID))
}

// Verify looks a certificate up by its hash.
func (s *CertificateService) Verify(ctx context.Context, hash string) (*model.Certificate, error) {
	return s.store.FindCertificateByHash(ctx, hash)
}

// ListByPerson returns the certificates held by a student.
func (s *CertificateService) ListByPerson(ctx context.Context, personID int64) ([]model.Certificate, error) {
	if _, err := s.store.GetStudent(ctx, personID); err != nil {
		return nil, err
	}
	return s.store.ListCertificatesByPerson(ctx, personID)
}

// ListByEvent returns the certificates issued for an event.
func (s *CertificateService) ListByEvent(ctx context.Context, eventID int64) ([]model.Certificate, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListCertificatesByEvent(ctx, eventID)
}

// List returns every certificate.
func (s *CertificateService) List(ctx context.Context) ([]model.Certificate, error) {
	return s.store.ListCertificates(ctx)
}

// Delete revokes a certificate.
func (s *CertificateService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCertificate(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "certificate deleted", slog.Int64("certificate_id", id))
	return nil
}
