package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/lock"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/metrics"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/queue"
)

// enrollmentStore is the part of the Catalog Store used for registration.
type enrollmentStore interface {
	catalogReader
	FindEnrollment(ctx context.Context, personID, eventID int64) (*model.Enrollment, error)
	GetEnrollment(ctx context.Context, id int64) (*model.Enrollment, error)
	CountEnrollmentsByEvent(ctx context.Context, eventID int64) (int, error)
	ListEnrollmentsByEvent(ctx context.Context, eventID int64, attendance *model.Attendance) ([]model.Enrollment, error)
	ListEnrollmentsByPerson(ctx context.Context, personID int64) ([]model.Enrollment, error)
	SaveEnrollment(ctx context.Context, e model.Enrollment) (*model.Enrollment, error)
	SetAttendance(ctx context.Context, id int64, attendance model.Attendance) (*model.Enrollment, error)
	DeleteEnrollment(ctx context.Context, id int64) error
}

// EnrollmentService coordinates registrations and attendance.
type EnrollmentService struct {
	log       *slog.Logger
	store     enrollmentStore
	tx        txManager
	locker    lock.Locker
	publisher queue.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewEnrollmentService creates an EnrollmentService. A nil locker or
// publisher disables that concern.
func NewEnrollmentService(
	logger *slog.Logger,
	store enrollmentStore,
	tx txManager,
	locker lock.Locker,
	publisher queue.Publisher,
	m *metrics.Metrics,
) *EnrollmentService {
	if locker == nil {
		locker = lock.Noop{}
	}
	if publisher == nil {
		publisher = queue.Noop{}
	}
	return &EnrollmentService{
		log:       logger.With("service", "enrollment"),
		store:     store,
		tx:        tx,
		locker:    locker,
		publisher: publisher,
		metrics:   m,
		now:       utcNow,
	}
}

// Register enrolls a person in an event. Checks run in order and the first
// failure wins: event exists, person exists, not already enrolled, a seat is
// free, the person is eligible. Checks and insert are atomic per event.
func (s *EnrollmentService) Register(ctx context.Context, eventID, personID int64) (*model.Enrollment, error) {
	enrollment, err := s.register(ctx, eventID, personID)
	s.metrics.IncRegistration(registrationOutcome(err))
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "enrollment registered",
		slog.Int64("enrollment_id", enrollment.ID),
		slog.Int64("event_id", eventID),
		slog.Int64("person_id", personID),
	)
	warnIfFailed(ctx, s.log, "publish enrollment registered", s.publisher.Publish(ctx, queue.EnrollmentRegistered{
		EnrollmentID: enrollment.ID,
		EventID:      enrollment.EventID,
		PersonID:     enrollment.PersonID,
		RegisteredAt: enrollment.RegisteredAt,
	}), slog.Int64("enrollment_id", enrollment.ID))

	return enrollment, nil
}

func (s *EnrollmentService) register(ctx context.Context, eventID, personID int64) (*model.Enrollment, error) {
	unlock, err := s.locker.Lock(ctx, lock.EventKey(eventID))
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	defer func() {
		warnIfFailed(ctx, s.log, "release event lock", unlock(context.WithoutCancel(ctx)), slog.Int64("event_id", eventID))
	}()

	var created *model.Enrollment
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		event, err := s.store.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}

		student, err := s.store.GetStudent(ctx, personID)
		if err != nil {
			return err
		}

		if _, err := s.store.FindEnrollment(ctx, personID, eventID); err == nil {
			return model.ErrAlreadyEnrolled
		} else if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		enrolled, err := s.store.CountEnrollmentsByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !HasAvailableSeats(event.Capacity, enrolled) {
			return model.ErrNoSeats
		}

		if !IsEligible(*student, *event) {
			return model.ErrIneligible
		}

		created, err = s.store.SaveEnrollment(ctx, model.Enrollment{
			PersonID:     personID,
			EventID:      eventID,
			RegisteredAt: s.now(),
			Attendance:   model.AttendanceUnconfirmed,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeRegistered
	case errors.Is(err, model.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, model.ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, model.ErrNoSeats):
		return metrics.OutcomeNoSeats
	case errors.Is(err, model.ErrIneligible):
		return metrics.OutcomeIneligible
	default:
		return metrics.OutcomeError
	}
}

// UpdateAttendance overwrites the attendance flag of an enrollment.
func (s *EnrollmentService) UpdateAttendance(ctx context.Context, enrollmentID int64, present bool) (*model.Enrollment, error) {
	enrollment, err := s.store.SetAttendance(ctx, enrollmentID, model.AttendanceFromBool(present))
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "attendance updated",
		slog.Int64("enrollment_id", enrollmentID),
		slog.String("attendance", enrollment.Attendance.String()),
	)
	return enrollment, nil
}

// ListByEvent returns an event's enrollments in registration order.
func (s *EnrollmentService) ListByEvent(ctx context.Context, eventID int64) ([]model.Enrollment, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListEnrollmentsByEvent(ctx, eventID, nil)
}

// ListByPerson returns a student's enrollments.
func (s *EnrollmentService) ListByPerson(ctx context.Context, personID int64) ([]model.Enrollment, error) {
	if _, err := s.store.GetStudent(ctx, personID); err != nil {
		return nil, err
	}
	return s.store.ListEnrollmentsByPerson(ctx, personID)
}

// Cancel removes an enrollment, freeing its seat.
func (s *EnrollmentService) Cancel(ctx context.Context, enrollmentID int64) error {
	enrollment, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEnrollment(ctx, enrollmentID); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "enrollment cancelled",
		slog.Int64("enrollment_id", enrollmentID),
		slog.Int64("event_id", enrollment.EventID),
		slog.Int64("person_id", enrollment.PersonID),
	)
	return nil
}

// Seats reports an event's capacity and current occupancy.
func (s *EnrollmentService) Seats(ctx context.Context, eventID int64) (model.SeatAvailability, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.SeatAvailability{}, err
	}
	enrolled, err := s.store.CountEnrollmentsByEvent(ctx, eventID)
	if err != nil {
		return model.SeatAvailability{}, err
	}
	return model.SeatAvailability{
		EventID:   eventID,
		Capacity:  event.Capacity,
		Enrolled:  enrolled,
		Available: AvailableSeats(event.Capacity, enrolled),
	}, nil
}

// CheckEligibility evaluates course eligibility without registering.
func (s *EnrollmentService) CheckEligibility(ctx context.Context, eventID, personID int64) (model.EligibilityResult, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.EligibilityResult{}, err
	}
	student, err := s.store.GetStudent(ctx, personID)
	if err != nil {
		return model.EligibilityResult{}, err
	}
	return model.EligibilityResult{
		EventID:  eventID,
		PersonID: personID,
		Open:     event.IsOpen(),
		Eligible: IsEligible(*student, *event),
	}, nil
}
