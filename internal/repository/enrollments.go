package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

var enrollmentColumns = []string{"id", "person_id", "event_id", "registered_at", "attendance"}

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	var (
		e          model.Enrollment
		attendance *bool
	)
	if err := row.Scan(&e.ID, &e.PersonID, &e.EventID, &e.RegisteredAt, &attendance); err != nil {
		return nil, err
	}
	e.Attendance = model.AttendanceFromNullable(attendance)
	return &e, nil
}

func (s *Store) listEnrollments(ctx context.Context, b sq.SelectBuilder) ([]model.Enrollment, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// FindEnrollment returns the enrollment linking person and event, or a
// NotFoundError when there is none.
func (s *Store) FindEnrollment(ctx context.Context, personID, eventID int64) (*model.Enrollment, error) {
	row, err := s.queryRow(ctx, psql.
		Select(enrollmentColumns...).
		From("enrollments").
		Where(sq.Eq{"person_id": personID, "event_id": eventID}))
	if err != nil {
		return nil, err
	}
	e, err := scanEnrollment(row)
	if err != nil {
		return nil, mapError(err, "enrollment", [2]int64{personID, eventID})
	}
	return e, nil
}

// GetEnrollment returns an enrollment by id.
func (s *Store) GetEnrollment(ctx context.Context, id int64) (*model.Enrollment, error) {
	row, err := s.queryRow(ctx, psql.Select(enrollmentColumns...).From("enrollments").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	e, err := scanEnrollment(row)
	if err != nil {
		return nil, mapError(err, "enrollment", id)
	}
	return e, nil
}

// CountEnrollmentsByEvent counts every enrollment of the event regardless of
// attendance.
func (s *Store) CountEnrollmentsByEvent(ctx context.Context, eventID int64) (int, error) {
	row, err := s.queryRow(ctx, psql.Select("COUNT(*)").From("enrollments").Where(sq.Eq{"event_id": eventID}))
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, mapError(err, "event", eventID)
	}
	return int(n), nil
}

// ListEnrollmentsByEvent lists the event's enrollments in registration order.
// A non-nil attendance restricts the result to that state.
func (s *Store) ListEnrollmentsByEvent(ctx context.Context, eventID int64, attendance *model.Attendance) ([]model.Enrollment, error) {
	b := psql.Select(enrollmentColumns...).From("enrollments").Where(sq.Eq{"event_id": eventID})
	if attendance != nil {
		b = b.Where(sq.Eq{"attendance": attendance.Nullable()})
	}
	out, err := s.listEnrollments(ctx, b.OrderBy("registered_at", "id"))
	if err != nil {
		return nil, mapError(err, "event", eventID)
	}
	return out, nil
}

// ListEnrollmentsByPerson lists the person's enrollments in registration order.
func (s *Store) ListEnrollmentsByPerson(ctx context.Context, personID int64) ([]model.Enrollment, error) {
	out, err := s.listEnrollments(ctx, psql.
		Select(enrollmentColumns...).
		From("enrollments").
		Where(sq.Eq{"person_id": personID}).
		OrderBy("registered_at", "id"))
	if err != nil {
		return nil, mapError(err, "person", personID)
	}
	return out, nil
}

// SaveEnrollment inserts a new enrollment and returns it with its id.
func (s *Store) SaveEnrollment(ctx context.Context, e model.Enrollment) (*model.Enrollment, error) {
	if e.RegisteredAt.IsZero() {
		e.RegisteredAt = time.Now().UTC()
	}
	row, err := s.queryRow(ctx, psql.
		Insert("enrollments").
		Columns("person_id", "event_id", "registered_at", "attendance").
		Values(e.PersonID, e.EventID, e.RegisteredAt, e.Attendance.Nullable()).
		Suffix("RETURNING id"))
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&e.ID); err != nil {
		return nil, mapError(err, "enrollment", [2]int64{e.PersonID, e.EventID})
	}
	return &e, nil
}

// SetAttendance overwrites the attendance flag of an enrollment.
func (s *Store) SetAttendance(ctx context.Context, id int64, attendance model.Attendance) (*model.Enrollment, error) {
	row, err := s.queryRow(ctx, psql.
		Update("enrollments").
		Set("attendance", attendance.Nullable()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING "+joinColumns(enrollmentColumns)))
	if err != nil {
		return nil, err
	}
	e, err := scanEnrollment(row)
	if err != nil {
		return nil, mapError(err, "enrollment", id)
	}
	return e, nil
}

// DeleteEnrollment removes an enrollment.
func (s *Store) DeleteEnrollment(ctx context.Context, id int64) error {
	n, err := s.exec(ctx, psql.Delete("enrollments").Where(sq.Eq{"id": id}))
	if err != nil {
		return mapError(err, "enrollment", id)
	}
	if n == 0 {
		return model.NewNotFound("enrollment", id)
	}
	return nil
}
