package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestStore_LockEvent(t *testing.T) {
	store, mock := newMockStore(t)
	capacity := int32(30)

	mock.ExpectQuery(`SELECT .+ FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(eventColumns).
			AddRow(int64(7), "Go Workshop", "", "Lab 3", nil, nil, []string{"tech"}, nil, &capacity, ""))
	mock.ExpectQuery(`SELECT course_id FROM event_courses WHERE event_id = \$1 ORDER BY position, course_id`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"course_id"}).AddRow(int64(1)).AddRow(int64(4)))

	event, err := store.LockEvent(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "Go Workshop", event.Name)
	require.NotNil(t, event.Capacity)
	assert.Equal(t, 30, *event.Capacity)
	assert.Nil(t, event.Workload)
	assert.Equal(t, []int64{1, 4}, event.RequiredCourseIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetEvent_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .+ FROM events WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetEvent(context.Background(), 99)

	require.ErrorIs(t, err, model.ErrNotFound)
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "event", nf.Entity)
}

func TestStore_CountEnrollmentsByEvent(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM enrollments WHERE event_id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

	n, err := store.CountEnrollmentsByEvent(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestStore_ListEnrollmentsByEvent_PresentOnly(t *testing.T) {
	store, mock := newMockStore(t)
	present := model.AttendancePresent
	now := time.Now().UTC()
	yes := true

	mock.ExpectQuery(`SELECT .+ FROM enrollments WHERE event_id = \$1 AND attendance = \$2 ORDER BY registered_at, id`).
		WithArgs(int64(3), true).
		WillReturnRows(pgxmock.NewRows(enrollmentColumns).
			AddRow(int64(1), int64(10), int64(3), now, &yes))

	out, err := store.ListEnrollmentsByEvent(context.Background(), 3, &present)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.AttendancePresent, out[0].Attendance)
	assert.Equal(t, int64(10), out[0].PersonID)
}

func TestStore_SaveEnrollment_Duplicate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO enrollments`).
		WithArgs(int64(10), int64(3), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: enrollmentPairConstraint})

	_, err := store.SaveEnrollment(context.Background(), model.Enrollment{PersonID: 10, EventID: 3})

	require.ErrorIs(t, err, model.ErrAlreadyEnrolled)
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestStore_SaveCertificate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO certificates .+ RETURNING id`).
		WithArgs(int64(10), int64(3), int64(5), "ABC", "UFPB", "", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	c, err := store.SaveCertificate(context.Background(), model.Certificate{
		PersonID: 10, EventID: 3, SpeakerID: 5, Hash: "ABC", InstitutionName: "UFPB",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), c.ID)
	assert.False(t, c.IssuedAt.IsZero())
}

func TestStore_DeleteEnrollment_Missing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM enrollments WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := store.DeleteEnrollment(context.Background(), 8)

	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, model.ErrNotFound},
		{"duplicate hash", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: certificateHashConstraint}, model.ErrDuplicateHash},
		{"other unique", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "persons_national_id_key"}, model.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: pgForeignKeyViolation}, model.ErrNotFound},
		{"check", &pgconn.PgError{Code: pgCheckViolation}, model.ErrValidation},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err, "event", 1), tt.want)
		})
	}

	t.Run("unknown passes through", func(t *testing.T) {
		boom := errors.New("boom")
		err := mapError(boom, "event", 1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, model.ErrNotFound)
	})

	assert.NoError(t, mapError(nil, "event", 1))
}
