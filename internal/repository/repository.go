// Package repository implements the Catalog Store: persistence for students,
// speakers, courses, events, enrollments and certificates. It uses pgx
// directly with squirrel-built SQL (no ORM). An in-memory implementation with
// the same method set lives in memory.go.
package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/database"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	enrollmentPairConstraint = "enrollments_person_event_key"
	certificateHashConstraint = "certificates_hash_key"
)

// Catalog is the full Catalog Store contract shared by Store and Memory.
type Catalog interface {
	GetStudent(ctx context.Context, id int64) (*model.Student, error)
	GetSpeaker(ctx context.Context, id int64) (*model.Speaker, error)
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	LockEvent(ctx context.Context, id int64) (*model.Event, error)

	FindEnrollment(ctx context.Context, personID, eventID int64) (*model.Enrollment, error)
	GetEnrollment(ctx context.Context, id int64) (*model.Enrollment, error)
	CountEnrollmentsByEvent(ctx context.Context, eventID int64) (int, error)
	ListEnrollmentsByEvent(ctx context.Context, eventID int64, attendance *model.Attendance) ([]model.Enrollment, error)
	ListEnrollmentsByPerson(ctx context.Context, personID int64) ([]model.Enrollment, error)
	SaveEnrollment(ctx context.Context, e model.Enrollment) (*model.Enrollment, error)
	SetAttendance(ctx context.Context, id int64, attendance model.Attendance) (*model.Enrollment, error)
	DeleteEnrollment(ctx context.Context, id int64) error

	ListCertificatesByPerson(ctx context.Context, personID int64) ([]model.Certificate, error)
	ListCertificatesByEvent(ctx context.Context, eventID int64) ([]model.Certificate, error)
	ListCertificates(ctx context.Context) ([]model.Certificate, error)
	SaveCertificate(ctx context.Context, c model.Certificate) (*model.Certificate, error)
	FindCertificateByHash(ctx context.Context, hash string) (*model.Certificate, error)
	DeleteCertificate(ctx context.Context, id int64) error
}

var (
	_ Catalog = (*Store)(nil)
	_ Catalog = (*Memory)(nil)
)

// psql builds PostgreSQL ($1, $2, ...) placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store is the PostgreSQL Catalog Store. Every method runs on the
// transaction carried by ctx when there is one.
type Store struct {
	db database.DB
}

// NewStore constructs a Store.
func NewStore(db database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) q(ctx context.Context) database.Querier {
	return database.QuerierFromCtx(ctx, s.db)
}

// queryRow renders b and runs it as a single-row query.
func (s *Store) queryRow(ctx context.Context, b sq.Sqlizer) (pgx.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.q(ctx).QueryRow(ctx, query, args...), nil
}

// query renders b and runs it.
func (s *Store) query(ctx context.Context, b sq.Sqlizer) (pgx.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.q(ctx).Query(ctx, query, args...)
}

// exec renders b and executes it, returning the affected row count.
func (s *Store) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := s.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// mapError converts pgx/pgconn errors to model errors.
// context.DeadlineExceeded and context.Canceled pass through.
func mapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return model.NewNotFound(entity, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case enrollmentPairConstraint:
				return model.ErrAlreadyEnrolled
			case certificateHashConstraint:
				return model.ErrDuplicateHash
			}
			return fmt.Errorf("%s %v: %w", entity, id, model.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s %v: referenced record: %w", entity, id, model.ErrNotFound)
		case pgCheckViolation:
			return fmt.Errorf("%s %v: %w", entity, id, model.ErrValidation)
		}
	}

	return fmt.Errorf("%s %v: %w", entity, id, err)
}
