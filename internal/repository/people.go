package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

var personColumns = []string{"p.id", "p.name", "p.national_id", "p.contact", "p.email", "p.birth_date"}

// GetStudent returns a student with its course affiliations, or a
// NotFoundError.
func (s *Store) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	row, err := s.queryRow(ctx, psql.
		Select(append(personColumns, "st.period")...).
		From("persons p").
		Join("students st ON st.person_id = p.id").
		Where(sq.Eq{"p.id": id}))
	if err != nil {
		return nil, err
	}

	var st model.Student
	var nationalID *string
	var birthDate *time.Time
	if err := row.Scan(&st.ID, &st.Name, &nationalID, &st.Contact, &st.Email, &birthDate, &st.Period); err != nil {
		return nil, mapError(err, "student", id)
	}
	if nationalID != nil {
		st.NationalID = *nationalID
	}
	st.BirthDate = birthDate

	courseIDs, err := s.int64Column(ctx, psql.
		Select("course_id").
		From("student_courses").
		Where(sq.Eq{"student_id": id}).
		OrderBy("course_id"))
	if err != nil {
		return nil, fmt.Errorf("student %d courses: %w", id, err)
	}
	st.CourseIDs = courseIDs

	return &st, nil
}

// GetSpeaker returns a speaker or a NotFoundError.
func (s *Store) GetSpeaker(ctx context.Context, id int64) (*model.Speaker, error) {
	row, err := s.queryRow(ctx, psql.
		Select(append(personColumns, "sp.biography", "sp.photo_url")...).
		From("persons p").
		Join("speakers sp ON sp.person_id = p.id").
		Where(sq.Eq{"p.id": id}))
	if err != nil {
		return nil, err
	}

	var sp model.Speaker
	var nationalID *string
	var birthDate *time.Time
	if err := row.Scan(&sp.ID, &sp.Name, &nationalID, &sp.Contact, &sp.Email, &birthDate, &sp.Biography, &sp.PhotoURL); err != nil {
		return nil, mapError(err, "speaker", id)
	}
	if nationalID != nil {
		sp.NationalID = *nationalID
	}
	sp.BirthDate = birthDate
	return &sp, nil
}

// GetCourse returns a course or a NotFoundError.
func (s *Store) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	row, err := s.queryRow(ctx, psql.Select("id", "name").From("courses").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	var c model.Course
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		return nil, mapError(err, "course", id)
	}
	return &c, nil
}

// int64Column runs b and collects its single int64 column.
func (s *Store) int64Column(ctx context.Context, b sq.Sqlizer) ([]int64, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
