package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

var eventColumns = []string{
	"id", "name", "description", "location", "starts_at", "ends_at",
	"categories", "workload", "capacity", "banner_url",
}

// GetEvent returns an event with its required course IDs, or a NotFoundError.
func (s *Store) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	return s.getEvent(ctx, psql.Select(eventColumns...).From("events").Where(sq.Eq{"id": id}), id)
}

// LockEvent loads an event and holds its row lock until the surrounding
// transaction ends. Registrations and bulk issuance for the same event
// serialise on it.
func (s *Store) LockEvent(ctx context.Context, id int64) (*model.Event, error) {
	return s.getEvent(ctx, psql.Select(eventColumns...).From("events").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"), id)
}

func (s *Store) getEvent(ctx context.Context, b sq.SelectBuilder, id int64) (*model.Event, error) {
	row, err := s.queryRow(ctx, b)
	if err != nil {
		return nil, err
	}

	var (
		e        model.Event
		workload *int32
		capacity *int32
	)
	err = row.Scan(&e.ID, &e.Name, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt,
		&e.Categories, &workload, &capacity, &e.BannerURL)
	if err != nil {
		return nil, mapError(err, "event", id)
	}
	e.Workload = intPtr(workload)
	e.Capacity = intPtr(capacity)

	courseIDs, err := s.int64Column(ctx, psql.
		Select("course_id").
		From("event_courses").
		Where(sq.Eq{"event_id": id}).
		OrderBy("position", "course_id"))
	if err != nil {
		return nil, fmt.Errorf("event %d courses: %w", id, err)
	}
	e.RequiredCourseIDs = courseIDs

	return &e, nil
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
