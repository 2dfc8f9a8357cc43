package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

var certificateColumns = []string{
	"id", "person_id", "event_id", "speaker_id", "hash", "institution_name", "institution_id", "issued_at",
}

func scanCertificate(row pgx.Row) (*model.Certificate, error) {
	var c model.Certificate
	err := row.Scan(&c.ID, &c.PersonID, &c.EventID, &c.SpeakerID, &c.Hash,
		&c.InstitutionName, &c.InstitutionID, &c.IssuedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) listCertificates(ctx context.Context, b sq.SelectBuilder) ([]model.Certificate, error) {
	rows, err := s.query(ctx, b.OrderBy("issued_at", "id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Certificate{}
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ListCertificatesByPerson lists the certificates held by a person.
func (s *Store) ListCertificatesByPerson(ctx context.Context, personID int64) ([]model.Certificate, error) {
	out, err := s.listCertificates(ctx, psql.Select(certificateColumns...).From("certificates").
		Where(sq.Eq{"person_id": personID}))
	if err != nil {
		return nil, mapError(err, "person", personID)
	}
	return out, nil
}

// ListCertificatesByEvent lists the certificates issued for an event.
func (s *Store) ListCertificatesByEvent(ctx context.Context, eventID int64) ([]model.Certificate, error) {
	out, err := s.listCertificates(ctx, psql.Select(certificateColumns...).From("certificates").
		Where(sq.Eq{"event_id": eventID}))
	if err != nil {
		return nil, mapError(err, "event", eventID)
	}
	return out, nil
}

// ListCertificates lists every certificate.
func (s *Store) ListCertificates(ctx context.Context) ([]model.Certificate, error) {
	out, err := s.listCertificates(ctx, psql.Select(certificateColumns...).From("certificates"))
	if err != nil {
		return nil, mapError(err, "certificates", "all")
	}
	return out, nil
}

// SaveCertificate inserts a certificate. A hash collision yields
// model.ErrDuplicateHash.
func (s *Store) SaveCertificate(ctx context.Context, c model.Certificate) (*model.Certificate, error) {
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	row, err := s.queryRow(ctx, psql.
		Insert("certificates").
		Columns("person_id", "event_id", "speaker_id", "hash", "institution_name", "institution_id", "issued_at").
		Values(c.PersonID, c.EventID, c.SpeakerID, c.Hash, c.InstitutionName, c.InstitutionID, c.IssuedAt).
		Suffix("RETURNING id"))
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&c.ID); err != nil {
		return nil, mapError(err, "certificate", c.Hash)
	}
	return &c, nil
}

// FindCertificateByHash resolves a certificate from its verification hash.
func (s *Store) FindCertificateByHash(ctx context.Context, hash string) (*model.Certificate, error) {
	row, err := s.queryRow(ctx, psql.Select(certificateColumns...).From("certificates").
		Where(sq.Eq{"hash": hash}))
	if err != nil {
		return nil, err
	}
	c, err := scanCertificate(row)
	if err != nil {
		return nil, mapError(err, "certificate", hash)
	}
	return c, nil
}

// DeleteCertificate removes a certificate.
func (s *Store) DeleteCertificate(ctx context.Context, id int64) error {
	n, err := s.exec(ctx, psql.Delete("certificates").Where(sq.Eq{"id": id}))
	if err != nil {
		return mapError(err, "certificate", id)
	}
	if n == 0 {
		return model.NewNotFound("certificate", id)
	}
	return nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
