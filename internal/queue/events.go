// Package queue publishes domain events to RabbitMQ for downstream consumers
// (notifications, reporting). Publishing is best effort: a failed publish is
// logged by the caller and never undoes the committed operation.
package queue

import "time"

// Routing keys.
const (
	RoutingEnrollmentRegistered = "enrollment.registered"
	RoutingCertificateIssued    = "certificate.issued"
)

// Event is a message that knows its routing key.
type Event interface {
	RoutingKey() string
}

// EnrollmentRegistered is emitted after a successful registration.
type EnrollmentRegistered struct {
	EnrollmentID int64     `json:"enrollment_id"`
	EventID      int64     `json:"event_id"`
	PersonID     int64     `json:"person_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (EnrollmentRegistered) RoutingKey() string { return RoutingEnrollmentRegistered }

// CertificateIssued is emitted for every certificate created, single or bulk.
type CertificateIssued struct {
	CertificateID int64     `json:"certificate_id"`
	EventID       int64     `json:"event_id"`
	PersonID      int64     `json:"person_id"`
	SpeakerID     int64     `json:"speaker_id"`
	Hash          string    `json:"hash"`
	IssuedAt      time.Time `json:"issued_at"`
}

func (CertificateIssued) RoutingKey() string { return RoutingCertificateIssued }
