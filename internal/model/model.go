// Package model defines the core domain types for the events program.
package model

import "time"

// Person holds the identity attributes shared by students and speakers.
type Person struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	NationalID string     `json:"national_id,omitempty"`
	Contact    string     `json:"contact,omitempty"`
	Email      string     `json:"email,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
}

// Student is a person who can enroll in events. CourseIDs drive eligibility
// for course-restricted events.
type Student struct {
	Person
	CourseIDs []int64 `json:"course_ids"`
	Period    string  `json:"period,omitempty"`
}

// Speaker is a person who presents at events and signs certificates.
type Speaker struct {
	Person
	Biography string `json:"biography,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// Course is used only as an eligibility filter. Names are unique
// case-insensitively.
type Course struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Event is an enrollable activity. A nil Capacity means no seats are
// available at all.
type Event struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Location          string     `json:"location,omitempty"`
	StartsAt          *time.Time `json:"starts_at,omitempty"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`
	Categories        []string   `json:"categories,omitempty"`
	Workload          *int       `json:"workload,omitempty"`
	Capacity          *int       `json:"capacity"`
	BannerURL         string     `json:"banner_url,omitempty"`
	RequiredCourseIDs []int64    `json:"required_course_ids"`
}

// IsOpen reports whether the event admits anyone regardless of course.
func (e *Event) IsOpen() bool {
	return len(e.RequiredCourseIDs) == 0
}

// IsRestricted is the negation of IsOpen.
func (e *Event) IsRestricted() bool {
	return !e.IsOpen()
}

// Enrollment links one person to one event.
type Enrollment struct {
	ID           int64      `json:"id"`
	PersonID     int64      `json:"person_id"`
	EventID      int64      `json:"event_id"`
	RegisteredAt time.Time  `json:"registered_at"`
	Attendance   Attendance `json:"attendance"`
}

// Certificate attests that a person attended an event. Hash is unique
// system-wide.
type Certificate struct {
	ID              int64     `json:"id"`
	PersonID        int64     `json:"person_id"`
	EventID         int64     `json:"event_id"`
	SpeakerID       int64     `json:"speaker_id"`
	Hash            string    `json:"hash"`
	InstitutionName string    `json:"institution_name"`
	InstitutionID   string    `json:"institution_id,omitempty"`
	IssuedAt        time.Time `json:"issued_at"`
}

// CertificatePayload carries the caller-supplied fields for single issuance.
type CertificatePayload struct {
	Hash            string
	InstitutionName string
	InstitutionID   string
}

// HashInput is the tuple a certificate verification hash is derived from.
type HashInput struct {
	PersonID         int64
	PersonName       string
	PersonNationalID string
	EventID          int64
	EventName        string
	SpeakerID        int64
	SpeakerName      string
	InstitutionID    string
	IssuedAt         time.Time
}

// SeatAvailability summarises an event's capacity.
type SeatAvailability struct {
	EventID   int64 `json:"event_id"`
	Capacity  *int  `json:"capacity"`
	Enrolled  int   `json:"enrolled"`
	Available int   `json:"available"`
}

// EligibilityResult is the answer to "may this person register for this event".
type EligibilityResult struct {
	EventID  int64 `json:"event_id"`
	PersonID int64 `json:"person_id"`
	Open     bool  `json:"open"`
	Eligible bool  `json:"eligible"`
}
