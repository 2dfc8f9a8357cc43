package model

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by the engine wraps exactly one of these
// so callers can branch with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrRejected   = errors.New("rejected")
	ErrFatal      = errors.New("fatal")
	ErrValidation = errors.New("validation error")
)

// Specific failures.
var (
	ErrAlreadyEnrolled      = fmt.Errorf("%w: person already enrolled in this event", ErrConflict)
	ErrDuplicateHash        = fmt.Errorf("%w: certificate hash already issued", ErrConflict)
	ErrNoSeats              = fmt.Errorf("%w: event has no available seats", ErrRejected)
	ErrIneligible           = fmt.Errorf("%w: person does not meet the event's course criteria", ErrRejected)
	ErrNoConfirmedAttendees = fmt.Errorf("%w: no attendees with confirmed presence for this event", ErrRejected)
	ErrHashUnavailable      = fmt.Errorf("%w: SHA-256 is not available", ErrFatal)
)

// NotFoundError names the entity that could not be resolved.
type NotFoundError struct {
	Entity string
	ID     any
}

// NewNotFound creates a NotFoundError.
func NewNotFound(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v: not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}
