package model

// RegisterRequest is the payload for enrolling a person in an event.
type RegisterRequest struct {
	PersonID int64 `json:"person_id" validate:"required,gt=0"`
}

// AttendanceRequest is the payload for recording attendance.
type AttendanceRequest struct {
	Present *bool `json:"present" validate:"required"`
}

// IssueCertificateRequest is the payload for single certificate issuance.
type IssueCertificateRequest struct {
	PersonID        int64  `json:"person_id"        validate:"required,gt=0"`
	EventID         int64  `json:"event_id"         validate:"required,gt=0"`
	SpeakerID       int64  `json:"speaker_id"       validate:"required,gt=0"`
	Hash            string `json:"hash"             validate:"required,certhash"`
	InstitutionName string `json:"institution_name" validate:"required,max=200"`
	InstitutionID   string `json:"institution_id"   validate:"max=100"`
}

// BulkIssueRequest is the payload for issuing certificates to every
// confirmed attendee of an event.
type BulkIssueRequest struct {
	SpeakerID       int64  `json:"speaker_id"       validate:"required,gt=0"`
	InstitutionName string `json:"institution_name" validate:"required,max=200"`
	InstitutionID   string `json:"institution_id"   validate:"max=100"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}
