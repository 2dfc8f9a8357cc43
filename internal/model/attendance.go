package model

import (
	"encoding/json"
	"fmt"
)

// Attendance is the tri-state attendance flag of an enrollment.
type Attendance int8

const (
	AttendanceUnconfirmed Attendance = iota
	AttendancePresent
	AttendanceAbsent
)

// AttendanceFromBool maps the present/absent answer to an Attendance.
func AttendanceFromBool(present bool) Attendance {
	if present {
		return AttendancePresent
	}
	return AttendanceAbsent
}

// AttendanceFromNullable maps a nullable boolean column to an Attendance.
func AttendanceFromNullable(b *bool) Attendance {
	if b == nil {
		return AttendanceUnconfirmed
	}
	return AttendanceFromBool(*b)
}

// Nullable returns the nullable boolean representation used for storage.
func (a Attendance) Nullable() *bool {
	switch a {
	case AttendancePresent:
		v := true
		return &v
	case AttendanceAbsent:
		v := false
		return &v
	default:
		return nil
	}
}

func (a Attendance) String() string {
	switch a {
	case AttendancePresent:
		return "present"
	case AttendanceAbsent:
		return "absent"
	default:
		return "unconfirmed"
	}
}

// MarshalJSON renders attendance as true, false or null.
func (a Attendance) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Nullable())
}

// UnmarshalJSON accepts true, false or null.
func (a *Attendance) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("attendance: %w", err)
	}
	*a = AttendanceFromNullable(b)
	return nil
}
