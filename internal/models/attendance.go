package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// Correction reports whether the status may be set through the correction
// endpoint. Present is only reachable through check-in.
func (s AttendanceStatus) Correction() bool {
	return s == AttendanceStatusAbsent || s == AttendanceStatusExcused
}

// Attendance is one row per (subject, date), where the subject is either a
// student or an employee depending on the backing table. The pair is unique;
// check-in upserts against that constraint, so concurrent check-ins resolve
// last-write-wins in Postgres.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	SubjectID string           `db:"subject_id" json:"subject_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CheckIn   *time.Time       `db:"check_in" json:"check_in,omitempty"`
	CheckOut  *time.Time       `db:"check_out" json:"check_out,omitempty"`
	Notes     *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord extends a row with the subject's display name.
type AttendanceRecord struct {
	Attendance
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// AttendanceFilter scopes attendance listings.
type AttendanceFilter struct {
	SubjectID string
	Status    *AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AttendanceSummary aggregates per-status counts for a subject.
type AttendanceSummary struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Excused int     `json:"excused"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}
