package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

// AttendanceStatusPresent is the only status the portal ever writes.
const AttendanceStatusPresent AttendanceStatus = "Present"

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent
}

// AttendanceRecord is one check-in for one attendee on one class date.
type AttendanceRecord struct {
	ID            string           `db:"id" json:"id"`
	AttendeeEmail string           `db:"attendee_email" json:"email"`
	CourseCode    string           `db:"course_code" json:"course_code"`
	ClassDate     string           `db:"class_date" json:"class_date"`
	Status        AttendanceStatus `db:"status" json:"status"`
	MarkedAt      time.Time        `db:"marked_at" json:"marked_at"`
	ProfileOwner  string           `db:"profile_owner" json:"profile_owner"`
}

// AttendanceFilter holds equality filters; empty fields are ignored.
type AttendanceFilter struct {
	AttendeeEmail string
	CourseCode    string
	ClassDate     string
	ProfileOwner  string
}

// Eligibility is the derived attendance view for a single day.
type Eligibility struct {
	Today         string `json:"today"`
	IsClassDay    bool   `json:"is_class_day"`
	WithinTerm    bool   `json:"within_term"`
	Eligible      bool   `json:"eligible"`
	AlreadyMarked bool   `json:"already_marked"`
	CanMark       bool   `json:"can_mark"`
	NextSession   string `json:"next_session,omitempty"`
}

// AttendanceOverview is what a signed-in attendee sees on the dashboard.
type AttendanceOverview struct {
	CourseCode  string             `json:"course_code"`
	TermEnd     string             `json:"term_end"`
	ClassDays   string             `json:"class_days"`
	Eligibility Eligibility        `json:"eligibility"`
	Sessions    []string           `json:"sessions"`
	Records     []AttendanceRecord `json:"records"`
}

// SessionCalendarView lists every session of the term.
type SessionCalendarView struct {
	CourseCode string   `json:"course_code"`
	Today      string   `json:"today"`
	TermEnd    string   `json:"term_end"`
	ClassDays  string   `json:"class_days"`
	Sessions   []string `json:"sessions"`
}

// CheckInList is the admin view of a day's check-ins.
type CheckInList struct {
	CourseCode string             `json:"course_code"`
	ClassDate  string             `json:"class_date"`
	Count      int                `json:"count"`
	Records    []AttendanceRecord `json:"records"`
}
