// Package calendar decides which dates are class sessions and whether attendance can be
// marked on a given day. Everything here is pure: no I/O, no shared state.
package calendar

import (
	"time"

	"github.com/noah-isme/attendance-portal/internal/models"
)

// DateLayout is the ISO calendar date format used for session keys.
const DateLayout = "2006-01-02"

// BuildSessions lists every class date between from and to, both inclusive, in increasing order.
// from is taken at midnight of its own location and to at its calendar date. The walk steps by
// whole calendar days on a UTC date so DST transitions never skip or repeat a day.
func BuildSessions(from, to time.Time, classDays WeekdaySet) []string {
	sessions := make([]string, 0)
	start := dateOf(from)
	end := dateOf(to)
	if end.Before(start) || classDays.Empty() {
		return sessions
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if classDays.Contains(d.Weekday()) {
			sessions = append(sessions, d.Format(DateLayout))
		}
	}
	return sessions
}

// IsClassDay reports whether date falls on one of the class weekdays.
func IsClassDay(date time.Time, classDays WeekdaySet) bool {
	return classDays.Contains(dateOf(date).Weekday())
}

// IsWithinTerm reports whether date is on or before the term end date.
func IsWithinTerm(date, endDate time.Time) bool {
	return !dateOf(date).After(dateOf(endDate))
}

// TodayEligible reports whether today is a listed session and still inside the term.
func TodayEligible(sessions []string, today string, endDate time.Time) bool {
	day, err := ParseDate(today)
	if err != nil {
		return false
	}
	if !IsWithinTerm(day, endDate) {
		return false
	}
	for _, s := range sessions {
		if s == today {
			return true
		}
	}
	return false
}

// AlreadyMarked reports whether any record was taken on today (ISO date string equality).
func AlreadyMarked(records []models.AttendanceRecord, today string) bool {
	for _, r := range records {
		if r.ClassDate == today {
			return true
		}
	}
	return false
}

// ParseDate parses an ISO date into a UTC midnight value.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, raw)
}

// FormatDate renders the calendar date of t as seen in t's own location.
func FormatDate(t time.Time) string {
	return dateOf(t).Format(DateLayout)
}

// dateOf drops the time of day, keeping the year/month/day of t's own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
