package calendar

import (
	"time"

	"github.com/noah-isme/attendance-portal/internal/models"
)

// Config describes one course term.
type Config struct {
	ClassDays WeekdaySet
	TermStart time.Time
	TermEnd   time.Time
	// Location decides which calendar day "now" belongs to. Defaults to UTC.
	Location *time.Location
}

// Calendar answers session and eligibility questions for a configured term.
// It holds no mutable state and is safe for concurrent use.
type Calendar struct {
	classDays WeekdaySet
	termStart time.Time
	termEnd   time.Time
	loc       *time.Location
}

// New builds a Calendar from cfg.
func New(cfg Config) *Calendar {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{
		classDays: cfg.ClassDays,
		termStart: cfg.TermStart,
		termEnd:   cfg.TermEnd,
		loc:       loc,
	}
}

// ClassDays returns the configured weekdays.
func (c *Calendar) ClassDays() WeekdaySet { return c.classDays }

// TermEnd returns the inclusive last day of the term.
func (c *Calendar) TermEnd() time.Time { return c.termEnd }

// Today returns the ISO date of now in the calendar's location.
func (c *Calendar) Today(now time.Time) string {
	return FormatDate(now.In(c.loc))
}

// Sessions lists the class dates from the day of from through the term end.
func (c *Calendar) Sessions(from time.Time) []string {
	return BuildSessions(from.In(c.loc), c.termEnd, c.classDays)
}

// TermSessions lists every class date of the term. Without a configured start only the
// remaining sessions from now are returned.
func (c *Calendar) TermSessions(now time.Time) []string {
	if c.termStart.IsZero() {
		return c.Sessions(now)
	}
	return BuildSessions(c.termStart, c.termEnd, c.classDays)
}

// Evaluate computes the attendance view for now given the records already loaded for the caller.
func (c *Calendar) Evaluate(now time.Time, records []models.AttendanceRecord) models.Eligibility {
	local := now.In(c.loc)
	today := FormatDate(local)
	sessions := c.Sessions(local)

	result := models.Eligibility{
		Today:         today,
		IsClassDay:    IsClassDay(local, c.classDays),
		WithinTerm:    IsWithinTerm(local, c.termEnd),
		Eligible:      TodayEligible(sessions, today, c.termEnd),
		AlreadyMarked: AlreadyMarked(records, today),
	}
	result.CanMark = result.Eligible && !result.AlreadyMarked
	if len(sessions) > 0 {
		result.NextSession = sessions[0]
	}
	return result
}
