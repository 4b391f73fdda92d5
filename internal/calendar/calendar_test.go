package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/models"
)

var monWed = NewWeekdaySet(time.Monday, time.Wednesday)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildSessionsMondayToWednesday(t *testing.T) {
	sessions := BuildSessions(day(2025, 12, 15), day(2025, 12, 17), monWed)
	assert.Equal(t, []string{"2025-12-15", "2025-12-17"}, sessions)
}

func TestBuildSessionsNormalisesTimeOfDay(t *testing.T) {
	from := time.Date(2025, 12, 15, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, 12, 17, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, []string{"2025-12-15", "2025-12-17"}, BuildSessions(from, to, monWed))
}

func TestBuildSessionsEmptyWhenRangeInverted(t *testing.T) {
	sessions := BuildSessions(day(2025, 12, 17), day(2025, 12, 15), monWed)
	require.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestBuildSessionsEmptyWhenNoWeekdayMatches(t *testing.T) {
	// Thursday through Sunday.
	assert.Empty(t, BuildSessions(day(2025, 12, 18), day(2025, 12, 21), monWed))
	assert.Empty(t, BuildSessions(day(2025, 12, 15), day(2025, 12, 20), WeekdaySet(0)))
}

func TestBuildSessionsOrderedMatchingAndIdempotent(t *testing.T) {
	from, to := day(2025, 8, 25), day(2026, 2, 28)
	first := BuildSessions(from, to, monWed)
	second := BuildSessions(from, to, monWed)
	require.Equal(t, first, second)
	require.NotEmpty(t, first)

	var prev time.Time
	for i, s := range first {
		d, err := ParseDate(s)
		require.NoError(t, err)
		assert.True(t, monWed.Contains(d.Weekday()), "%s is not a class day", s)
		if i > 0 {
			assert.True(t, d.After(prev), "%s does not follow %s", s, prev.Format(DateLayout))
		}
		prev = d
	}

	// Every matching date in range is present.
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if monWed.Contains(d.Weekday()) {
			count++
		}
	}
	assert.Len(t, first, count)
}

func TestBuildSessionsAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	everyDay := NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday)

	// Fall back on 2025-11-02, spring forward on 2026-03-08.
	fall := BuildSessions(time.Date(2025, 11, 1, 0, 0, 0, 0, loc), time.Date(2025, 11, 3, 0, 0, 0, 0, loc), everyDay)
	assert.Equal(t, []string{"2025-11-01", "2025-11-02", "2025-11-03"}, fall)

	spring := BuildSessions(time.Date(2026, 3, 7, 0, 0, 0, 0, loc), time.Date(2026, 3, 9, 0, 0, 0, 0, loc), everyDay)
	assert.Equal(t, []string{"2026-03-07", "2026-03-08", "2026-03-09"}, spring)
}

func TestBuildSessionsAcrossYearRollover(t *testing.T) {
	sessions := BuildSessions(day(2025, 12, 29), day(2026, 1, 7), monWed)
	assert.Equal(t, []string{"2025-12-29", "2025-12-31", "2026-01-05", "2026-01-07"}, sessions)
}

func TestIsClassDay(t *testing.T) {
	assert.True(t, IsClassDay(day(2025, 12, 15), monWed))
	assert.False(t, IsClassDay(day(2025, 12, 16), monWed))
	assert.True(t, IsClassDay(day(2025, 12, 17), monWed))
}

func TestIsWithinTermInclusive(t *testing.T) {
	end := day(2025, 12, 17)
	assert.True(t, IsWithinTerm(day(2025, 12, 17), end))
	assert.True(t, IsWithinTerm(time.Date(2025, 12, 17, 23, 59, 59, 0, time.UTC), end))
	assert.True(t, IsWithinTerm(day(2025, 12, 1), end))
	assert.False(t, IsWithinTerm(day(2025, 12, 18), end))
}

func TestTodayEligible(t *testing.T) {
	end := day(2025, 12, 17)
	sessions := BuildSessions(day(2025, 12, 1), end, monWed)

	assert.True(t, TodayEligible(sessions, "2025-12-17", end))
	assert.False(t, TodayEligible(sessions, "2025-12-16", end))
	assert.False(t, TodayEligible(sessions, "not-a-date", end))

	// Listed but after term end.
	assert.False(t, TodayEligible([]string{"2025-12-22"}, "2025-12-22", end))
}

func TestTodayEligibleAcrossYearRollover(t *testing.T) {
	end := day(2026, 1, 2)
	sessions := BuildSessions(day(2025, 12, 31), end, NewWeekdaySet(time.Wednesday, time.Friday))
	require.Equal(t, []string{"2025-12-31", "2026-01-02"}, sessions)

	assert.True(t, TodayEligible(sessions, "2025-12-31", end))
	assert.True(t, TodayEligible(sessions, "2026-01-02", end))
	assert.False(t, TodayEligible(sessions, "2026-01-07", end))
}

func TestAlreadyMarked(t *testing.T) {
	records := []models.AttendanceRecord{{ClassDate: "2025-12-15", Status: models.AttendanceStatusPresent}}
	assert.True(t, AlreadyMarked(records, "2025-12-15"))
	assert.False(t, AlreadyMarked(records, "2025-12-17"))
	assert.False(t, AlreadyMarked(nil, "2025-12-15"))
	assert.False(t, AlreadyMarked(records, "2025-12-15T00:00:00Z"))
}
