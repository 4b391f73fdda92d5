package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeekdaySet is the set of weekdays on which a class meets.
//
// Indices follow time.Weekday: 0=Sunday, 1=Monday, ... 6=Saturday. This is not ISO-8601
// numbering (where Monday is 1 and Sunday is 7), so a configured "0" always means Sunday.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var set WeekdaySet
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			continue
		}
		set |= 1 << uint(d)
	}
	return set
}

// Contains reports whether d is a class day.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

// Days returns the members in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Empty reports whether no weekday is set.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

func (s WeekdaySet) String() string {
	days := s.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = strings.ToUpper(d.String()[:3])
	}
	return strings.Join(names, ",")
}

var weekdayNames = map[string]time.Weekday{
	"SUN": time.Sunday, "SUNDAY": time.Sunday,
	"MON": time.Monday, "MONDAY": time.Monday,
	"TUE": time.Tuesday, "TUESDAY": time.Tuesday,
	"WED": time.Wednesday, "WEDNESDAY": time.Wednesday,
	"THU": time.Thursday, "THURSDAY": time.Thursday,
	"FRI": time.Friday, "FRIDAY": time.Friday,
	"SAT": time.Saturday, "SATURDAY": time.Saturday,
}

// ParseWeekdays reads a comma separated list of weekday indices (0=Sunday..6=Saturday)
// or English names/abbreviations, e.g. "1,3" or "MON,WED".
func ParseWeekdays(raw string) (WeekdaySet, error) {
	parts := strings.Split(raw, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		token := strings.ToUpper(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		if n, err := strconv.Atoi(token); err == nil {
			if n < 0 || n > 6 {
				return 0, fmt.Errorf("weekday index %d out of range 0-6", n)
			}
			days = append(days, time.Weekday(n))
			continue
		}
		d, ok := weekdayNames[token]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0, fmt.Errorf("at least one class day is required")
	}
	return NewWeekdaySet(days...), nil
}
