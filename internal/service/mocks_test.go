package service

import (
	"context"
	"sync"
	"time"

	_ "time/tzdata"

	"github.com/noah-isme/attendance-portal/internal/calendar"
	"github.com/noah-isme/attendance-portal/internal/models"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
)

type fakeAttendanceStore struct {
	records   []models.AttendanceRecord
	listErr   error
	createErr error
	created   []*models.AttendanceRecord
	filters   []models.AttendanceFilter
	// afterList runs once the result is built, before List returns.
	afterList func()
}

func (f *fakeAttendanceStore) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.AttendanceRecord, 0)
	for _, r := range f.records {
		if filter.AttendeeEmail != "" && r.AttendeeEmail != filter.AttendeeEmail {
			continue
		}
		if filter.CourseCode != "" && r.CourseCode != filter.CourseCode {
			continue
		}
		if filter.ClassDate != "" && r.ClassDate != filter.ClassDate {
			continue
		}
		out = append(out, r)
	}
	if hook := f.afterList; hook != nil {
		f.afterList = nil
		hook()
	}
	return out, nil
}

func (f *fakeAttendanceStore) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, record)
	f.records = append(f.records, *record)
	return nil
}

// memoryCache keeps check-in lists in memory instead of Redis.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]models.CheckInList
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]models.CheckInList{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*models.CheckInList)) = v
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = *(value.(*models.CheckInList))
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func testCalendar() *calendar.Calendar {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
	return calendar.New(calendar.Config{
		ClassDays: calendar.NewWeekdaySet(time.Monday, time.Wednesday),
		TermStart: time.Date(2025, 12, 1, 0, 0, 0, 0, loc),
		TermEnd:   time.Date(2025, 12, 17, 0, 0, 0, 0, loc),
		Location:  loc,
	})
}

// Noon in Los Angeles on the given December 2025 day.
func decemberNoon(day int) time.Time {
	return time.Date(2025, 12, day, 20, 0, 0, 0, time.UTC)
}
