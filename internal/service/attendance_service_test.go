package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/repository"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
)

var alice = models.Identity{UserID: "u-alice", Email: "alice@x.com", Username: "Alice"}

func newAttendanceService(store *fakeAttendanceStore, cache *CacheService) *AttendanceService {
	return NewAttendanceService(testCalendar(), store, cache, NewMetricsService(), AttendanceConfig{CourseCode: "CS642"}, nil)
}

func TestOverviewEligibleDay(t *testing.T) {
	svc := newAttendanceService(&fakeAttendanceStore{}, nil)

	overview, err := svc.Overview(context.Background(), alice, decemberNoon(15))
	require.NoError(t, err)
	assert.Equal(t, "CS642", overview.CourseCode)
	assert.Equal(t, "2025-12-17", overview.TermEnd)
	assert.Equal(t, "MON,WED", overview.ClassDays)
	assert.Equal(t, []string{"2025-12-15", "2025-12-17"}, overview.Sessions)
	assert.True(t, overview.Eligibility.CanMark)
	assert.Empty(t, overview.Records)
}

func TestOverviewFetchFailureFallsBackToEmpty(t *testing.T) {
	store := &fakeAttendanceStore{listErr: errors.New("timeout")}
	svc := newAttendanceService(store, nil)

	overview, err := svc.Overview(context.Background(), alice, decemberNoon(15))
	require.NoError(t, err)
	require.NotNil(t, overview.Records)
	assert.Empty(t, overview.Records)
	assert.False(t, overview.Eligibility.AlreadyMarked)
}

func TestMarkWritesOnePresentRecord(t *testing.T) {
	store := &fakeAttendanceStore{}
	svc := newAttendanceService(store, nil)
	now := decemberNoon(15)

	record, err := svc.Mark(context.Background(), alice, now)
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, "alice@x.com", record.AttendeeEmail)
	assert.Equal(t, "CS642", record.CourseCode)
	assert.Equal(t, "2025-12-15", record.ClassDate)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)
	assert.Equal(t, "u-alice", record.ProfileOwner)
	assert.True(t, record.MarkedAt.Equal(now))
}

func TestMarkTwiceIsRefused(t *testing.T) {
	store := &fakeAttendanceStore{}
	svc := newAttendanceService(store, nil)

	_, err := svc.Mark(context.Background(), alice, decemberNoon(15))
	require.NoError(t, err)

	_, err = svc.Mark(context.Background(), alice, decemberNoon(15))
	assert.ErrorIs(t, err, appErrors.ErrAlreadyMarked)
	assert.Len(t, store.created, 1)
}

func TestMarkRefusedOffDayAndAfterTerm(t *testing.T) {
	store := &fakeAttendanceStore{}
	svc := newAttendanceService(store, nil)

	_, err := svc.Mark(context.Background(), alice, decemberNoon(16))
	assert.ErrorIs(t, err, appErrors.ErrNotClassDay)

	_, err = svc.Mark(context.Background(), alice, decemberNoon(22))
	assert.ErrorIs(t, err, appErrors.ErrTermEnded)
	assert.Empty(t, store.created)
}

func TestMarkConcurrentDuplicateMapsToAlreadyMarked(t *testing.T) {
	store := &fakeAttendanceStore{createErr: repository.ErrDuplicate}
	svc := newAttendanceService(store, nil)

	_, err := svc.Mark(context.Background(), alice, decemberNoon(17))
	assert.ErrorIs(t, err, appErrors.ErrAlreadyMarked)
}

func TestMarkWriteFailureIsInternalAndNotRetried(t *testing.T) {
	store := &fakeAttendanceStore{createErr: errors.New("write refused")}
	svc := newAttendanceService(store, nil)

	_, err := svc.Mark(context.Background(), alice, decemberNoon(17))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, "failed to mark attendance", appErr.Message)
	assert.Empty(t, store.created)
}

func TestTodayCheckInsCachesAndInvalidatesOnMark(t *testing.T) {
	store := &fakeAttendanceStore{}
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, 0, nil, true)
	svc := newAttendanceService(store, cache)
	ctx := context.Background()
	now := decemberNoon(15)

	first, err := svc.TodayCheckIns(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Count)
	assert.Len(t, store.filters, 1)

	_, err = svc.TodayCheckIns(ctx, now)
	require.NoError(t, err)
	assert.Len(t, store.filters, 1, "second read should be served from cache")

	_, err = svc.Mark(ctx, alice, now)
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, "checkins:CS642:2025-12-15")

	after, err := svc.TodayCheckIns(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Count)
	assert.Equal(t, "alice@x.com", after.Records[0].AttendeeEmail)
}

func TestTodayCheckInsDropsFillThatOverlapsMark(t *testing.T) {
	store := &fakeAttendanceStore{}
	repo := newMemoryCache()
	svc := newAttendanceService(store, NewCacheService(repo, nil, 0, nil, true))
	ctx := context.Background()
	now := decemberNoon(15)

	store.afterList = func() {
		_, err := svc.Mark(ctx, alice, now)
		require.NoError(t, err)
	}
	stale, err := svc.TodayCheckIns(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, stale.Count)

	fresh, err := svc.TodayCheckIns(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Count)
	assert.Equal(t, "alice@x.com", fresh.Records[0].AttendeeEmail)
}

func TestTodayCheckInsFetchFailureIsEmpty(t *testing.T) {
	svc := newAttendanceService(&fakeAttendanceStore{listErr: errors.New("down")}, nil)

	list, err := svc.TodayCheckIns(context.Background(), decemberNoon(15))
	require.NoError(t, err)
	assert.Equal(t, "2025-12-15", list.ClassDate)
	assert.NotNil(t, list.Records)
	assert.Zero(t, list.Count)
}

func TestCheckInsForDate(t *testing.T) {
	store := &fakeAttendanceStore{records: []models.AttendanceRecord{
		{AttendeeEmail: "a@x.com", CourseCode: "CS642", ClassDate: "2025-12-15"},
		{AttendeeEmail: "b@x.com", CourseCode: "CS642", ClassDate: "2025-12-17"},
	}}
	svc := newAttendanceService(store, nil)

	records, err := svc.CheckInsForDate(context.Background(), "2025-12-15")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a@x.com", records[0].AttendeeEmail)

	_, err = svc.CheckInsForDate(context.Background(), "15/12/2025")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarListsWholeTerm(t *testing.T) {
	svc := newAttendanceService(&fakeAttendanceStore{}, nil)

	view := svc.Calendar(context.Background(), decemberNoon(16))
	assert.Equal(t, "2025-12-16", view.Today)
	assert.Equal(t, []string{"2025-12-01", "2025-12-03", "2025-12-08", "2025-12-10", "2025-12-15", "2025-12-17"}, view.Sessions)
}
