package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-portal/internal/calendar"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/repository"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
)

// AttendanceStore is the record store for check-ins.
type AttendanceStore interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
}

// AttendanceConfig holds per-deployment attendance settings.
type AttendanceConfig struct {
	CourseCode  string
	CheckInsTTL time.Duration
}

// AttendanceService runs the check-in workflow on top of the session calendar.
type AttendanceService struct {
	calendar *calendar.Calendar
	repo     AttendanceStore
	cache    *CacheService
	metrics  *MetricsService
	config   AttendanceConfig
	logger   *zap.Logger

	// marks counts successful check-ins; a cache fill that overlaps one is dropped.
	marks atomic.Uint64
}

// NewAttendanceService wires the workflow. cache and metrics may be nil.
func NewAttendanceService(cal *calendar.Calendar, repo AttendanceStore, cache *CacheService, metrics *MetricsService, config AttendanceConfig, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{calendar: cal, repo: repo, cache: cache, metrics: metrics, config: config, logger: logger}
}

// Overview loads the caller's records and computes today's eligibility and the remaining sessions.
func (s *AttendanceService) Overview(ctx context.Context, identity models.Identity, now time.Time) (*models.AttendanceOverview, error) {
	records := s.listOrEmpty(ctx, s.ownFilter(identity), "overview")
	return &models.AttendanceOverview{
		CourseCode:  s.config.CourseCode,
		TermEnd:     calendar.FormatDate(s.calendar.TermEnd()),
		ClassDays:   s.calendar.ClassDays().String(),
		Eligibility: s.calendar.Evaluate(now, records),
		Sessions:    s.calendar.Sessions(now),
		Records:     records,
	}, nil
}

// Mark records the caller as present for today. It writes at most one record and never retries.
func (s *AttendanceService) Mark(ctx context.Context, identity models.Identity, now time.Time) (*models.AttendanceRecord, error) {
	records := s.listOrEmpty(ctx, s.ownFilter(identity), "mark")
	eligibility := s.calendar.Evaluate(now, records)

	switch {
	case !eligibility.WithinTerm:
		s.metrics.RecordAttendanceMark(MarkResultTermEnded)
		return nil, appErrors.ErrTermEnded
	case !eligibility.Eligible:
		s.metrics.RecordAttendanceMark(MarkResultNotClassDay)
		return nil, appErrors.ErrNotClassDay
	case eligibility.AlreadyMarked:
		s.metrics.RecordAttendanceMark(MarkResultAlreadyMarked)
		return nil, appErrors.ErrAlreadyMarked
	}

	record := &models.AttendanceRecord{
		AttendeeEmail: identity.Email,
		CourseCode:    s.config.CourseCode,
		ClassDate:     eligibility.Today,
		Status:        models.AttendanceStatusPresent,
		MarkedAt:      now.UTC(),
		ProfileOwner:  identity.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordAttendanceMark(MarkResultAlreadyMarked)
			return nil, appErrors.ErrAlreadyMarked
		}
		s.metrics.RecordAttendanceMark(MarkResultError)
		s.logger.Error("failed to mark attendance", zap.String("email", identity.Email), zap.String("class_date", record.ClassDate), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}

	s.metrics.RecordAttendanceMark(MarkResultMarked)
	s.marks.Add(1)
	s.cache.Invalidate(ctx, s.checkInsKey(record.ClassDate))
	s.logger.Info("attendance marked", zap.String("email", identity.Email), zap.String("class_date", record.ClassDate))
	return record, nil
}

// History returns every record of the caller for the course.
func (s *AttendanceService) History(ctx context.Context, identity models.Identity) ([]models.AttendanceRecord, error) {
	return s.listOrEmpty(ctx, s.ownFilter(identity), "history"), nil
}

// TodayCheckIns lists all check-ins for the course on today's date, served from cache when fresh.
func (s *AttendanceService) TodayCheckIns(ctx context.Context, now time.Time) (*models.CheckInList, error) {
	today := s.calendar.Today(now)
	key := s.checkInsKey(today)

	var cached models.CheckInList
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	seen := s.marks.Load()
	records, err := s.repo.List(ctx, models.AttendanceFilter{CourseCode: s.config.CourseCode, ClassDate: today})
	if err != nil {
		s.logger.Warn("failed to load check-ins", zap.String("class_date", today), zap.Error(err))
		return &models.CheckInList{CourseCode: s.config.CourseCode, ClassDate: today, Records: []models.AttendanceRecord{}}, nil
	}

	list := &models.CheckInList{
		CourseCode: s.config.CourseCode,
		ClassDate:  today,
		Count:      len(records),
		Records:    records,
	}
	s.cache.Set(ctx, key, list, s.config.CheckInsTTL)
	if s.marks.Load() != seen {
		s.cache.Invalidate(ctx, key)
	}
	return list, nil
}

// CheckInsForDate lists the course's check-ins on a given ISO date. Errors are returned as-is.
func (s *AttendanceService) CheckInsForDate(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	if _, err := calendar.ParseDate(date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", date))
	}
	records, err := s.repo.List(ctx, models.AttendanceFilter{CourseCode: s.config.CourseCode, ClassDate: date})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load check-ins")
	}
	return records, nil
}

// Calendar returns every session of the term together with today's date.
func (s *AttendanceService) Calendar(ctx context.Context, now time.Time) *models.SessionCalendarView {
	return &models.SessionCalendarView{
		CourseCode: s.config.CourseCode,
		Today:      s.calendar.Today(now),
		TermEnd:    calendar.FormatDate(s.calendar.TermEnd()),
		ClassDays:  s.calendar.ClassDays().String(),
		Sessions:   s.calendar.TermSessions(now),
	}
}

func (s *AttendanceService) ownFilter(identity models.Identity) models.AttendanceFilter {
	return models.AttendanceFilter{AttendeeEmail: identity.Email, CourseCode: s.config.CourseCode}
}

// listOrEmpty degrades a failed fetch to an empty list; the caller renders with no records.
func (s *AttendanceService) listOrEmpty(ctx context.Context, filter models.AttendanceFilter, op string) []models.AttendanceRecord {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Warn("failed to load attendance records", zap.String("op", op), zap.String("email", filter.AttendeeEmail), zap.Error(err))
		return []models.AttendanceRecord{}
	}
	if records == nil {
		return []models.AttendanceRecord{}
	}
	return records
}

func (s *AttendanceService) checkInsKey(date string) string {
	return fmt.Sprintf("checkins:%s:%s", s.config.CourseCode, date)
}
