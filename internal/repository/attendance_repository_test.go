package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/models"
)

var attendanceRowColumns = []string{"id", "attendee_email", "course_code", "class_date", "status", "marked_at", "profile_owner"}

func TestAttendanceListFiltersByEmailAndCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	marked := time.Date(2025, 12, 15, 18, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(attendanceRowColumns).
		AddRow("r1", "a@x.com", "CS642", "2025-12-15", "Present", marked, "u1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, attendee_email, course_code, class_date, status, marked_at, profile_owner FROM attendance_records WHERE attendee_email = $1 AND course_code = $2 ORDER BY class_date ASC, marked_at ASC")).
		WithArgs("a@x.com", "CS642").
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), models.AttendanceFilter{AttendeeEmail: "a@x.com", CourseCode: "CS642"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-12-15", records[0].ClassDate)
	assert.Equal(t, models.AttendanceStatusPresent, records[0].Status)
	assert.Equal(t, "u1", records[0].ProfileOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceListWithoutFiltersReturnsEmptySlice(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_records ORDER BY class_date ASC")).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns))

	records, err := repo.List(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)
	require.NotNil(t, records)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceListWrapsQueryError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("FROM attendance_records").WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), models.AttendanceFilter{ClassDate: "2025-12-15"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list attendance records")
}

func TestAttendanceCreateAssignsIDAndTimestamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_records .* ON CONFLICT").WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.AttendanceRecord{AttendeeEmail: "a@x.com", CourseCode: "CS642", ClassDate: "2025-12-15", Status: models.AttendanceStatusPresent, ProfileOwner: "u1"}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.MarkedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.AttendanceRecord{AttendeeEmail: "a@x.com", ClassDate: "2025-12-15"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateRejectsUnknownStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	err := repo.Create(context.Background(), &models.AttendanceRecord{AttendeeEmail: "a@x.com", ClassDate: "2025-12-15", Status: "Late"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported status")
	assert.NoError(t, mock.ExpectationsWereMet())
}
