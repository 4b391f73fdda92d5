package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-portal/internal/models"
)

const attendanceColumns = `id, attendee_email, course_code, class_date, status, marked_at, profile_owner`

// AttendanceRepository stores check-ins in PostgreSQL.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns records matching every non-empty filter field, oldest class date first.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	var conditions []string
	var args []interface{}

	if filter.AttendeeEmail != "" {
		conditions = append(conditions, fmt.Sprintf("attendee_email = $%d", len(args)+1))
		args = append(args, filter.AttendeeEmail)
	}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.ClassDate != "" {
		conditions = append(conditions, fmt.Sprintf("class_date = $%d", len(args)+1))
		args = append(args, filter.ClassDate)
	}
	if filter.ProfileOwner != "" {
		conditions = append(conditions, fmt.Sprintf("profile_owner = $%d", len(args)+1))
		args = append(args, filter.ProfileOwner)
	}

	query := "SELECT " + attendanceColumns + " FROM attendance_records"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY class_date ASC, marked_at ASC"

	records := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// Create inserts a single record. A second check-in for the same attendee, course and date
// returns ErrDuplicate.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.MarkedAt.IsZero() {
		record.MarkedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = models.AttendanceStatusPresent
	}
	if !record.Status.Valid() {
		return fmt.Errorf("create attendance record: unsupported status %q", record.Status)
	}

	const query = `INSERT INTO attendance_records (` + attendanceColumns + `)
VALUES (:id, :attendee_email, :course_code, :class_date, :status, :marked_at, :profile_owner)
ON CONFLICT (attendee_email, course_code, class_date) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}
	if affected == 0 {
		return ErrDuplicate
	}
	return nil
}
