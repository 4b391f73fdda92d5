package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/pkg/response"
)

type attendanceService interface {
	Overview(ctx context.Context, identity models.Identity, now time.Time) (*models.AttendanceOverview, error)
	Mark(ctx context.Context, identity models.Identity, now time.Time) (*models.AttendanceRecord, error)
	History(ctx context.Context, identity models.Identity) ([]models.AttendanceRecord, error)
	Calendar(ctx context.Context, now time.Time) *models.SessionCalendarView
}

// AttendanceHandler serves the attendee side of the portal.
type AttendanceHandler struct {
	attendance attendanceService
	clock      Clock
}

// NewAttendanceHandler constructs the handler. A nil clock uses time.Now.
func NewAttendanceHandler(attendance attendanceService, clock Clock) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, clock: clock}
}

// Overview godoc
// @Summary Attendance overview
// @Description Today's eligibility, the remaining sessions of the term and the caller's records.
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Overview(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	overview, err := h.attendance.Overview(c.Request.Context(), identity, h.clock.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview)
}

// Mark godoc
// @Summary Mark attendance for today
// @Tags Attendance
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "already marked"
// @Failure 422 {object} response.Envelope "not a class day or term ended"
// @Failure 500 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), identity, h.clock.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// History godoc
// @Summary Attendance history
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	records, err := h.attendance.History(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"count": len(records)})
}

// Calendar godoc
// @Summary Term session calendar
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calendar [get]
func (h *AttendanceHandler) Calendar(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.attendance.Calendar(c.Request.Context(), h.clock.now()))
}
