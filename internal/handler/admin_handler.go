package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/pkg/response"
)

type checkInService interface {
	TodayCheckIns(ctx context.Context, now time.Time) (*models.CheckInList, error)
}

type exportService interface {
	Render(records []models.AttendanceRecord, today string, format service.ExportFormat) (*service.ExportFile, error)
	Publish(ctx context.Context, records []models.AttendanceRecord, today string, format service.ExportFormat) (*service.PublishedExport, error)
	Open(token string) (*service.ExportFile, error)
}

// AdminHandler serves the administrator's check-in views.
type AdminHandler struct {
	checkIns checkInService
	exports  exportService
	clock    Clock
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(checkIns checkInService, exports exportService, clock Clock) *AdminHandler {
	return &AdminHandler{checkIns: checkIns, exports: exports, clock: clock}
}

// CheckIns godoc
// @Summary Today's check-ins
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/checkins [get]
func (h *AdminHandler) CheckIns(c *gin.Context) {
	list, err := h.checkIns.TodayCheckIns(c.Request.Context(), h.clock.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Export godoc
// @Summary Download today's check-ins
// @Description Sends attendance_<today>.csv (default) or .pdf as an attachment.
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/checkins/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.checkIns.TodayCheckIns(c.Request.Context(), h.clock.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Render(list.Records, list.ClassDate, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Publish godoc
// @Summary Publish today's check-ins as a signed link
// @Tags Admin
// @Produce json
// @Param format query string false "csv or pdf"
// @Success 201 {object} response.Envelope
// @Router /admin/checkins/exports [post]
func (h *AdminHandler) Publish(c *gin.Context) {
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.checkIns.TodayCheckIns(c.Request.Context(), h.clock.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	published, err := h.exports.Publish(c.Request.Context(), list.Records, list.ClassDate, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, published)
}

// Download godoc
// @Summary Fetch a published export
// @Tags Admin
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *AdminHandler) Download(c *gin.Context) {
	file, err := h.exports.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
