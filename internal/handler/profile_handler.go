package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/pkg/response"
)

type profileService interface {
	List(ctx context.Context, identity models.Identity) []models.UserProfile
}

type tipService interface {
	Random(ctx context.Context) models.Tip
}

// ProfileHandler lists profile records and serves the tip widget.
type ProfileHandler struct {
	profiles profileService
	tips     tipService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(profiles profileService, tips tipService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, tips: tips}
}

// List godoc
// @Summary Caller's profile records
// @Tags Profiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.profiles.List(c.Request.Context(), identity))
}

// Tip godoc
// @Summary Random cloud tip
// @Tags Profiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tips [get]
func (h *ProfileHandler) Tip(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.tips.Random(c.Request.Context()))
}
