package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-portal/internal/models"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
	"github.com/noah-isme/attendance-portal/pkg/response"
)

type directoryService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Identity, error)
	SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResponse, error)
	Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error)
	SignOut(ctx context.Context, refreshToken, userID string) error
}

// AuthHandler wires HTTP endpoints to the directory service.
type AuthHandler struct {
	directory directoryService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(directory directoryService) *AuthHandler {
	return &AuthHandler{directory: directory}
}

// Register godoc
// @Summary Create an account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	identity, err := h.directory.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, identity)
}

// SignIn godoc
// @Summary Sign in
// @Description Authenticate by email and password. Rate limited per client IP.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignInRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sign-in payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.directory.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Refresh godoc
// @Summary Refresh access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid refresh payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.directory.Refresh(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// SignOut godoc
// @Summary Sign out
// @Description Revokes the given refresh token, or every session of the caller when none is sent.
// @Tags Authentication
// @Accept json
// @Param payload body map[string]string false "Refresh token"
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sign-out payload"))
			return
		}
	}

	if err := h.directory.SignOut(c.Request.Context(), payload.RefreshToken, identity.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Current identity
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, identity)
}
