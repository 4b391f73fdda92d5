package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/models"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
	"github.com/noah-isme/attendance-portal/pkg/response"
)

// Clock returns the current instant; handlers take one so tests can pin "today".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// identityOrAbort returns the caller or writes 401 and returns false.
func identityOrAbort(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Identity{}, false
	}
	return identity, true
}
