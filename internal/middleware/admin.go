package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
	"github.com/noah-isme/attendance-portal/pkg/response"
)

// RequireAdmin lets through only identities on the admin allow-list. Must run after JWT.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !identity.IsAdmin {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
