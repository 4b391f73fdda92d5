package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-portal/internal/models"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
	"github.com/noah-isme/attendance-portal/pkg/logger"
	"github.com/noah-isme/attendance-portal/pkg/response"
)

// ContextUserKey is the gin context key storing the caller's models.Identity.
const ContextUserKey = "currentUser"

// TokenValidator parses access tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.Claims, error)
}

// AdminChecker decides whether an email is an administrator.
type AdminChecker interface {
	IsAdmin(email string) bool
}

// JWT protects routes by requiring a valid bearer token.
func JWT(tokens TokenValidator, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		identity := claims.Identity()
		if admins != nil {
			identity.IsAdmin = admins.IsAdmin(identity.Email)
		}
		c.Set(ContextUserKey, identity)
		c.Set(logger.IdentityKey, identity.Email)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by JWT.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}
