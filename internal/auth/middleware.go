package auth

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Authenticate resolves the bearer credential and stores the identity on the gin context.
func Authenticate(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var identity *models.Identity
			identity, err = resolver.Resolve(c.Request.Context(), token)
			if err == nil {
				c.Set(identityKey, identity)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"message": "Invalid or missing credentials",
			"code":    "UNAUTHENTICATED",
		})
	}
}

// RequireRoles aborts with 403 unless the authenticated identity has one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := RequireRole(IdentityFromContext(c), roles...)
		if err == nil {
			c.Next()
			return
		}

		if errors.Is(err, ErrUnauthenticated) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or missing credentials",
				"code":    "UNAUTHENTICATED",
			})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "Insufficient permissions",
			"code":    "FORBIDDEN",
		})
	}
}

// IdentityFromContext returns the identity set by Authenticate, or nil.
func IdentityFromContext(c *gin.Context) *models.Identity {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, _ := value.(*models.Identity)
	return identity
}
