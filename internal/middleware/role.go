package middleware

import (
	"net/http"

	"gigmarket/internal/domain"
	"gigmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole lets through callers holding one of the roles. Admins always
// pass.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		current := domain.UserRole(role.(string))
		if current == domain.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if current == r {
				c.Next()
				return
			}
		}

		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
