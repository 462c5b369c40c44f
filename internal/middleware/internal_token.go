package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"gigmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// InternalTokenAuth protects internal endpoints using a static bearer token.
func InternalTokenAuth(expected string, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		if expected == "" {
			logAuthFailure(c, logger, http.StatusForbidden, "token_not_configured")
			response.CustomError(c, http.StatusForbidden, "AUTH_INVALID", "Internal endpoints are disabled")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logAuthFailure(c, logger, http.StatusUnauthorized, "missing_auth")
			response.CustomError(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logAuthFailure(c, logger, http.StatusUnauthorized, "invalid_auth_format")
			response.CustomError(c, http.StatusUnauthorized, "AUTH_INVALID", "Authorization header must be 'Bearer <token>'")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
			logAuthFailure(c, logger, http.StatusForbidden, "invalid_token")
			response.CustomError(c, http.StatusForbidden, "AUTH_INVALID", "Invalid internal token")
			return
		}

		c.Next()
	}
}

func logAuthFailure(c *gin.Context, logger *slog.Logger, status int, reason string) {
	logger.Warn("internal auth failed",
		"status", status,
		"request_id", RequestIDFrom(c),
		"client_ip", c.ClientIP(),
		"reason", reason,
	)
}
