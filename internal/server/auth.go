package server

import (
	"errors"
	"net/http"
	"strings"

	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid or expired token")
	errForbidden    = errors.New("insufficient role")
)

// AuthMiddleware verifies the bearer token and exposes the caller's id and role.
// Authentication itself lives elsewhere; this only trusts tokens signed with secret.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errMissingToken, "authentication required")
			return
		}

		claims, err := utils.ValidateToken(secret, parts[1])
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, errInvalidToken, "authentication required")
			utils.Warn("AuthMiddleware: token rejected", map[string]any{
				"request_id": utils.RequestID(c),
				"error":      err.Error(),
			})
			return
		}

		userID, _ := claims.UserID()
		c.Set(helpers.ContextUserID, userID)
		c.Set(helpers.ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets only callers with role through. Must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(helpers.ContextRole) != role {
			utils.AbortWithError(c, http.StatusForbidden, errForbidden, "access denied")
			return
		}
		c.Next()
	}
}
