package middleware

import (
	"net/http"
	"strings"

	"github.com/Mesh2A/digitduel/internal/security"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "user_id"

// ConnectionHeader carries the session token issued by POST /session/connect.
const ConnectionHeader = "X-Connection-ID"

// Auth validates the bearer token and stores the user id in the context.
// Websocket clients cannot set headers, so a token query parameter is
// accepted as a fallback.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		} else {
			token = c.Query("token")
		}
		if token == "" {
			abortWithCode(c, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "missing bearer token")
			return
		}

		claims, err := security.ValidateJWT(token, jwtSecret)
		if err != nil {
			abortWithCode(c, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "invalid token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// AdminAuth gates the admin surface behind a static token. An unset token
// disables the surface entirely.
func AdminAuth(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" || c.GetHeader("X-Admin-Token") != adminToken {
			abortWithCode(c, http.StatusForbidden, errors.ErrCodeForbidden, "admin access denied")
			return
		}
		c.Next()
	}
}

// UserID reads the authenticated user id set by Auth.
func UserID(c *gin.Context) uint {
	id, _ := c.Get(ContextUserID)
	userID, _ := id.(uint)
	return userID
}

// ConnectionID reads the session token header.
func ConnectionID(c *gin.Context) string {
	return c.GetHeader(ConnectionHeader)
}

func abortWithCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}
