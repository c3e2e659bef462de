package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/services"
)

const (
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
)

type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

type SessionValidator interface {
	GetUserSession(ctx context.Context, userID, sessionID string) (*models.UserSession, error)
}

// AuthMiddleware accepts a Bearer token, or ?token= for websocket clients,
// and requires the token's session to still exist.
func AuthMiddleware(tokens TokenValidator, sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				abortUnauthorized(c, "Invalid authorization format")
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				abortUnauthorized(c, "Authorization header required")
				return
			}
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		if _, err := sessions.GetUserSession(c.Request.Context(), claims.UserID, claims.SessionID); err != nil {
			abortUnauthorized(c, "Session expired or invalid")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextSessionID, claims.SessionID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}
