package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"learning-backend/internal/shared/auth"
	"learning-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	usernameKey  = "username"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	staffKey     = "isStaff"
)

// Auth validates JWTs or guest headers and stores identity in context.
func Auth(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/auth/google/") {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(userIDKey, claims.Sub)
			if claims.Username != "" {
				c.Set(usernameKey, claims.Username)
			}
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
			c.Set(staffKey, claims.Staff)
			c.Set("isGuest", false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set(staffKey, false)
		c.Set("isGuest", true)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UsernameFromContext fetches the username set by the auth middleware.
func UsernameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(usernameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}

// IsStaffFromContext reports whether the authenticated caller has staff privilege.
func IsStaffFromContext(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(staffKey)
	if staff, ok := val.(bool); ok {
		return staff
	}
	return false
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
