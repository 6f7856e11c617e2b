package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lalith-99/teamup/internal/auth"
)

// Context keys for the resolved identity. Constants so handlers and the
// middleware can't drift apart on a typo.
const (
	ContextKeyUserID     = "user_id"
	ContextKeyUserName   = "user_name"
	ContextKeyEmployeeID = "employee_id"
	ContextKeyRole       = "role"
)

// AuthMiddleware validates the bearer token and stores the resolved
// user identity in the gin context. Requests without a valid token are
// rejected with 401 before any handler runs.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":      false,
				"message": "missing or malformed authorization header",
			})
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":      false,
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserName, claims.Name)
		c.Set(ContextKeyEmployeeID, claims.EmployeeID)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// AdminMiddleware validates an admin bearer token.
func AdminMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":      false,
				"message": "missing or malformed authorization header",
			})
			return
		}

		if _, err := auth.ParseAdminToken(tokenString, secret); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":      false,
				"message": "invalid or expired admin token",
			})
			return
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func GetUserName(c *gin.Context) string {
	return getString(c, ContextKeyUserName)
}

func GetEmployeeID(c *gin.Context) string {
	return getString(c, ContextKeyEmployeeID)
}

func GetRole(c *gin.Context) string {
	return getString(c, ContextKeyRole)
}

func getString(c *gin.Context, key string) string {
	val, exists := c.Get(key)
	if !exists {
		return ""
	}
	s, ok := val.(string)
	if !ok {
		return ""
	}
	return s
}
