// internal/middleware/helpers.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"volante-service/internal/pkg/token"
)

// GetUserID gets the authenticated user id from context
func GetUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := value.(int64)
	return id, ok
}

// GetTokenID gets the current token identifier from context
func GetTokenID(c *gin.Context) (string, bool) {
	value, exists := c.Get("token_id")
	if !exists {
		return "", false
	}

	tokenID, ok := value.(string)
	return tokenID, ok
}

// GetSessionID gets the current session row id from context
func GetSessionID(c *gin.Context) (int64, bool) {
	value, exists := c.Get("session_id")
	if !exists {
		return 0, false
	}

	id, ok := value.(int64)
	return id, ok
}

// GetRole gets the authenticated role from context
func GetRole(c *gin.Context) (token.Role, bool) {
	value, exists := c.Get("role")
	if !exists {
		return "", false
	}

	role, ok := value.(token.Role)
	return role, ok
}

// GetEmail gets the authenticated email from context
func GetEmail(c *gin.Context) (string, bool) {
	value, exists := c.Get("email")
	if !exists {
		return "", false
	}

	email, ok := value.(string)
	return email, ok
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("user_id")
	return exists
}

// IsAdmin checks if the caller is an administrator
func IsAdmin(c *gin.Context) bool {
	role, ok := GetRole(c)
	return ok && role == token.RoleAdmin
}
