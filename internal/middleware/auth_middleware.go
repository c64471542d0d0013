// internal/middleware/auth_middleware.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"volante-service/internal/pkg/httputil"
	"volante-service/internal/pkg/response"
	"volante-service/internal/pkg/session"
	"volante-service/internal/pkg/token"
)

// ExpiringSoonHeader flags a near-expiry credential so the client can
// refresh proactively.
const ExpiringSoonHeader = "X-Token-Expiring-Soon"

// AuthMiddleware is the edge request gate. The "is authenticated" decision
// lives in the session manager; this layer only applies the response policy
// for a JSON API: 401, standard envelope, credential cookie cleared. No
// granular failure detail reaches the client.
type AuthMiddleware struct {
	sessions *session.Manager
}

func NewAuthMiddleware(sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Auth validates the request credential and injects the caller's identity
// into the gin context for downstream handlers.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := httputil.TokenFromRequest(c.Request)
		if err != nil {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		identity, err := m.sessions.Verify(c.Request.Context(), tok)
		if err != nil {
			httputil.ClearAuthCookie(c.Writer)
			response.Unauthorized(c, "invalid or expired session")
			return
		}

		c.Set("user_id", identity.UserID)
		c.Set("email", identity.Email)
		c.Set("role", identity.Role)
		c.Set("session_id", identity.SessionID)
		c.Set("token_id", identity.TokenID)

		if identity.ExpiringSoon {
			c.Header(ExpiringSoonHeader, "true")
		}

		c.Next()
	}
}

// RequireRole requires the caller to hold one of the given roles.
// MUST be used after Auth().
func (m *AuthMiddleware) RequireRole(roles ...token.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusForbidden, "no role found - authentication required", nil)
			return
		}

		userRole, ok := value.(token.Role)
		if !ok {
			response.Error(c, http.StatusInternalServerError, "invalid role format", nil)
			return
		}

		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "insufficient permissions",
			errors.New("user does not have required role"))
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(token.RoleAdmin),
	}
}
