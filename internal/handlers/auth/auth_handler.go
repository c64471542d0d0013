// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"volante-service/internal/domain/auth"
	"volante-service/internal/middleware"
	xerrors "volante-service/internal/pkg/errors"
	"volante-service/internal/pkg/httputil"
	"volante-service/internal/pkg/response"
	"volante-service/internal/pkg/useragent"
	authService "volante-service/internal/service/auth"
)

type AuthHandler struct {
	authService  *authService.AuthService
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthHandler(service *authService.AuthService, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  service,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid login request", err)
		return
	}

	req.IPAddress = useragent.ClientIP(c.Request)
	req.UserAgent = c.Request.UserAgent()
	if req.DeviceName == "" {
		req.DeviceName = useragent.DescribeDevice(c.Request)
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrRateLimited) {
			response.Error(c, http.StatusTooManyRequests, "too many login attempts, please try again later", nil)
			return
		}
		response.Error(c, http.StatusUnauthorized, "login failed", err)
		return
	}

	httputil.SetAuthCookie(c.Writer, resp.AccessToken, resp.ExpiresAt, h.secureCookie)
	response.Success(c, http.StatusOK, "login successful", resp)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenID, ok := middleware.GetTokenID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), tokenID); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	httputil.ClearAuthCookie(c.Writer)
	response.Success(c, http.StatusOK, "logged out", nil)
}

// LogoutAll handles POST /auth/logout-all, ending every other device session.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	tokenID, _ := middleware.GetTokenID(c)

	count, err := h.authService.LogoutAllDevices(c.Request.Context(), userID, tokenID)
	if err != nil {
		h.logger.Error("logout-all failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "other devices logged out", auth.LogoutAllResponse{
		DevicesLoggedOut: count,
	})
}

// GetMe handles GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	email, _ := middleware.GetEmail(c)
	role, _ := middleware.GetRole(c)
	sessionID, _ := middleware.GetSessionID(c)

	response.Success(c, http.StatusOK, "authenticated", gin.H{
		"user_id":    userID,
		"email":      email,
		"role":       role,
		"session_id": sessionID,
	})
}

// GetSessions handles GET /auth/sessions, the "your devices" view.
func (h *AuthHandler) GetSessions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	tokenID, _ := middleware.GetTokenID(c)

	sessions, err := h.authService.ListSessions(c.Request.Context(), userID, tokenID)
	if err != nil {
		h.logger.Error("failed to list sessions", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to list sessions", nil)
		return
	}

	response.Success(c, http.StatusOK, "active sessions", sessions)
}

// RevokeSession handles DELETE /auth/sessions/:session_id
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	sessionID, err := strconv.ParseInt(c.Param("session_id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid session id", err)
		return
	}

	if err := h.authService.RevokeSession(c.Request.Context(), userID, sessionID); err != nil {
		h.logger.Error("failed to revoke session", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to revoke session", nil)
		return
	}

	response.Success(c, http.StatusOK, "session revoked", nil)
}
