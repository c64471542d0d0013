// internal/handlers/user/user_handler.go
package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"volante-service/internal/domain/auth"
	xerrors "volante-service/internal/pkg/errors"
	"volante-service/internal/pkg/response"
	authService "volante-service/internal/service/auth"
)

type UserHandler struct {
	authService *authService.AuthService
	logger      *zap.Logger
}

func NewUserHandler(service *authService.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		authService: service,
		logger:      logger,
	}
}

// CreateUser handles POST /users (admin only)
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req auth.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid user request", err)
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrInvalidInput):
			response.ValidationError(c, "invalid role", nil)
		case xerrors.Is(err, xerrors.ErrDuplicateEntry):
			response.Error(c, http.StatusConflict, "email already registered", nil)
		default:
			h.logger.Error("failed to create user", zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "failed to create user", nil)
		}
		return
	}

	response.Success(c, http.StatusCreated, "user created", user)
}

// ListUsers handles GET /users (admin only)
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to list users", nil)
		return
	}

	response.Success(c, http.StatusOK, "users", users)
}

// DeactivateUser handles POST /users/:id/deactivate (admin only)
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid user id", err)
		return
	}

	if err := h.authService.DeactivateUser(c.Request.Context(), userID); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("failed to deactivate user", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to deactivate user", nil)
		return
	}

	response.Success(c, http.StatusOK, "user deactivated", nil)
}

// ReactivateUser handles POST /users/:id/reactivate (admin only)
func (h *UserHandler) ReactivateUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid user id", err)
		return
	}

	if err := h.authService.ReactivateUser(c.Request.Context(), userID); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("failed to reactivate user", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to reactivate user", nil)
		return
	}

	response.Success(c, http.StatusOK, "user reactivated", nil)
}
