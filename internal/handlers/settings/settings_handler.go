// internal/handlers/settings/settings_handler.go
package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"volante-service/internal/domain/auth"
	xerrors "volante-service/internal/pkg/errors"
	"volante-service/internal/pkg/response"
	authService "volante-service/internal/service/auth"
)

type SettingsHandler struct {
	authService *authService.AuthService
	logger      *zap.Logger
}

func NewSettingsHandler(service *authService.AuthService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		authService: service,
		logger:      logger,
	}
}

// GetSettings handles GET /settings/sessions (admin only)
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.authService.GetSettings(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to get settings", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to get settings", nil)
		return
	}

	response.Success(c, http.StatusOK, "session settings", settings)
}

// UpdateSettings handles PUT /settings/sessions (admin only)
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req auth.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid settings request", err)
		return
	}

	settings, err := h.authService.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidInput) {
			response.ValidationError(c, "settings out of allowed range", nil)
			return
		}
		h.logger.Error("failed to update settings", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to update settings", nil)
		return
	}

	response.Success(c, http.StatusOK, "session settings updated", settings)
}
