// internal/app/router.go
package app

import (
	"github.com/gin-gonic/gin"

	authHandler "volante-service/internal/handlers/auth"
	settingsHandler "volante-service/internal/handlers/settings"
	userHandler "volante-service/internal/handlers/user"
	"volante-service/internal/middleware"
)

type Handlers struct {
	AuthHandler     *authHandler.AuthHandler
	UserHandler     *userHandler.UserHandler
	SettingsHandler *settingsHandler.SettingsHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.POST("/logout-all", h.AuthHandler.LogoutAll)
		authProtected.GET("/me", h.AuthHandler.GetMe)
		authProtected.GET("/sessions", h.AuthHandler.GetSessions)
		authProtected.DELETE("/sessions/:session_id", h.AuthHandler.RevokeSession)
	}

	// ==================== User Administration ====================
	users := api.Group("/users")
	users.Use(h.AuthMiddleware.AdminOnly()...)
	{
		users.GET("", h.UserHandler.ListUsers)
		users.POST("", h.UserHandler.CreateUser)
		users.POST("/:id/deactivate", h.UserHandler.DeactivateUser)
		users.POST("/:id/reactivate", h.UserHandler.ReactivateUser)
	}

	// ==================== Session Policy ====================
	settings := api.Group("/settings")
	settings.Use(h.AuthMiddleware.AdminOnly()...)
	{
		settings.GET("/sessions", h.SettingsHandler.GetSettings)
		settings.PUT("/sessions", h.SettingsHandler.UpdateSettings)
	}
}
