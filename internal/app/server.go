// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"volante-service/internal/config"
	"volante-service/internal/db"
	authHandler "volante-service/internal/handlers/auth"
	settingsHandler "volante-service/internal/handlers/settings"
	userHandler "volante-service/internal/handlers/user"
	"volante-service/internal/middleware"
	"volante-service/internal/pkg/ratelimit"
	"volante-service/internal/pkg/session"
	"volante-service/internal/pkg/token"
	"volante-service/internal/repository/postgres"
	authUsecase "volante-service/internal/service/auth"
	"volante-service/internal/service/cleanup"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start(ctx context.Context) error {
	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	// ----- Token codec -----
	codec, err := token.Build(s.cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to build token codec: %w", err)
	}

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)

	// ----- Session manager & rate limiter -----
	sessionManager := session.NewManager(codec, sessionRepo, userRepo, logger)
	loginLimiter := ratelimit.NewLoginLimiter(redisClient)

	// ----- Services -----
	service := authUsecase.NewAuthService(userRepo, settingsRepo, sessionManager, loginLimiter, logger)

	// ----- Bootstrap admin -----
	if err := s.bootstrapAdmin(ctx, service); err != nil {
		logger.Error("failed to bootstrap admin account", zap.Error(err))
		// Don't fail startup, just log the error
	}

	// ----- Cleanup worker -----
	cleanup.NewWorker(sessionManager, s.cfg.CleanupInterval, logger).Start(ctx)

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(service, s.cfg.SecureCookies, logger)
	userHandlerInst := userHandler.NewUserHandler(service, logger)
	settingsHandlerInst := settingsHandler.NewSettingsHandler(service, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(sessionManager)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{
		AuthHandler:     authHandlerInst,
		UserHandler:     userHandlerInst,
		SettingsHandler: settingsHandlerInst,
		AuthMiddleware:  authMiddleware,
	})

	// ----- Start HTTP -----
	logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}

// bootstrapAdmin creates the initial administrator if it doesn't exist.
func (s *Server) bootstrapAdmin(ctx context.Context, service *authUsecase.AuthService) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	fullName := os.Getenv("ADMIN_NAME")

	if email == "" || password == "" {
		s.logger.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}
	if fullName == "" {
		fullName = "Administrator"
	}
	if len(password) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters")
	}

	return service.EnsureAdminExists(ctx, email, password, fullName)
}
