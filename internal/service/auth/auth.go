// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"volante-service/internal/domain/auth"
	xerrors "volante-service/internal/pkg/errors"
	"volante-service/internal/pkg/ratelimit"
	"volante-service/internal/pkg/session"
	"volante-service/internal/pkg/token"
	"volante-service/internal/repository/postgres"
)

// AuthService runs the credential side of the session lifecycle: password
// checks, rate limiting, account administration, and session policy. Token
// and session mechanics live in the session manager it wraps.
type AuthService struct {
	userRepo       *postgres.UserRepository
	settingsRepo   *postgres.SettingsRepository
	sessionManager *session.Manager
	loginLimiter   *ratelimit.LoginLimiter
	logger         *zap.Logger
}

func NewAuthService(
	userRepo *postgres.UserRepository,
	settingsRepo *postgres.SettingsRepository,
	sessionManager *session.Manager,
	loginLimiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		settingsRepo:   settingsRepo,
		sessionManager: sessionManager,
		loginLimiter:   loginLimiter,
		logger:         logger,
	}
}

// ========== Login ==========

// Login authenticates a technician or administrator with email/password and
// opens a device session under the configured policy.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	allowed, remaining, err := s.loginLimiter.CheckLoginAttempt(ctx, req.IPAddress, req.Email)
	if err != nil {
		// The limiter lives in redis; a limiter outage must not lock every
		// technician out of the field app.
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
		allowed, remaining = true, 0
	}
	if !allowed {
		return nil, xerrors.ErrRateLimited
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials (attempts remaining: %d)", remaining)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Error(err))
	}
	if err := s.loginLimiter.ResetLoginAttempts(ctx, req.IPAddress, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.Error("failed to load session settings, using defaults", zap.Error(err))
		settings = auth.DefaultSessionSettings()
	}

	result, err := s.sessionManager.Login(ctx, user, session.DeviceInfo{
		Name:        req.DeviceName,
		Fingerprint: req.DeviceFingerprint,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	}, settings.SessionTimeoutMinutes, settings.EffectiveCap())
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	return &auth.LoginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresIn:   settings.SessionTimeoutMinutes * 60,
		ExpiresAt:   result.ExpiresAt,
		SessionID:   result.SessionID,
		IsNewDevice: result.IsNewDevice,
		User: auth.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		},
	}, nil
}

// ========== Session self-service ==========

// Logout ends the caller's current session. Idempotent.
func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	return s.sessionManager.Logout(ctx, tokenID)
}

// LogoutAllDevices ends the caller's other sessions, sparing the current one
// when its token id is supplied, and reports how many were ended.
func (s *AuthService) LogoutAllDevices(ctx context.Context, userID int64, currentTokenID string) (int64, error) {
	return s.sessionManager.LogoutAllDevices(ctx, userID, currentTokenID)
}

// ListSessions returns the caller's live device sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID int64, currentTokenID string) ([]*auth.SessionView, error) {
	sessions, err := s.sessionManager.ListActiveSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	views := make([]*auth.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, &auth.SessionView{
			ID:             sess.ID,
			DeviceName:     sess.DeviceName.String,
			IPAddress:      sess.IPAddress.String,
			UserAgent:      sess.UserAgent.String,
			LoginAt:        sess.LoginAt,
			LastActivityAt: sess.LastActivityAt,
			ExpiresAt:      sess.ExpiresAt,
			Current:        sess.TokenID == currentTokenID,
		})
	}

	return views, nil
}

// RevokeSession ends one of the caller's sessions picked from the devices view.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID int64) error {
	return s.sessionManager.RevokeSession(ctx, userID, sessionID)
}

// ========== User administration ==========

// CreateUser provisions an account. Administrative action only; role is
// validated against the fixed set.
func (s *AuthService) CreateUser(ctx context.Context, req *auth.CreateUserRequest) (*auth.User, error) {
	role := token.Role(req.Role)
	if !role.Valid() {
		return nil, xerrors.ErrInvalidInput
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, xerrors.ErrDuplicateEntry
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &auth.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// ListUsers returns every account for the admin view.
func (s *AuthService) ListUsers(ctx context.Context) ([]*auth.User, error) {
	return s.userRepo.List(ctx)
}

// DeactivateUser disables an account and immediately ends all of its
// sessions; the soft flag also invalidates any still-unexpired tokens on
// their next verification.
func (s *AuthService) DeactivateUser(ctx context.Context, userID int64) error {
	if err := s.userRepo.SetActive(ctx, userID, false); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	if _, err := s.sessionManager.LogoutAllDevices(ctx, userID, ""); err != nil {
		s.logger.Error("failed to end sessions of deactivated user",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	return nil
}

// ReactivateUser re-enables a previously deactivated account.
func (s *AuthService) ReactivateUser(ctx context.Context, userID int64) error {
	if err := s.userRepo.SetActive(ctx, userID, true); err != nil {
		return fmt.Errorf("failed to reactivate user: %w", err)
	}
	return nil
}

// EnsureAdminExists creates the bootstrap administrator if no account with
// the email exists yet.
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin email: %w", err)
	}
	if exists {
		return nil
	}

	_, err = s.CreateUser(ctx, &auth.CreateUserRequest{
		Email:    email,
		FullName: fullName,
		Password: password,
		Role:     string(token.RoleAdmin),
	})
	return err
}

// ========== Session policy ==========

// GetSettings returns the current session policy.
func (s *AuthService) GetSettings(ctx context.Context) (*auth.SessionSettings, error) {
	return s.settingsRepo.Get(ctx)
}

// UpdateSettings validates and persists the session policy.
func (s *AuthService) UpdateSettings(ctx context.Context, req *auth.UpdateSettingsRequest) (*auth.SessionSettings, error) {
	if req.MaxConcurrentSessions < auth.MinConcurrentSessions || req.MaxConcurrentSessions > auth.MaxConcurrentSessions {
		return nil, xerrors.ErrInvalidInput
	}
	if req.SessionTimeoutMinutes < auth.MinTimeoutMinutes || req.SessionTimeoutMinutes > auth.MaxTimeoutMinutes {
		return nil, xerrors.ErrInvalidInput
	}

	settings := &auth.SessionSettings{
		MaxConcurrentSessions:   req.MaxConcurrentSessions,
		SessionTimeoutMinutes:   req.SessionTimeoutMinutes,
		AllowConcurrentSessions: req.AllowConcurrentSessions,
		UpdatedAt:               time.Now(),
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, err
	}

	return settings, nil
}
