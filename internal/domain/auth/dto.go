// internal/domain/auth/dto.go
package auth

import (
	"time"

	"volante-service/internal/pkg/token"
)

// LoginRequest for user login
type LoginRequest struct {
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required"`
	DeviceName        string `json:"device_name"`
	DeviceFingerprint string `json:"device_fingerprint"`
	IPAddress         string `json:"-"`
	UserAgent         string `json:"-"`
}

// LoginResponse successful login response
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   int64     `json:"session_id"`
	IsNewDevice bool      `json:"is_new_device"`
	User        UserInfo  `json:"user"`
}

// UserInfo minimal user information
type UserInfo struct {
	ID       int64      `json:"id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Role     token.Role `json:"role"`
}

// SessionView is the self-service "your devices" projection of a session.
type SessionView struct {
	ID             int64     `json:"id"`
	DeviceName     string    `json:"device_name"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	Current        bool      `json:"current"`
}

// LogoutAllResponse reports how many other devices were logged out.
type LogoutAllResponse struct {
	DevicesLoggedOut int64 `json:"devices_logged_out"`
}

// CreateUserRequest for administrative account creation
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// UpdateSettingsRequest for session policy updates
type UpdateSettingsRequest struct {
	MaxConcurrentSessions   int  `json:"max_concurrent_sessions" binding:"required"`
	SessionTimeoutMinutes   int  `json:"session_timeout_minutes" binding:"required"`
	AllowConcurrentSessions bool `json:"allow_concurrent_sessions"`
}
