// internal/domain/auth/entity.go
package auth

import (
	"database/sql"
	"time"

	"volante-service/internal/pkg/token"
)

// User represents an account in the field-service organisation. Accounts are
// created by administrative action and never physically deleted while
// referenced; deactivation is the soft is_active flag.
type User struct {
	ID           int64        `json:"id" db:"id"`
	Email        string       `json:"email" db:"email"`
	FullName     string       `json:"full_name" db:"full_name"`
	PasswordHash string       `json:"-" db:"password_hash"`
	Role         token.Role   `json:"role" db:"role"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	LastLoginAt  sql.NullTime `json:"last_login_at" db:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// Session represents one authenticated device login. A session is live iff
// IsActive is true AND ExpiresAt is in the future; both conditions are
// rechecked on every use, never cached beyond a single request.
type Session struct {
	ID                int64          `json:"id" db:"id"`
	UserID            int64          `json:"user_id" db:"user_id"`
	TokenID           string         `json:"-" db:"token_id"`
	DeviceName        sql.NullString `json:"device_name" db:"device_name"`
	DeviceFingerprint sql.NullString `json:"-" db:"device_fingerprint"`
	IPAddress         sql.NullString `json:"ip_address" db:"ip_address"`
	UserAgent         sql.NullString `json:"user_agent" db:"user_agent"`
	LoginAt           time.Time      `json:"login_at" db:"login_at"`
	LastActivityAt    time.Time      `json:"last_activity_at" db:"last_activity_at"`
	ExpiresAt         time.Time      `json:"expires_at" db:"expires_at"`
	IsActive          bool           `json:"is_active" db:"is_active"`
}

// Live reports whether the session is usable at the given instant.
func (s *Session) Live(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

// SessionSettings is the per-installation session policy, persisted as a
// single settings row and clamped into range on every read and write.
type SessionSettings struct {
	MaxConcurrentSessions   int       `json:"max_concurrent_sessions" db:"max_concurrent_sessions"`
	SessionTimeoutMinutes   int       `json:"session_timeout_minutes" db:"session_timeout_minutes"`
	AllowConcurrentSessions bool      `json:"allow_concurrent_sessions" db:"allow_concurrent_sessions"`
	UpdatedAt               time.Time `json:"updated_at" db:"updated_at"`
}

const (
	MinConcurrentSessions = 1
	MaxConcurrentSessions = 10
	MinTimeoutMinutes     = 60
	MaxTimeoutMinutes     = 1440

	DefaultConcurrentSessions = 3
	DefaultTimeoutMinutes     = 480
)

// Clamp forces the settings into their allowed ranges. When concurrent
// sessions are disallowed the effective cap is one regardless of the stored
// maximum.
func (s *SessionSettings) Clamp() {
	if s.MaxConcurrentSessions < MinConcurrentSessions {
		s.MaxConcurrentSessions = MinConcurrentSessions
	}
	if s.MaxConcurrentSessions > MaxConcurrentSessions {
		s.MaxConcurrentSessions = MaxConcurrentSessions
	}
	if s.SessionTimeoutMinutes < MinTimeoutMinutes {
		s.SessionTimeoutMinutes = MinTimeoutMinutes
	}
	if s.SessionTimeoutMinutes > MaxTimeoutMinutes {
		s.SessionTimeoutMinutes = MaxTimeoutMinutes
	}
}

// EffectiveCap is the session limit actually enforced at login.
func (s *SessionSettings) EffectiveCap() int {
	if !s.AllowConcurrentSessions {
		return 1
	}
	return s.MaxConcurrentSessions
}

// DefaultSessionSettings returns the policy used when no row has been saved.
func DefaultSessionSettings() *SessionSettings {
	return &SessionSettings{
		MaxConcurrentSessions:   DefaultConcurrentSessions,
		SessionTimeoutMinutes:   DefaultTimeoutMinutes,
		AllowConcurrentSessions: true,
	}
}
