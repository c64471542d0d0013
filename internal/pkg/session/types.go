// internal/pkg/session/types.go
package session

import (
	"context"
	"time"

	"volante-service/internal/domain/auth"
	"volante-service/internal/pkg/token"
)

// Store is the persistence surface for session rows. Constructed once at
// process start and injected into the Manager; the postgres repository is
// the production implementation.
type Store interface {
	CreateSession(ctx context.Context, session *auth.Session) error
	FindByTokenID(ctx context.Context, tokenID string) (*auth.Session, error)
	ListActiveSessions(ctx context.Context, userID int64) ([]*auth.Session, error)
	TouchActivity(ctx context.Context, tokenID string) error
	Deactivate(ctx context.Context, tokenID string) error
	DeactivateByID(ctx context.Context, userID, sessionID int64) error
	DeactivateAllForUser(ctx context.Context, userID int64, exceptTokenID string) (int64, error)
	EnforceSessionCap(ctx context.Context, userID int64, maxSessions int) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	HasDeviceFingerprint(ctx context.Context, userID int64, fingerprint string) (bool, error)
}

// UserDirectory answers whether an account is still enabled. Verification
// rechecks this on every call so a deactivated user loses access before
// their tokens expire.
type UserDirectory interface {
	IsActive(ctx context.Context, userID int64) (bool, error)
}

// DeviceInfo is the best-effort device descriptor captured at login.
type DeviceInfo struct {
	Name        string
	Fingerprint string
	IPAddress   string
	UserAgent   string
}

// Identity is the request-scoped result of a successful verification.
type Identity struct {
	UserID       int64
	Email        string
	Role         token.Role
	SessionID    int64
	TokenID      string
	ExpiringSoon bool
}

// LoginResult carries the issued credential and its backing session row.
type LoginResult struct {
	Token       string
	TokenID     string
	SessionID   int64
	ExpiresAt   time.Time
	IsNewDevice bool
}
