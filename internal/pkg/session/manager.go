// internal/pkg/session/manager.go
package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"volante-service/internal/domain/auth"
	xerrors "volante-service/internal/pkg/errors"
	"volante-service/internal/pkg/token"
)

const (
	// RetentionWindow is how long session rows survive before the purge
	// deletes them regardless of their active flag.
	RetentionWindow = 30 * 24 * time.Hour

	// ExpiryWarnThreshold is how close to expiry a token must be before
	// verification flags it for proactive client refresh.
	ExpiryWarnThreshold = 15 * time.Minute
)

// Manager orchestrates the session lifecycle: token issuance plus store row
// creation at login, verification combining token validity with row liveness,
// activity refresh, and single- or all-session logout.
//
//	[none] --login success--> ACTIVE
//	ACTIVE --logout / cap-eviction / expiry detected--> INACTIVE
//	any    --retention purge after 30d--> deleted
type Manager struct {
	codec  *token.Codec
	store  Store
	users  UserDirectory
	logger *zap.Logger
}

func NewManager(codec *token.Codec, store Store, users UserDirectory, logger *zap.Logger) *Manager {
	return &Manager{
		codec:  codec,
		store:  store,
		users:  users,
		logger: logger,
	}
}

// Login mints a fresh token identifier, records the session row with its
// computed expiry, and issues a signed token embedding both the token
// identifier and the row id. Sweep and cap enforcement ride the same call,
// best-effort: their failure never aborts a successful login.
func (m *Manager) Login(ctx context.Context, user *auth.User, device DeviceInfo, timeoutMinutes, maxSessions int) (*LoginResult, error) {
	tokenID := token.NewTokenID()
	ttl := time.Duration(timeoutMinutes) * time.Minute
	expiresAt := time.Now().Add(ttl)

	isNewDevice := false
	if device.Fingerprint != "" {
		seen, err := m.store.HasDeviceFingerprint(ctx, user.ID, device.Fingerprint)
		if err != nil {
			m.logger.Warn("failed to check device fingerprint", zap.Error(err))
		} else {
			isNewDevice = !seen
		}
	}

	row := &auth.Session{
		UserID:            user.ID,
		TokenID:           tokenID,
		DeviceName:        nullString(device.Name),
		DeviceFingerprint: nullString(device.Fingerprint),
		IPAddress:         nullString(device.IPAddress),
		UserAgent:         nullString(device.UserAgent),
		ExpiresAt:         expiresAt,
	}

	if err := m.store.CreateSession(ctx, row); err != nil {
		return nil, xerrors.Wrap(err, "failed to create session")
	}

	signed, err := m.codec.Generator.IssueWithID(tokenID, user.ID, user.Email, user.Role, row.ID, ttl)
	if err != nil {
		// The row is orphaned without its token; end it rather than leave
		// a live session nothing can ever present a credential for.
		if derr := m.store.Deactivate(ctx, tokenID); derr != nil {
			m.logger.Warn("failed to deactivate orphaned session", zap.Error(derr))
		}
		return nil, xerrors.Wrap(err, "failed to issue token")
	}

	m.housekeep(ctx, user.ID, maxSessions)

	return &LoginResult{
		Token:       signed,
		TokenID:     tokenID,
		SessionID:   row.ID,
		ExpiresAt:   expiresAt,
		IsNewDevice: isNewDevice,
	}, nil
}

// housekeep runs the login-coupled sweep and cap enforcement. Best-effort:
// failures are logged and swallowed.
func (m *Manager) housekeep(ctx context.Context, userID int64, maxSessions int) {
	if _, err := m.store.SweepExpired(ctx); err != nil {
		m.logger.Warn("session sweep failed", zap.Error(err))
	}
	if evicted, err := m.store.EnforceSessionCap(ctx, userID, maxSessions); err != nil {
		m.logger.Warn("session cap enforcement failed", zap.Int64("user_id", userID), zap.Error(err))
	} else if evicted > 0 {
		m.logger.Info("evicted sessions over cap",
			zap.Int64("user_id", userID),
			zap.Int64("evicted", evicted),
		)
	}
}

// Verify decides whether a presented credential is currently authenticated.
// The token must decode, the backing row must be live, and the owning account
// must still be enabled. Every failure mode fails closed; the caller sees a
// sentinel it must treat identically to an invalid token.
func (m *Manager) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	claims, err := m.codec.Verifier.Verify(tokenString)
	if err != nil {
		return nil, xerrors.ErrInvalidToken
	}

	sess, err := m.store.FindByTokenID(ctx, claims.TokenID())
	if err != nil {
		if errors.Is(err, xerrors.ErrSessionNotFound) {
			return nil, xerrors.ErrSessionNotFound
		}
		m.logger.Error("session lookup failed", zap.Error(err))
		return nil, xerrors.ErrStoreUnavailable
	}

	if sess.UserID != claims.UserID {
		return nil, xerrors.ErrSessionNotFound
	}
	if !sess.IsActive {
		return nil, xerrors.ErrSessionInactive
	}
	if !sess.ExpiresAt.After(time.Now()) {
		// Lazily mark the discovered-expired row inactive.
		if derr := m.store.Deactivate(ctx, sess.TokenID); derr != nil {
			m.logger.Warn("failed to deactivate expired session", zap.Error(derr))
		}
		return nil, xerrors.ErrSessionInactive
	}

	active, err := m.users.IsActive(ctx, claims.UserID)
	if err != nil {
		m.logger.Error("user status lookup failed", zap.Error(err))
		return nil, xerrors.ErrStoreUnavailable
	}
	if !active {
		if derr := m.store.Deactivate(ctx, sess.TokenID); derr != nil {
			m.logger.Warn("failed to deactivate session of disabled user", zap.Error(derr))
		}
		return nil, xerrors.ErrUserDeactivated
	}

	// Best-effort activity bump; a failed bump must not fail verification.
	if err := m.store.TouchActivity(ctx, sess.TokenID); err != nil {
		m.logger.Warn("failed to touch session activity", zap.Error(err))
	}

	return &Identity{
		UserID:       claims.UserID,
		Email:        claims.Email,
		Role:         claims.Role,
		SessionID:    sess.ID,
		TokenID:      sess.TokenID,
		ExpiringSoon: m.codec.Verifier.IsExpiringSoon(tokenString, ExpiryWarnThreshold),
	}, nil
}

// Logout ends exactly one session. Idempotent.
func (m *Manager) Logout(ctx context.Context, tokenID string) error {
	if err := m.store.Deactivate(ctx, tokenID); err != nil {
		return xerrors.Wrap(err, "failed to deactivate session")
	}
	return nil
}

// RevokeSession ends one of the user's sessions by row id, as selected from
// the devices view. Idempotent like Logout.
func (m *Manager) RevokeSession(ctx context.Context, userID, sessionID int64) error {
	if err := m.store.DeactivateByID(ctx, userID, sessionID); err != nil {
		return xerrors.Wrap(err, "failed to revoke session")
	}
	return nil
}

// LogoutAllDevices ends every live session for the user except an optional
// current one, returning the count of devices logged out.
func (m *Manager) LogoutAllDevices(ctx context.Context, userID int64, currentTokenID string) (int64, error) {
	count, err := m.store.DeactivateAllForUser(ctx, userID, currentTokenID)
	if err != nil {
		return 0, xerrors.Wrap(err, "failed to deactivate sessions")
	}
	return count, nil
}

// ListActiveSessions returns the user's live sessions for the devices view.
func (m *Manager) ListActiveSessions(ctx context.Context, userID int64) ([]*auth.Session, error) {
	return m.store.ListActiveSessions(ctx, userID)
}

// IsNewDevice reports whether no session row, historic or current, carries
// the given fingerprint for the user. Informational only.
func (m *Manager) IsNewDevice(ctx context.Context, userID int64, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	seen, err := m.store.HasDeviceFingerprint(ctx, userID, fingerprint)
	if err != nil {
		return false, err
	}
	return !seen, nil
}

// Sweep runs the retention pass: expire stale rows, then hard-delete rows
// older than the retention window. Safe to call from any number of callers.
func (m *Manager) Sweep(ctx context.Context) (expired, purged int64, err error) {
	expired, err = m.store.SweepExpired(ctx)
	if err != nil {
		return 0, 0, err
	}
	purged, err = m.store.PurgeOlderThan(ctx, time.Now().Add(-RetentionWindow))
	if err != nil {
		return expired, 0, err
	}
	return expired, purged, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
