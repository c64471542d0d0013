// internal/repository/postgres/session_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"volante-service/internal/domain/auth"
	xerrors "volante-service/internal/pkg/errors"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession inserts one row for a fresh device login
func (r *SessionRepository) CreateSession(ctx context.Context, session *auth.Session) error {
	query := `
		INSERT INTO auth_sessions (
			user_id, token_id, device_name, device_fingerprint,
			ip_address, user_agent, expires_at, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id, login_at, last_activity_at
	`

	err := r.db.QueryRow(
		ctx, query,
		session.UserID, session.TokenID, session.DeviceName,
		session.DeviceFingerprint, session.IPAddress, session.UserAgent,
		session.ExpiresAt,
	).Scan(&session.ID, &session.LoginAt, &session.LastActivityAt)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	session.IsActive = true

	return nil
}

// FindByTokenID finds a session by its token identifier, live or not.
// Liveness is the caller's decision: an expired row is still returned so the
// session manager can deactivate it opportunistically.
func (r *SessionRepository) FindByTokenID(ctx context.Context, tokenID string) (*auth.Session, error) {
	query := `
		SELECT id, user_id, token_id, device_name, device_fingerprint,
		       ip_address, user_agent, login_at, last_activity_at,
		       expires_at, is_active
		FROM auth_sessions
		WHERE token_id = $1
	`

	var session auth.Session
	err := r.db.QueryRow(ctx, query, tokenID).Scan(
		&session.ID, &session.UserID, &session.TokenID,
		&session.DeviceName, &session.DeviceFingerprint,
		&session.IPAddress, &session.UserAgent,
		&session.LoginAt, &session.LastActivityAt,
		&session.ExpiresAt, &session.IsActive,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &session, nil
}

// ListActiveSessions returns live sessions for a user, newest activity first
func (r *SessionRepository) ListActiveSessions(ctx context.Context, userID int64) ([]*auth.Session, error) {
	query := `
		SELECT id, user_id, token_id, device_name, device_fingerprint,
		       ip_address, user_agent, login_at, last_activity_at,
		       expires_at, is_active
		FROM auth_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		ORDER BY last_activity_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*auth.Session
	for rows.Next() {
		var session auth.Session
		if err := rows.Scan(
			&session.ID, &session.UserID, &session.TokenID,
			&session.DeviceName, &session.DeviceFingerprint,
			&session.IPAddress, &session.UserAgent,
			&session.LoginAt, &session.LastActivityAt,
			&session.ExpiresAt, &session.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// TouchActivity bumps the last activity timestamp of an active row matching
// the token identifier. A missing or inactive row is a no-op, not an error.
func (r *SessionRepository) TouchActivity(ctx context.Context, tokenID string) error {
	query := `
		UPDATE auth_sessions
		SET last_activity_at = $1
		WHERE token_id = $2 AND is_active = TRUE
	`
	_, err := r.db.Exec(ctx, query, time.Now(), tokenID)
	return err
}

// Deactivate ends exactly one session. Idempotent: repeated calls on the
// same token identifier are not errors.
func (r *SessionRepository) Deactivate(ctx context.Context, tokenID string) error {
	query := `
		UPDATE auth_sessions
		SET is_active = FALSE
		WHERE token_id = $1 AND is_active = TRUE
	`
	_, err := r.db.Exec(ctx, query, tokenID)
	return err
}

// DeactivateByID ends one session by row id, scoped to its owner so one user
// cannot revoke another's device.
func (r *SessionRepository) DeactivateByID(ctx context.Context, userID, sessionID int64) error {
	query := `
		UPDATE auth_sessions
		SET is_active = FALSE
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE
	`
	_, err := r.db.Exec(ctx, query, sessionID, userID)
	return err
}

// DeactivateAllForUser ends all live sessions for a user, optionally sparing
// the caller's own (exceptTokenID != ""). Returns the count affected.
func (r *SessionRepository) DeactivateAllForUser(ctx context.Context, userID int64, exceptTokenID string) (int64, error) {
	query := `
		UPDATE auth_sessions
		SET is_active = FALSE
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		  AND ($2 = '' OR token_id <> $2)
	`

	result, err := r.db.Exec(ctx, query, userID, exceptTokenID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate sessions: %w", err)
	}

	return result.RowsAffected(), nil
}

// EnforceSessionCap deactivates the surplus least-recently-active sessions
// beyond the configured maximum. Ties on activity break by login time, so
// eviction order is stable. The read-then-update is not atomic across
// concurrent logins for the same user; the database row updates are, and the
// next enforcement pass converges.
func (r *SessionRepository) EnforceSessionCap(ctx context.Context, userID int64, maxSessions int) (int64, error) {
	if maxSessions < 1 {
		maxSessions = 1
	}

	query := `
		UPDATE auth_sessions
		SET is_active = FALSE
		WHERE id IN (
			SELECT id FROM auth_sessions
			WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
			ORDER BY last_activity_at DESC, login_at DESC
			OFFSET $2
		)
	`

	result, err := r.db.Exec(ctx, query, userID, maxSessions)
	if err != nil {
		return 0, fmt.Errorf("failed to enforce session cap: %w", err)
	}

	return result.RowsAffected(), nil
}

// SweepExpired deactivates rows whose expiry has passed. Idempotent and safe
// to run concurrently from multiple callers.
func (r *SessionRepository) SweepExpired(ctx context.Context) (int64, error) {
	query := `
		UPDATE auth_sessions
		SET is_active = FALSE
		WHERE is_active = TRUE AND expires_at <= NOW()
	`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}

	return result.RowsAffected(), nil
}

// PurgeOlderThan hard-deletes rows older than the retention cutoff
// regardless of their active flag. Storage hygiene only.
func (r *SessionRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM auth_sessions WHERE login_at < $1`

	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge old sessions: %w", err)
	}

	return result.RowsAffected(), nil
}

// HasDeviceFingerprint reports whether any session row, historic or current,
// carries the given fingerprint for the user.
func (r *SessionRepository) HasDeviceFingerprint(ctx context.Context, userID int64, fingerprint string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM auth_sessions
			WHERE user_id = $1 AND device_fingerprint = $2
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, userID, fingerprint).Scan(&exists)
	return exists, err
}
