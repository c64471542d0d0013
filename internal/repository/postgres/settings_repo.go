// internal/repository/postgres/settings_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"volante-service/internal/domain/auth"
)

// SettingsRepository persists the single-row session policy. Reads fall back
// to defaults when no row has been saved yet, and values are clamped into
// range on both read and write so a hand-edited row cannot widen the policy.
type SettingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the current session policy
func (r *SettingsRepository) Get(ctx context.Context) (*auth.SessionSettings, error) {
	query := `
		SELECT max_concurrent_sessions, session_timeout_minutes,
		       allow_concurrent_sessions, updated_at
		FROM auth_settings
		WHERE id = 1
	`

	var settings auth.SessionSettings
	err := r.db.QueryRow(ctx, query).Scan(
		&settings.MaxConcurrentSessions, &settings.SessionTimeoutMinutes,
		&settings.AllowConcurrentSessions, &settings.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return auth.DefaultSessionSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	settings.Clamp()
	return &settings, nil
}

// Update upserts the session policy row
func (r *SettingsRepository) Update(ctx context.Context, settings *auth.SessionSettings) error {
	settings.Clamp()

	query := `
		INSERT INTO auth_settings (
			id, max_concurrent_sessions, session_timeout_minutes,
			allow_concurrent_sessions, updated_at
		) VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET max_concurrent_sessions = $1,
		    session_timeout_minutes = $2,
		    allow_concurrent_sessions = $3,
		    updated_at = NOW()
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		settings.MaxConcurrentSessions, settings.SessionTimeoutMinutes,
		settings.AllowConcurrentSessions,
	).Scan(&settings.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return nil
}
