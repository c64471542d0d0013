package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"volante-service/internal/domain/auth"
	xerrors "volante-service/internal/pkg/errors"
	"volante-service/internal/pkg/session"
	"volante-service/internal/pkg/session/sessiontest"
	"volante-service/internal/pkg/token"
)

type managerFixture struct {
	manager *session.Manager
	store   *sessiontest.MemStore
	users   *sessiontest.MemDirectory
	codec   *token.Codec
}

func newFixture(t *testing.T) *managerFixture {
	t.Helper()
	codec, err := token.Build(token.Config{
		Secret:   "test-secret-at-least-32-bytes-long!!",
		Issuer:   "volante-service",
		Audience: "volante-clients",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	store := sessiontest.NewMemStore()
	users := sessiontest.NewMemDirectory()
	return &managerFixture{
		manager: session.NewManager(codec, store, users, zap.NewNop()),
		store:   store,
		users:   users,
		codec:   codec,
	}
}

func testUser() *auth.User {
	return &auth.User{
		ID:       42,
		Email:    "tech@volante.test",
		Role:     token.RoleTecnico,
		IsActive: true,
	}
}

func (f *managerFixture) login(t *testing.T, user *auth.User, timeoutMinutes, maxSessions int) *session.LoginResult {
	t.Helper()
	result, err := f.manager.Login(context.Background(), user, session.DeviceInfo{}, timeoutMinutes, maxSessions)
	require.NoError(t, err)
	return result
}

func TestLoginThenVerifyReturnsSameIdentity(t *testing.T) {
	f := newFixture(t)
	user := testUser()

	result := f.login(t, user, 480, 3)
	require.NotEmpty(t, result.Token)
	require.NotEmpty(t, result.TokenID)
	require.NotZero(t, result.SessionID)

	identity, err := f.manager.Verify(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, user.Email, identity.Email)
	assert.Equal(t, user.Role, identity.Role)
	assert.Equal(t, result.SessionID, identity.SessionID)
	assert.Equal(t, result.TokenID, identity.TokenID)
	assert.False(t, identity.ExpiringSoon)
}

func TestVerifyFailsWhenRowExpiredDespiteActiveFlag(t *testing.T) {
	f := newFixture(t)
	result := f.login(t, testUser(), 480, 3)

	// Push the row past its expiry while leaving the flag untouched.
	row := f.store.Row(result.TokenID)
	require.NotNil(t, row)
	row.ExpiresAt = time.Now().Add(-time.Second)
	require.True(t, row.IsActive)

	_, err := f.manager.Verify(context.Background(), result.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)

	// The discovered-expired row was lazily deactivated.
	assert.False(t, f.store.Row(result.TokenID).IsActive)
}

func TestSessionTimeoutBoundary(t *testing.T) {
	f := newFixture(t)
	result := f.login(t, testUser(), 480, 3)

	row := f.store.Row(result.TokenID)
	require.NotNil(t, row)

	// One second before the eight-hour mark the session still verifies.
	row.ExpiresAt = time.Now().Add(time.Second)
	_, err := f.manager.Verify(context.Background(), result.Token)
	require.NoError(t, err)

	// One second past it the same credential is refused.
	row.ExpiresAt = time.Now().Add(-time.Second)
	_, err = f.manager.Verify(context.Background(), result.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
}

func TestSessionCapEvictsLeastRecentlyActive(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()
	const maxSessions = 3

	var results []*session.LoginResult
	for i := 0; i < maxSessions; i++ {
		results = append(results, f.login(t, user, 480, maxSessions))
		time.Sleep(2 * time.Millisecond)
	}
	assert.Equal(t, maxSessions, f.store.LiveCount(user.ID, time.Now()))

	// Touch the oldest session so the second-oldest becomes the LRU victim.
	_, err := f.manager.Verify(ctx, results[0].Token)
	require.NoError(t, err)

	overflow := f.login(t, user, 480, maxSessions)

	assert.Equal(t, maxSessions, f.store.LiveCount(user.ID, time.Now()))
	assert.False(t, f.store.Row(results[1].TokenID).IsActive, "least recently active session should be evicted")
	assert.True(t, f.store.Row(results[0].TokenID).IsActive)
	assert.True(t, f.store.Row(overflow.TokenID).IsActive)

	_, err = f.manager.Verify(ctx, results[1].Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
}

func TestLogoutInvalidatesBeforeTokenExpiry(t *testing.T) {
	f := newFixture(t)
	result := f.login(t, testUser(), 480, 3)

	_, err := f.manager.Verify(context.Background(), result.Token)
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(context.Background(), result.TokenID))

	// The signed token is hours from expiry, yet the session is gone.
	_, err = f.manager.Verify(context.Background(), result.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	result := f.login(t, testUser(), 480, 3)

	require.NoError(t, f.manager.Logout(context.Background(), result.TokenID))
	require.NoError(t, f.manager.Logout(context.Background(), result.TokenID))
	require.NoError(t, f.manager.Logout(context.Background(), "never-issued"))
}

func TestLogoutAllDevicesKeepsCurrentSession(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()

	a := f.login(t, user, 480, 5)
	b := f.login(t, user, 480, 5)
	current := f.login(t, user, 480, 5)

	count, err := f.manager.LogoutAllDevices(ctx, user.ID, current.TokenID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = f.manager.Verify(ctx, current.Token)
	require.NoError(t, err)
	_, err = f.manager.Verify(ctx, a.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
	_, err = f.manager.Verify(ctx, b.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
}

func TestLogoutAllDevicesWithoutException(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()

	a := f.login(t, user, 480, 5)
	b := f.login(t, user, 480, 5)

	count, err := f.manager.LogoutAllDevices(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = f.manager.Verify(ctx, a.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
	_, err = f.manager.Verify(ctx, b.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
}

func TestUserDeactivationInvalidatesLiveSessions(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()

	result := f.login(t, user, 480, 3)
	_, err := f.manager.Verify(ctx, result.Token)
	require.NoError(t, err)

	f.users.SetActive(user.ID, false)

	_, err = f.manager.Verify(ctx, result.Token)
	assert.ErrorIs(t, err, xerrors.ErrUserDeactivated)

	// The session row was ended, so re-enabling the account does not
	// resurrect the old credential.
	f.users.SetActive(user.ID, true)
	_, err = f.manager.Verify(ctx, result.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
}

func TestVerifyFailsClosedOnStoreError(t *testing.T) {
	f := newFixture(t)
	result := f.login(t, testUser(), 480, 3)

	f.store.FailNext = errors.New("connection refused")
	_, err := f.manager.Verify(context.Background(), result.Token)
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)

	// The store recovered; the session is intact.
	_, err = f.manager.Verify(context.Background(), result.Token)
	require.NoError(t, err)
}

func TestVerifyFailsClosedOnDirectoryError(t *testing.T) {
	f := newFixture(t)
	result := f.login(t, testUser(), 480, 3)

	f.users.FailNext = errors.New("connection refused")
	_, err := f.manager.Verify(context.Background(), result.Token)
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	f := newFixture(t)

	// Valid signature, but no backing session row.
	signed, err := f.codec.Generator.IssueWithID(token.NewTokenID(), 42, "tech@volante.test", token.RoleTecnico, 99, time.Hour)
	require.NoError(t, err)

	_, err = f.manager.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, xerrors.ErrSessionNotFound)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
}

func TestVerifyFlagsExpiringSoon(t *testing.T) {
	f := newFixture(t)
	result := f.login(t, testUser(), 480, 3)

	// Re-sign the same token id with an expiry inside the warn threshold.
	nearExpiry, err := f.codec.Generator.IssueWithID(result.TokenID, 42, "tech@volante.test", token.RoleTecnico, result.SessionID, 5*time.Minute)
	require.NoError(t, err)

	identity, err := f.manager.Verify(context.Background(), nearExpiry)
	require.NoError(t, err)
	assert.True(t, identity.ExpiringSoon)
}

func TestRevokeSessionByID(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()

	keep := f.login(t, user, 480, 5)
	revoke := f.login(t, user, 480, 5)

	require.NoError(t, f.manager.RevokeSession(ctx, user.ID, revoke.SessionID))

	_, err := f.manager.Verify(ctx, revoke.Token)
	assert.ErrorIs(t, err, xerrors.ErrSessionInactive)
	_, err = f.manager.Verify(ctx, keep.Token)
	require.NoError(t, err)

	// A different user cannot revoke someone else's session.
	other := f.login(t, user, 480, 5)
	require.NoError(t, f.manager.RevokeSession(ctx, 777, other.SessionID))
	_, err = f.manager.Verify(ctx, other.Token)
	require.NoError(t, err)
}

func TestListActiveSessionsExcludesEnded(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()

	live := f.login(t, user, 480, 5)
	ended := f.login(t, user, 480, 5)
	require.NoError(t, f.manager.Logout(ctx, ended.TokenID))

	sessions, err := f.manager.ListActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, live.SessionID, sessions[0].ID)
}

func TestIsNewDevice(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()

	fresh, err := f.manager.IsNewDevice(ctx, user.ID, "fp-laptop")
	require.NoError(t, err)
	assert.True(t, fresh)

	_, err = f.manager.Login(ctx, user, session.DeviceInfo{Fingerprint: "fp-laptop"}, 480, 3)
	require.NoError(t, err)

	fresh, err = f.manager.IsNewDevice(ctx, user.ID, "fp-laptop")
	require.NoError(t, err)
	assert.False(t, fresh)

	// Blank fingerprints are never reported as new.
	fresh, err = f.manager.IsNewDevice(ctx, user.ID, "")
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestLoginReportsNewDevice(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()

	first, err := f.manager.Login(ctx, user, session.DeviceInfo{Fingerprint: "fp-phone"}, 480, 3)
	require.NoError(t, err)
	assert.True(t, first.IsNewDevice)

	second, err := f.manager.Login(ctx, user, session.DeviceInfo{Fingerprint: "fp-phone"}, 480, 3)
	require.NoError(t, err)
	assert.False(t, second.IsNewDevice)
}

func TestSweepExpiresAndPurges(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	ctx := context.Background()

	stale := f.login(t, user, 480, 5)
	f.login(t, user, 480, 5)

	row := f.store.Row(stale.TokenID)
	row.ExpiresAt = time.Now().Add(-time.Minute)

	expired, purged, err := f.manager.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)
	assert.Equal(t, int64(0), purged)

	// Age a row past the retention window and sweep again.
	row.LoginAt = time.Now().Add(-session.RetentionWindow - time.Hour)
	_, purged, err = f.manager.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	assert.Nil(t, f.store.Row(stale.TokenID))
}
