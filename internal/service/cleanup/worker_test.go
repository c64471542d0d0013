package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"volante-service/internal/domain/auth"
	"volante-service/internal/pkg/session"
	"volante-service/internal/pkg/session/sessiontest"
	"volante-service/internal/pkg/token"
)

func TestWorkerSweepsOnStart(t *testing.T) {
	codec, err := token.Build(token.Config{
		Secret:   "test-secret-at-least-32-bytes-long!!",
		Issuer:   "volante-service",
		Audience: "volante-clients",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	store := sessiontest.NewMemStore()
	users := sessiontest.NewMemDirectory()
	manager := session.NewManager(codec, store, users, zap.NewNop())

	user := &auth.User{ID: 1, Email: "tech@volante.test", Role: token.RoleTecnico, IsActive: true}
	result, err := manager.Login(context.Background(), user, session.DeviceInfo{}, 480, 3)
	require.NoError(t, err)
	store.Row(result.TokenID).ExpiresAt = time.Now().Add(-time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorker(manager, time.Hour, zap.NewNop())
	worker.Start(ctx)

	// The initial sweep runs immediately; wait for it to land.
	require.Eventually(t, func() bool {
		row := store.Row(result.TokenID)
		return row != nil && !row.IsActive
	}, time.Second, 5*time.Millisecond)
}

func TestWorkerDefaultsInterval(t *testing.T) {
	w := NewWorker(nil, 0, zap.NewNop())
	assert.Equal(t, time.Hour, w.interval)
}
