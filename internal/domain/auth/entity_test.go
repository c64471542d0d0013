package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionLive(t *testing.T) {
	now := time.Now()

	s := &Session{IsActive: true, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, s.Live(now))

	s = &Session{IsActive: false, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, s.Live(now), "inactive row is never live")

	s = &Session{IsActive: true, ExpiresAt: now.Add(-time.Second)}
	assert.False(t, s.Live(now), "expired row is never live, active flag or not")

	s = &Session{IsActive: true, ExpiresAt: now}
	assert.False(t, s.Live(now), "expiry instant itself is not live")
}

func TestSessionSettingsClamp(t *testing.T) {
	cases := []struct {
		name        string
		in          SessionSettings
		wantMax     int
		wantTimeout int
	}{
		{"below range", SessionSettings{MaxConcurrentSessions: 0, SessionTimeoutMinutes: 5}, 1, 60},
		{"above range", SessionSettings{MaxConcurrentSessions: 50, SessionTimeoutMinutes: 10000}, 10, 1440},
		{"in range untouched", SessionSettings{MaxConcurrentSessions: 3, SessionTimeoutMinutes: 480}, 3, 480},
		{"at boundaries", SessionSettings{MaxConcurrentSessions: 10, SessionTimeoutMinutes: 60}, 10, 60},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.in
			s.Clamp()
			assert.Equal(t, tc.wantMax, s.MaxConcurrentSessions)
			assert.Equal(t, tc.wantTimeout, s.SessionTimeoutMinutes)
		})
	}
}

func TestEffectiveCap(t *testing.T) {
	s := &SessionSettings{MaxConcurrentSessions: 5, AllowConcurrentSessions: true}
	assert.Equal(t, 5, s.EffectiveCap())

	s.AllowConcurrentSessions = false
	assert.Equal(t, 1, s.EffectiveCap())
}

func TestDefaultSessionSettings(t *testing.T) {
	s := DefaultSessionSettings()
	assert.Equal(t, DefaultConcurrentSessions, s.MaxConcurrentSessions)
	assert.Equal(t, DefaultTimeoutMinutes, s.SessionTimeoutMinutes)
	assert.True(t, s.AllowConcurrentSessions)
}
