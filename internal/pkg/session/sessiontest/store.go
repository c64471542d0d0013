// Package sessiontest provides in-memory Store and UserDirectory
// implementations for exercising the session manager without a database.
package sessiontest

import (
	"context"
	"sort"
	"sync"
	"time"

	"volante-service/internal/domain/auth"
	xerrors "volante-service/internal/pkg/errors"
)

// MemStore is an in-memory session.Store. Its cap-enforcement and sweep
// semantics mirror the SQL implementation: least-recently-active first,
// ties broken by login time.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []*auth.Session

	// FailNext forces the next store call to fail, for fail-closed tests.
	FailNext error
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) fail() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

// Row returns a copy-free pointer to the row for a token id, for assertions
// and for tests that manipulate expiry directly.
func (s *MemStore) Row(tokenID string) *auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.TokenID == tokenID {
			return row
		}
	}
	return nil
}

// LiveCount counts live rows for a user at the given instant.
func (s *MemStore) LiveCount(userID int64, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.rows {
		if row.UserID == userID && row.Live(now) {
			n++
		}
	}
	return n
}

func (s *MemStore) CreateSession(ctx context.Context, session *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}

	s.nextID++
	session.ID = s.nextID
	now := time.Now()
	session.LoginAt = now
	session.LastActivityAt = now
	session.IsActive = true
	s.rows = append(s.rows, session)
	return nil
}

func (s *MemStore) FindByTokenID(ctx context.Context, tokenID string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}

	for _, row := range s.rows {
		if row.TokenID == tokenID {
			copy := *row
			return &copy, nil
		}
	}
	return nil, xerrors.ErrSessionNotFound
}

func (s *MemStore) ListActiveSessions(ctx context.Context, userID int64) ([]*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}

	now := time.Now()
	var live []*auth.Session
	for _, row := range s.rows {
		if row.UserID == userID && row.Live(now) {
			copy := *row
			live = append(live, &copy)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].LastActivityAt.After(live[j].LastActivityAt)
	})
	return live, nil
}

func (s *MemStore) TouchActivity(ctx context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}

	for _, row := range s.rows {
		if row.TokenID == tokenID && row.IsActive {
			row.LastActivityAt = time.Now()
		}
	}
	return nil
}

func (s *MemStore) Deactivate(ctx context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}

	for _, row := range s.rows {
		if row.TokenID == tokenID && row.IsActive {
			row.IsActive = false
		}
	}
	return nil
}

func (s *MemStore) DeactivateByID(ctx context.Context, userID, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}

	for _, row := range s.rows {
		if row.ID == sessionID && row.UserID == userID && row.IsActive {
			row.IsActive = false
		}
	}
	return nil
}

func (s *MemStore) DeactivateAllForUser(ctx context.Context, userID int64, exceptTokenID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}

	now := time.Now()
	var count int64
	for _, row := range s.rows {
		if row.UserID == userID && row.Live(now) && (exceptTokenID == "" || row.TokenID != exceptTokenID) {
			row.IsActive = false
			count++
		}
	}
	return count, nil
}

func (s *MemStore) EnforceSessionCap(ctx context.Context, userID int64, maxSessions int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}

	if maxSessions < 1 {
		maxSessions = 1
	}

	now := time.Now()
	var live []*auth.Session
	for _, row := range s.rows {
		if row.UserID == userID && row.Live(now) {
			live = append(live, row)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if !live[i].LastActivityAt.Equal(live[j].LastActivityAt) {
			return live[i].LastActivityAt.After(live[j].LastActivityAt)
		}
		return live[i].LoginAt.After(live[j].LoginAt)
	})

	var evicted int64
	for i := maxSessions; i < len(live); i++ {
		live[i].IsActive = false
		evicted++
	}
	return evicted, nil
}

func (s *MemStore) SweepExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}

	now := time.Now()
	var swept int64
	for _, row := range s.rows {
		if row.IsActive && !row.ExpiresAt.After(now) {
			row.IsActive = false
			swept++
		}
	}
	return swept, nil
}

func (s *MemStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}

	var kept []*auth.Session
	var purged int64
	for _, row := range s.rows {
		if row.LoginAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return purged, nil
}

func (s *MemStore) HasDeviceFingerprint(ctx context.Context, userID int64, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return false, err
	}

	for _, row := range s.rows {
		if row.UserID == userID && row.DeviceFingerprint.Valid && row.DeviceFingerprint.String == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

// MemDirectory is an in-memory session.UserDirectory.
type MemDirectory struct {
	mu       sync.Mutex
	inactive map[int64]bool

	// FailNext forces the next lookup to fail.
	FailNext error
}

func NewMemDirectory() *MemDirectory {
	return &MemDirectory{inactive: make(map[int64]bool)}
}

// SetActive flips an account's enabled flag.
func (d *MemDirectory) SetActive(userID int64, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inactive[userID] = !active
}

func (d *MemDirectory) IsActive(ctx context.Context, userID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailNext != nil {
		err := d.FailNext
		d.FailNext = nil
		return false, err
	}
	return !d.inactive[userID], nil
}
