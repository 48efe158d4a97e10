package membership

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Patch updates selected profile columns; nil fields are left alone.
type Patch struct {
	Email *string
	Name  *string
	Role  *Role
}

func (p Patch) Empty() bool {
	return p.Email == nil && p.Name == nil && p.Role == nil
}

// ProfileStore persists membership profiles keyed by auth user id.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	// List returns profiles newest first.
	List(ctx context.Context) ([]Profile, error)
	Upsert(ctx context.Context, p Profile) error
	Update(ctx context.Context, userID string, patch Patch) (*Profile, error)
	Revoke(ctx context.Context, userID string, at time.Time) error
}

type MemoryProfileStore struct {
	mu   sync.RWMutex
	rows map[string]Profile
	now  func() time.Time
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{rows: make(map[string]Profile), now: time.Now}
}

func (s *MemoryProfileStore) Get(_ context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[strings.TrimSpace(userID)]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (s *MemoryProfileStore) List(context.Context) ([]Profile, error) {
	s.mu.RLock()
	out := make([]Profile, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryProfileStore) Upsert(_ context.Context, p Profile) error {
	p.UserID = strings.TrimSpace(p.UserID)
	if p.UserID == "" {
		return ErrUserIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.rows[p.UserID]; ok {
		p.CreatedAt = prev.CreatedAt
		if p.LastLoginAt == nil {
			p.LastLoginAt = prev.LastLoginAt
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.rows[p.UserID] = p
	return nil
}

func (s *MemoryProfileStore) Update(_ context.Context, userID string, patch Patch) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	s.rows[userID] = p
	return &p, nil
}

func (s *MemoryProfileStore) Revoke(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.RevokedAt = &at
	s.rows[userID] = p
	return nil
}
