package token

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/repository"
)

type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]*model.RefreshToken
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]*model.RefreshToken{}}
}

func (s *memStore) Create(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	cp := *t
	s.rows[t.Token] = &cp
	return nil
}

func (s *memStore) GetByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) Consume(_ context.Context, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[token]
	if !ok || t.Used || t.Revoked || !t.ExpiryDate.After(now) {
		return false, nil
	}
	t.Used, t.Revoked = true, true
	return true, nil
}

func (s *memStore) Revoke(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[token]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

func (s *memStore) RevokeBatch(ctx context.Context, tokens []string) (int64, error) {
	var n int64
	for _, tok := range tokens {
		ok, _ := s.Revoke(ctx, tok)
		if ok {
			n++
		}
	}
	return n, nil
}

func (s *memStore) get(token string) model.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rows[token]
}

type staticRoles map[string][]string

func (r staticRoles) GetRoles(_ context.Context, userID string) ([]string, error) {
	return r[userID], nil
}

type staticUsers map[string]*model.User

func (u staticUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	usr, ok := u[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return usr, nil
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
