package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/pos-system/internal/identity"
	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/queue"
	"github.com/iliyamo/pos-system/internal/repository"
)

var errBoom = errors.New("boom")

func quiet(l *log.Logger) { l.SetOutput(io.Discard) }

// fakeIdentity implements UserStore, CredentialChecker and RoleManager
// with plain-text passwords.
type fakeIdentity struct {
	mu        sync.Mutex
	users     map[string]*model.User
	passwords map[string]string
	roles     map[string][]string
	known     map[string]bool
	seq       int
	logins    int
	rolesErr  error
	addErr    error
}

func newFakeIdentity() *fakeIdentity {
	f := &fakeIdentity{
		users:     map[string]*model.User{},
		passwords: map[string]string{},
		roles:     map[string][]string{},
		known:     map[string]bool{},
	}
	for _, r := range model.AllRoles {
		f.known[r] = true
	}
	return f
}

func (f *fakeIdentity) add(u *model.User, password string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	f.passwords[u.ID] = password
	f.roles[u.ID] = roles
}

func (f *fakeIdentity) find(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeIdentity) FindByID(_ context.Context, id string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id })
}

func (f *fakeIdentity) FindByUsername(_ context.Context, name string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.UserName == name })
}

func (f *fakeIdentity) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeIdentity) CreateUser(_ context.Context, u *model.User, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	u.ID = fmt.Sprintf("U%d", 100+f.seq)
	f.users[u.ID] = u
	f.passwords[u.ID] = password
	return nil
}

func (f *fakeIdentity) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	delete(f.passwords, id)
	delete(f.roles, id)
	return nil
}

func (f *fakeIdentity) RecordLogin(_ context.Context, _ *model.User) error {
	f.mu.Lock()
	f.logins++
	f.mu.Unlock()
	return nil
}

func (f *fakeIdentity) CheckPassword(_ context.Context, u *model.User, password string, _ bool) (identity.SignInResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return identity.SignInResult{Succeeded: f.passwords[u.ID] == password}, nil
}

func (f *fakeIdentity) ChangePassword(_ context.Context, userID, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.passwords[userID] != current {
		return identity.ErrPasswordMismatch
	}
	f.passwords[userID] = next
	return nil
}

func (f *fakeIdentity) RoleExists(_ context.Context, role string) (bool, error) {
	return f.known[role], nil
}

func (f *fakeIdentity) AddToRole(_ context.Context, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.known[role] {
		return identity.ErrUnknownRole
	}
	if f.addErr != nil {
		return f.addErr
	}
	f.roles[userID] = append(f.roles[userID], role)
	return nil
}

func (f *fakeIdentity) RemoveFromRole(_ context.Context, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.roles[userID] {
		if r == role {
			f.roles[userID] = append(f.roles[userID][:i], f.roles[userID][i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeIdentity) GetRoles(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return append([]string(nil), f.roles[userID]...), nil
}

// fakeTokens implements TokenIssuer and SessionLister.  Tokens are
// "<userID>-<n>" and map to their owner.
type fakeTokens struct {
	mu         sync.Mutex
	roles      RoleManager
	owner      map[string]string
	revoked    map[string]bool
	n          int
	refreshErr error
	listErr    error
}

func newFakeTokens(roles RoleManager) *fakeTokens {
	return &fakeTokens{roles: roles, owner: map[string]string{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) GenerateTokens(ctx context.Context, u *model.User) (*model.AuthResponse, error) {
	roles, err := f.roles.GetRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	tok := fmt.Sprintf("%s-%d", u.ID, f.n)
	f.owner[tok] = u.ID
	return &model.AuthResponse{AccessToken: "access-" + tok, RefreshToken: tok, Roles: roles}, nil
}

func (f *fakeTokens) RefreshTokens(_ context.Context, req model.RefreshRequest) (*model.AuthResponse, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &model.AuthResponse{AccessToken: "new", RefreshToken: "new"}, nil
}

func (f *fakeTokens) RevokeRefreshToken(_ context.Context, tok string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.owner[tok]; !ok || f.revoked[tok] {
		return false, nil
	}
	f.revoked[tok] = true
	return true, nil
}

func (f *fakeTokens) RevokeBatch(ctx context.Context, toks []string) (int64, error) {
	var n int64
	for _, t := range toks {
		if ok, _ := f.RevokeRefreshToken(ctx, t); ok {
			n++
		}
	}
	return n, nil
}

func (f *fakeTokens) ActiveForUser(_ context.Context, userID string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for tok, owner := range f.owner {
		if owner == userID && !f.revoked[tok] {
			out = append(out, tok)
		}
	}
	return out, nil
}

func (f *fakeTokens) active(tok string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.revoked[tok]
}

// memOrderStore keeps stock in memory.  InTx works on a copy of the stock
// map and only swaps it in when fn succeeds, so a failed order leaves
// every quantity untouched.  Transactions are serialized.
type memOrderStore struct {
	mu     sync.Mutex
	stock  map[string]model.ProductLineItem
	orders []model.Order
}

func newMemOrderStore(items ...model.ProductLineItem) *memOrderStore {
	s := &memOrderStore{stock: map[string]model.ProductLineItem{}}
	for _, li := range items {
		s.stock[li.ID] = li
	}
	return s
}

func (s *memOrderStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.OrderTxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memOrderTx{stock: make(map[string]model.ProductLineItem, len(s.stock))}
	for k, v := range s.stock {
		tx.stock[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.stock = tx.stock
	s.orders = append(s.orders, tx.inserted...)
	return nil
}

func (s *memOrderStore) ListWithItems(_ context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		out = append(out, s.orders[i])
	}
	return out, nil
}

func (s *memOrderStore) GetByID(_ context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memOrderStore) quantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[id].Quantity
}

type memOrderTx struct {
	stock    map[string]model.ProductLineItem
	inserted []model.Order
}

func (t *memOrderTx) LockLineItem(_ context.Context, id string) (*model.ProductLineItem, error) {
	li, ok := t.stock[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &li, nil
}

func (t *memOrderTx) DeductStock(_ context.Context, id string, qty int) (bool, error) {
	li, ok := t.stock[id]
	if !ok || li.Quantity < qty {
		return false, nil
	}
	li.Quantity -= qty
	t.stock[id] = li
	return true, nil
}

func (t *memOrderTx) InsertOrder(_ context.Context, o *model.Order) error {
	t.inserted = append(t.inserted, *o)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.OrderCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, ev queue.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}
