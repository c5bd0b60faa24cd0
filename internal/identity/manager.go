// Package identity owns user credentials: password hashing, the password
// policy, failed-attempt lockout and role membership.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/utils"
)

var (
	// ErrPasswordMismatch is returned by ChangePassword when the current
	// password is wrong.
	ErrPasswordMismatch = errors.New("current password does not match")
	// ErrUnknownRole is returned when a role name is not seeded.
	ErrUnknownRole = errors.New("unknown role")
	// ErrInactiveUser is returned by ChangePassword for a deactivated
	// account.
	ErrInactiveUser = errors.New("user is inactive")
)

// UserStore persists users.  repository.UserRepo implements it.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdateSignIn(ctx context.Context, u *model.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// RoleStore persists role memberships.  repository.RoleRepo implements it.
type RoleStore interface {
	RoleExists(ctx context.Context, name string) (bool, error)
	AddToRole(ctx context.Context, userID, role string) error
	RemoveFromRole(ctx context.Context, userID, role string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
}

// Config tunes hashing and lockout.
type Config struct {
	BcryptCost        int
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	Policy            utils.PasswordPolicy
}

// SignInResult is the outcome of CheckPassword.
type SignInResult struct {
	Succeeded   bool
	IsLockedOut bool
}

// Manager implements the credential and role operations used by the auth
// service on top of a UserStore and a RoleStore.
type Manager struct {
	users UserStore
	roles RoleStore
	cfg   Config
	now   func() time.Time
}

// NewManager returns a Manager.  Zero lockout settings default to five
// attempts and five minutes.
func NewManager(users UserStore, roles RoleStore, cfg Config) *Manager {
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 5 * time.Minute
	}
	return &Manager{
		users: users,
		roles: roles,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for lockout decisions.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

func (m *Manager) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.users.FindByID(ctx, id)
}

func (m *Manager) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.users.FindByUsername(ctx, username)
}

func (m *Manager) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.users.FindByEmail(ctx, email)
}

// CreateUser validates password against the policy, hashes it and stores
// u.  An empty ID is filled with a new UUID.
func (m *Manager) CreateUser(ctx context.Context, u *model.User, password string) error {
	if err := m.cfg.Policy.Check(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password, m.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.UserName = strings.TrimSpace(u.UserName)
	u.PasswordHash = hash
	u.CreatedAt = m.now()
	return m.users.Create(ctx, u)
}

// DeleteUser removes a user and, through the foreign keys, its role
// memberships and refresh tokens.
func (m *Manager) DeleteUser(ctx context.Context, id string) error {
	return m.users.Delete(ctx, id)
}

// CheckPassword verifies password for u.  A locked account is refused
// without looking at the password.  When lockoutOnFailure is set, each
// miss increments the failure counter and reaching the limit locks the
// account for the configured duration.  A success clears the counter.
func (m *Manager) CheckPassword(ctx context.Context, u *model.User, password string, lockoutOnFailure bool) (SignInResult, error) {
	now := m.now()
	if u.LockedOut(now) {
		return SignInResult{IsLockedOut: true}, nil
	}

	if utils.VerifyPassword(u.PasswordHash, password) {
		if u.AccessFailedCount != 0 || u.LockoutEnd != nil {
			u.AccessFailedCount = 0
			u.LockoutEnd = nil
			if err := m.users.UpdateSignIn(ctx, u); err != nil {
				return SignInResult{}, err
			}
		}
		return SignInResult{Succeeded: true}, nil
	}

	if !lockoutOnFailure {
		return SignInResult{}, nil
	}
	u.AccessFailedCount++
	locked := false
	if u.AccessFailedCount >= m.cfg.MaxFailedAttempts {
		end := now.Add(m.cfg.LockoutDuration)
		u.LockoutEnd = &end
		u.AccessFailedCount = 0
		locked = true
	}
	if err := m.users.UpdateSignIn(ctx, u); err != nil {
		return SignInResult{}, err
	}
	return SignInResult{IsLockedOut: locked}, nil
}

// RecordLogin stamps the last successful login.
func (m *Manager) RecordLogin(ctx context.Context, u *model.User) error {
	now := m.now()
	u.LastLoginAt = &now
	return m.users.UpdateSignIn(ctx, u)
}

// ChangePassword replaces the password of userID after verifying the
// current one.  Inactive users are refused.  The new password must
// satisfy the policy.
func (m *Manager) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return ErrInactiveUser
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return ErrPasswordMismatch
	}
	if err := m.cfg.Policy.Check(next); err != nil {
		return err
	}
	hash, err := utils.HashPassword(next, m.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return m.users.UpdatePasswordHash(ctx, userID, hash)
}

func (m *Manager) RoleExists(ctx context.Context, role string) (bool, error) {
	return m.roles.RoleExists(ctx, role)
}

// AddToRole adds userID to role.  The user must exist and the role must
// be seeded.
func (m *Manager) AddToRole(ctx context.Context, userID, role string) error {
	ok, err := m.roles.RoleExists(ctx, role)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownRole
	}
	if _, err := m.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return m.roles.AddToRole(ctx, userID, role)
}

func (m *Manager) RemoveFromRole(ctx context.Context, userID, role string) error {
	return m.roles.RemoveFromRole(ctx, userID, role)
}

func (m *Manager) GetRoles(ctx context.Context, userID string) ([]string, error) {
	return m.roles.GetRoles(ctx, userID)
}
