// Package service holds the auth orchestrator and the order placement
// engine.  Both depend on narrow interfaces so they can be exercised with
// in-memory fakes.
package service

import (
	"context"
	"errors"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/pos-system/internal/identity"
	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/repository"
)

var (
	// ErrInvalidCredentials is the only failure Login reports.  It does not
	// reveal whether the user name or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrRegistrationFailed covers duplicate users, unknown roles, weak
	// passwords and storage errors alike.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrInvalidRefreshToken is returned by Refresh for every rejected pair.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUserNotFound is returned by GetUser.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore finds and creates users.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User, password string) error
	DeleteUser(ctx context.Context, id string) error
	RecordLogin(ctx context.Context, u *model.User) error
}

// CredentialChecker verifies and changes passwords.
type CredentialChecker interface {
	CheckPassword(ctx context.Context, u *model.User, password string, lockoutOnFailure bool) (identity.SignInResult, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// RoleManager manages role memberships.
type RoleManager interface {
	RoleExists(ctx context.Context, role string) (bool, error)
	AddToRole(ctx context.Context, userID, role string) error
	RemoveFromRole(ctx context.Context, userID, role string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
}

// TokenIssuer issues and revokes token pairs.
type TokenIssuer interface {
	GenerateTokens(ctx context.Context, user *model.User) (*model.AuthResponse, error)
	RefreshTokens(ctx context.Context, req model.RefreshRequest) (*model.AuthResponse, error)
	RevokeRefreshToken(ctx context.Context, token string) (bool, error)
	RevokeBatch(ctx context.Context, tokens []string) (int64, error)
}

// SessionLister lists the unrevoked refresh tokens of a user.
type SessionLister interface {
	ActiveForUser(ctx context.Context, userID string) ([]string, error)
}

// RegisterRequest carries a new user.  Role is optional and defaults to
// Cashier.
type RegisterRequest struct {
	UserName   string
	Email      string
	Password   string
	FullName   string
	EmployeeID string
	BranchID   string
	BranchName string
	Role       string
}

// AuthService orchestrates login, registration, token rotation, logout and
// role management.  Failures never escape as raw errors: token flows
// collapse them to the sentinels above and the remaining operations
// report false or an empty result.  Unexpected errors are logged.
type AuthService struct {
	users    UserStore
	creds    CredentialChecker
	roles    RoleManager
	tokens   TokenIssuer
	sessions SessionLister
	log      *log.Logger
}

// NewAuthService wires an AuthService.
func NewAuthService(users UserStore, creds CredentialChecker, roles RoleManager, tokens TokenIssuer, sessions SessionLister) *AuthService {
	return &AuthService{
		users:    users,
		creds:    creds,
		roles:    roles,
		tokens:   tokens,
		sessions: sessions,
		log:      log.New("auth"),
	}
}

// Logger exposes the service logger so callers can redirect it.
func (s *AuthService) Logger() *log.Logger { return s.log }

// Login authenticates by user name, falling back to email, and issues a
// token pair.  Failed password checks count towards lockout.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	u, err := s.lookup(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Errorf("login lookup %q: %v", username, err)
		}
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.log.Warnj(log.JSON{"event": "login_inactive", "user_id": u.ID})
		return nil, ErrInvalidCredentials
	}

	res, err := s.creds.CheckPassword(ctx, u, password, true)
	if err != nil {
		s.log.Errorf("check password for %s: %v", u.ID, err)
		return nil, ErrInvalidCredentials
	}
	if !res.Succeeded {
		s.log.Warnj(log.JSON{"event": "login_failed", "user_id": u.ID, "locked_out": res.IsLockedOut})
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordLogin(ctx, u); err != nil {
		s.log.Warnf("record login for %s: %v", u.ID, err)
	}
	out, err := s.tokens.GenerateTokens(ctx, u)
	if err != nil {
		s.log.Errorf("generate tokens for %s: %v", u.ID, err)
		return nil, ErrInvalidCredentials
	}
	s.log.Infoj(log.JSON{"event": "login", "user_id": u.ID})
	return out, nil
}

func (s *AuthService) lookup(ctx context.Context, name string) (*model.User, error) {
	u, err := s.users.FindByUsername(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return s.users.FindByEmail(ctx, name)
	}
	return u, err
}

// Register creates an active user, assigns the requested role (or
// Cashier) and issues a token pair.  A user whose role assignment fails
// is deleted again.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.AuthResponse, error) {
	if req.UserName == "" || req.Email == "" || req.Password == "" {
		return nil, ErrRegistrationFailed
	}
	if exists, err := s.userExists(ctx, req.UserName, req.Email); err != nil || exists {
		if err != nil {
			s.log.Errorf("register lookup: %v", err)
		}
		return nil, ErrRegistrationFailed
	}

	role := req.Role
	if role == "" {
		role = model.DefaultRole
	}
	ok, err := s.roles.RoleExists(ctx, role)
	if err != nil || !ok {
		if err != nil {
			s.log.Errorf("register role check: %v", err)
		}
		return nil, ErrRegistrationFailed
	}

	u := &model.User{
		UserName:   req.UserName,
		Email:      req.Email,
		FullName:   req.FullName,
		EmployeeID: req.EmployeeID,
		BranchID:   req.BranchID,
		BranchName: req.BranchName,
		IsActive:   true,
	}
	if err := s.users.CreateUser(ctx, u, req.Password); err != nil {
		s.log.Warnf("create user %q: %v", req.UserName, err)
		return nil, ErrRegistrationFailed
	}
	if err := s.roles.AddToRole(ctx, u.ID, role); err != nil {
		s.log.Errorf("assign %s to %s: %v", role, u.ID, err)
		if derr := s.users.DeleteUser(ctx, u.ID); derr != nil {
			s.log.Errorf("remove roleless user %s: %v", u.ID, derr)
		}
		return nil, ErrRegistrationFailed
	}

	out, err := s.tokens.GenerateTokens(ctx, u)
	if err != nil {
		s.log.Errorf("generate tokens for %s: %v", u.ID, err)
		return nil, ErrRegistrationFailed
	}
	s.log.Infoj(log.JSON{"event": "register", "user_id": u.ID, "role": role})
	return out, nil
}

func (s *AuthService) userExists(ctx context.Context, username, email string) (bool, error) {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	return false, nil
}

// Refresh rotates a token pair.
func (s *AuthService) Refresh(ctx context.Context, req model.RefreshRequest) (*model.AuthResponse, error) {
	out, err := s.tokens.RefreshTokens(ctx, req)
	if err != nil {
		s.log.Warnj(log.JSON{"event": "refresh_rejected", "error": err.Error()})
		return nil, ErrInvalidRefreshToken
	}
	s.log.Infoj(log.JSON{"event": "refresh"})
	return out, nil
}

// RevokeToken revokes a single refresh token.  False when it was unknown
// or already revoked.
func (s *AuthService) RevokeToken(ctx context.Context, token string) bool {
	ok, err := s.tokens.RevokeRefreshToken(ctx, token)
	if err != nil {
		s.log.Errorf("revoke token: %v", err)
		return false
	}
	return ok
}

// Logout revokes every unrevoked refresh token of userID.  A user without
// tokens logs out successfully; only storage errors yield false.
func (s *AuthService) Logout(ctx context.Context, userID string) bool {
	toks, err := s.sessions.ActiveForUser(ctx, userID)
	if err != nil {
		s.log.Errorf("list sessions for %s: %v", userID, err)
		return false
	}
	n, err := s.tokens.RevokeBatch(ctx, toks)
	if err != nil {
		s.log.Errorf("revoke sessions for %s: %v", userID, err)
		return false
	}
	s.log.Infoj(log.JSON{"event": "logout", "user_id": userID, "revoked": n})
	return true
}

// ChangePassword replaces the password after checking the current one.
// Absent and inactive users get false.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) bool {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil || !u.IsActive {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.log.Errorf("change password lookup %s: %v", userID, err)
		}
		return false
	}
	if err := s.creds.ChangePassword(ctx, userID, current, next); err != nil {
		s.log.Warnf("change password for %s: %v", userID, err)
		return false
	}
	return true
}

// GetUser returns the profile of userID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		s.log.Errorf("get user %s: %v", userID, err)
		return nil, err
	}
	return u, nil
}

// AssignRole adds userID to role.
func (s *AuthService) AssignRole(ctx context.Context, userID, role string) bool {
	if err := s.roles.AddToRole(ctx, userID, role); err != nil {
		s.log.Warnf("assign %s to %s: %v", role, userID, err)
		return false
	}
	return true
}

// RemoveRole removes userID from role.
func (s *AuthService) RemoveRole(ctx context.Context, userID, role string) bool {
	if err := s.roles.RemoveFromRole(ctx, userID, role); err != nil {
		s.log.Warnf("remove %s from %s: %v", role, userID, err)
		return false
	}
	return true
}

// GetUserRoles returns the roles of userID, or an empty slice on failure.
func (s *AuthService) GetUserRoles(ctx context.Context, userID string) []string {
	roles, err := s.roles.GetRoles(ctx, userID)
	if err != nil {
		s.log.Warnf("get roles for %s: %v", userID, err)
		return []string{}
	}
	if roles == nil {
		return []string{}
	}
	return roles
}
