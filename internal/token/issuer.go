// Package token issues, rotates and revokes the JWT access token and
// opaque refresh token pairs handed out at login.
package token

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/repository"
	"github.com/iliyamo/pos-system/internal/utils"
)

// MinKeyLength is the shortest HS256 secret New accepts.
const MinKeyLength = 32

// refreshTokenBytes is the amount of entropy in a refresh token.
const refreshTokenBytes = 64

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrInvalidRefreshToken covers every reason a refresh attempt is
	// refused.  Callers cannot tell the causes apart.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidToken is returned by ParseAccess.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrWeakKey is returned by New when the secret is too short.
	ErrWeakKey = errors.New("jwt secret must be at least 32 bytes")
)

// Store persists refresh tokens.  repository.TokenRepo implements it.
type Store interface {
	Create(ctx context.Context, t *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	Consume(ctx context.Context, token string, now time.Time) (bool, error)
	Revoke(ctx context.Context, token string) (bool, error)
	RevokeBatch(ctx context.Context, tokens []string) (int64, error)
}

// RoleLookup returns the role names embedded in access tokens.
type RoleLookup interface {
	GetRoles(ctx context.Context, userID string) ([]string, error)
}

// UserLookup loads the owner of a refresh token during rotation.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Config carries the signing parameters.  Non-positive lifetimes fall back
// to 15 minutes and 7 days.
type Config struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issuer signs access tokens and manages refresh token rotation.
type Issuer struct {
	cfg   Config
	key   []byte
	store Store
	roles RoleLookup
	users UserLookup
	now   func() time.Time
	log   *log.Logger
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithLogger overrides the logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Issuer) { i.log = l }
}

// New validates cfg and returns an Issuer.
func New(cfg Config, store Store, roles RoleLookup, users UserLookup, opts ...Option) (*Issuer, error) {
	if len(cfg.Secret) < MinKeyLength {
		return nil, ErrWeakKey
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("jwt issuer and audience are required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	i := &Issuer{
		cfg:   cfg,
		key:   []byte(cfg.Secret),
		store: store,
		roles: roles,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.New("token"),
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// GenerateTokens signs a fresh access token for user and stores a new
// refresh token bound to it through the jti claim.
func (i *Issuer) GenerateTokens(ctx context.Context, user *model.User) (*model.AuthResponse, error) {
	roles, err := i.roles.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	if roles == nil {
		roles = []string{}
	}

	now := i.now().Truncate(time.Second)
	exp := now.Add(i.cfg.AccessTTL)
	jti := uuid.NewString()
	claims := Claims{
		UserID:   user.ID,
		Name:     user.DisplayName(),
		Email:    user.Email,
		BranchID: user.BranchID,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserName,
			ID:        jti,
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	raw, err := utils.RandomBase64(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	rt := &model.RefreshToken{
		Token:        raw,
		JwtID:        jti,
		CreationDate: now,
		ExpiryDate:   now.Add(i.cfg.RefreshTTL),
		UserID:       user.ID,
	}
	if err := i.store.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &model.AuthResponse{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresAt:    exp,
		Roles:        roles,
	}, nil
}

// RefreshTokens exchanges a refresh token and the access token it was
// issued with for a new pair.  The access token may be expired but must
// otherwise be genuine.  The stored refresh token is consumed with a
// conditional update, so of several concurrent calls with the same token
// at most one succeeds.
func (i *Issuer) RefreshTokens(ctx context.Context, req model.RefreshRequest) (*model.AuthResponse, error) {
	claims, err := i.decodeIgnoringExpiry(req.AccessToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := i.store.GetByToken(ctx, req.RefreshToken)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	now := i.now()
	if stored.UserID != claims.UserID || stored.JwtID != claims.ID {
		return nil, ErrInvalidRefreshToken
	}
	if stored.State(now) != model.TokenActive {
		return nil, ErrInvalidRefreshToken
	}

	won, err := i.store.Consume(ctx, stored.Token, now)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if !won {
		i.log.Warnj(log.JSON{"event": "refresh_conflict", "user_id": stored.UserID})
		return nil, ErrInvalidRefreshToken
	}

	user, err := i.users.FindByID(ctx, stored.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}
	return i.GenerateTokens(ctx, user)
}

// RevokeRefreshToken revokes a single refresh token.  It reports false
// when the token is unknown or was already revoked.
func (i *Issuer) RevokeRefreshToken(ctx context.Context, token string) (bool, error) {
	return i.store.Revoke(ctx, token)
}

// RevokeBatch revokes every listed token and returns how many were still
// unrevoked.
func (i *Issuer) RevokeBatch(ctx context.Context, tokens []string) (int64, error) {
	return i.store.RevokeBatch(ctx, tokens)
}

// ParseAccess fully validates an access token: signature, HS256, issuer,
// audience and expiry with no leeway.
func (i *Issuer) ParseAccess(raw string) (*Claims, error) {
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithAudience(i.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	claims := &Claims{}
	tok, err := p.ParseWithClaims(raw, claims, i.keyFunc)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// decodeIgnoringExpiry checks signature, algorithm, issuer and audience
// but accepts tokens whose exp has passed.
func (i *Issuer) decodeIgnoringExpiry(raw string) (*Claims, error) {
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	tok, err := p.ParseWithClaims(raw, claims, i.keyFunc)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != i.cfg.Issuer || !slices.Contains(claims.Audience, i.cfg.Audience) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return i.key, nil
}
