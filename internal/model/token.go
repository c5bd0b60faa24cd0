package model

import "time"

// TokenState is the lifecycle position of a stored refresh token.
// Active is the only non-terminal state.
type TokenState string

const (
	TokenActive   TokenState = "ACTIVE"
	TokenConsumed TokenState = "CONSUMED"
	TokenRevoked  TokenState = "REVOKED"
	TokenExpired  TokenState = "EXPIRED"
)

// RefreshToken models an entry in the `refresh_tokens` table.  The raw
// token string is the lookup key; JwtID binds it to the access token it
// was issued alongside.
//
// Fields:
//  ID           – surrogate primary key.
//  Token        – opaque random string (unique).
//  JwtID        – jti claim of the companion access token.
//  CreationDate – when the pair was issued.
//  ExpiryDate   – after this instant the token cannot be exchanged.
//  Used         – set once the token was exchanged by a refresh.
//  Revoked      – set by logout, explicit revoke or rotation.
//  UserID       – owner.
type RefreshToken struct {
	ID           int64
	Token        string
	JwtID        string
	CreationDate time.Time
	ExpiryDate   time.Time
	Used         bool
	Revoked      bool
	UserID       string
}

// State derives the lifecycle state from the persisted flags.  A consumed
// token is always revoked as well, so Used is checked first.
func (t *RefreshToken) State(now time.Time) TokenState {
	switch {
	case t.Used:
		return TokenConsumed
	case t.Revoked:
		return TokenRevoked
	case !t.ExpiryDate.After(now):
		return TokenExpired
	default:
		return TokenActive
	}
}

// AuthResponse is returned by every flow that issues a token pair.
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Roles        []string  `json:"roles"`
}

// RefreshRequest carries the (possibly expired) access token together
// with the refresh token it was issued with.
type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
