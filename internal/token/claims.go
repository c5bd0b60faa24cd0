package token

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of an access token.  sub carries the user name
// and nameid the user id; jti links the token to its refresh partner.
type Claims struct {
	UserID   string   `json:"nameid"`
	Name     string   `json:"unique_name"`
	Email    string   `json:"email,omitempty"`
	BranchID string   `json:"branchId,omitempty"`
	Roles    []string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
