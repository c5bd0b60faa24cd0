package utils

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword is returned by PasswordPolicy.Check.
var ErrWeakPassword = errors.New("password does not meet policy")

// PasswordPolicy describes the minimum strength of a new password.
type PasswordPolicy struct {
	MinLength    int
	RequireDigit bool
	RequireUpper bool
	RequireLower bool
	RequireOther bool // at least one character that is not a letter or digit
}

// DefaultPasswordPolicy requires six characters mixing digits, upper and
// lower case letters and at least one symbol.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:    6,
	RequireDigit: true,
	RequireUpper: true,
	RequireLower: true,
	RequireOther: true,
}

// Check returns ErrWeakPassword when plain violates the policy.
func (p PasswordPolicy) Check(plain string) error {
	var digit, upper, lower, other bool
	n := 0
	for _, r := range plain {
		n++
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case !unicode.IsLetter(r):
			other = true
		}
	}
	if n < p.MinLength ||
		(p.RequireDigit && !digit) ||
		(p.RequireUpper && !upper) ||
		(p.RequireLower && !lower) ||
		(p.RequireOther && !other) {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword returns bcrypt hash using the given cost.  Costs outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
