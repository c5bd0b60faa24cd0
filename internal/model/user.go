package model

import "time"

// Role names known to the system.  The set is fixed and seeded into the
// `roles` table; registration and role assignment reject anything else.
const (
	RoleAdmin      = "Admin"
	RoleManager    = "Manager"
	RoleCashier    = "Cashier"
	RoleStockClerk = "StockClerk"
	RoleAccountant = "Accountant"
)

// DefaultRole is assigned to newly registered users that did not ask for
// a specific role.
const DefaultRole = RoleCashier

// AllRoles lists every role in the order it is seeded.
var AllRoles = []string{RoleAdmin, RoleManager, RoleCashier, RoleStockClerk, RoleAccountant}

// User mirrors a row of the `users` table.  Role memberships live in
// `user_roles` and are loaded separately.
//
// Fields:
//  ID                – UUID primary key.
//  UserName          – unique login name.
//  Email             – unique email address.
//  PasswordHash      – bcrypt hash.
//  FullName          – display name used for the unique_name claim.
//  EmployeeID        – optional HR identifier.
//  BranchID          – branch the user is scoped to (optional).
//  BranchName        – human readable branch name (optional).
//  IsActive          – soft-disable flag; inactive users cannot log in.
//  AccessFailedCount – consecutive failed password checks.
//  LockoutEnd        – when set and in the future the account is locked.
//  CreatedAt         – creation timestamp.
//  LastLoginAt       – last successful login (nullable).
type User struct {
	ID                string
	UserName          string
	Email             string
	PasswordHash      string
	FullName          string
	EmployeeID        string
	BranchID          string
	BranchName        string
	IsActive          bool
	AccessFailedCount int
	LockoutEnd        *time.Time
	CreatedAt         time.Time
	LastLoginAt       *time.Time
}

// DisplayName returns the full name, falling back to the user name.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.UserName
}

// LockedOut reports whether the account is locked at the given instant.
func (u *User) LockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

// Role represents a row in the `roles` table.
type Role struct {
	ID   uint8  // roles.id
	Name string // roles.name
}
