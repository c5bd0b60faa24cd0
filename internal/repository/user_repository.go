package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/pos-system/internal/model"
)

// UserRepo reads and writes the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, email, password_hash, full_name, employee_id,
	branch_id, branch_name, is_active, access_failed_count, lockout_end,
	created_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u          model.User
		employeeID sql.NullString
		branchID   sql.NullString
		branchName sql.NullString
		lockoutEnd sql.NullTime
		lastLogin  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.FullName, &employeeID,
		&branchID, &branchName, &u.IsActive, &u.AccessFailedCount, &lockoutEnd,
		&u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.EmployeeID = employeeID.String
	u.BranchID = branchID.String
	u.BranchName = branchName.String
	if lockoutEnd.Valid {
		t := lockoutEnd.Time
		u.LockoutEnd = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

// FindByID fetches a user by primary key.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// FindByUsername fetches a user by exact user name.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email)))
}

// Create inserts u.  ID and PasswordHash must already be set.  Unique key
// violations on username or email come back as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Email = normalizeEmail(u.Email)
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, full_name, employee_id,
			branch_id, branch_name, is_active, access_failed_count, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,0,?)`,
		u.ID, u.UserName, u.Email, u.PasswordHash, u.FullName, nullString(u.EmployeeID),
		nullString(u.BranchID), nullString(u.BranchName), u.IsActive, u.CreatedAt)
	return translate(err)
}

// UpdateSignIn persists the lockout counters and the last login stamp.
func (r *UserRepo) UpdateSignIn(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_failed_count=?, lockout_end=?, last_login_at=? WHERE id=?",
		u.AccessFailedCount, nullTime(u.LockoutEnd), nullTime(u.LastLoginAt), u.ID)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// UpdatePasswordHash replaces the stored hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// Delete removes a user.  Role memberships and refresh tokens cascade;
// users that placed orders yield ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return translate(err)
	}
	return requireOneRow(res)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// requireOneRow turns "no row matched" into ErrNotFound.  The DSN sets
// clientFoundRows so an UPDATE that leaves values unchanged still counts.
func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
