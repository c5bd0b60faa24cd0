package repository

import (
	"context"
	"database/sql"
	"errors"
)

// RoleRepo manages the `roles` lookup table and `user_roles` memberships.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// RoleExists reports whether a role with the given name is seeded.
func (r *RoleRepo) RoleExists(ctx context.Context, name string) (bool, error) {
	var id uint8
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM roles WHERE name=? LIMIT 1", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddToRole links user to role.  Adding an existing membership is a no-op.
// ErrNotFound is returned when the role does not exist.
func (r *RoleRepo) AddToRole(ctx context.Context, userID, role string) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO user_roles (user_id, role_id)
		 SELECT ?, id FROM roles WHERE name=?`, userID, role)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		ok, err := r.RoleExists(ctx, role)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
	}
	return nil
}

// RemoveFromRole deletes the membership.  ErrNotFound is returned when the
// user was not in the role.
func (r *RoleRepo) RemoveFromRole(ctx context.Context, userID, role string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE ur FROM user_roles ur
		 JOIN roles ro ON ro.id = ur.role_id
		 WHERE ur.user_id=? AND ro.name=?`, userID, role)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// GetRoles returns the role names of a user ordered by role id.
func (r *RoleRepo) GetRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ro.name FROM user_roles ur
		 JOIN roles ro ON ro.id = ur.role_id
		 WHERE ur.user_id=? ORDER BY ro.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}
