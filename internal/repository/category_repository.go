package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pos-system/internal/model"
)

// CategoryRepo encapsulates all database queries related to categories.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo constructs a CategoryRepo with the provided DB handle.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create inserts a new category.  ID must be set by the caller; CreatedAt
// is read back so the returned record matches the row.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	if _, err := r.db.ExecContext(ctx, "INSERT INTO categories (id, name) VALUES (?, ?)", c.ID, c.Name); err != nil {
		return translate(err)
	}
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM categories WHERE id = ?", c.ID).Scan(&c.CreatedAt)
}

// GetByID fetches a category by id.
func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := r.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Category{}
	for rows.Next() {
		c := new(model.Category)
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateName renames a category.
func (r *CategoryRepo) UpdateName(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE categories SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return translate(err)
	}
	return requireOneRow(res)
}

// Delete removes a category.  Categories that still own products yield
// ErrConflict.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	return requireOneRow(res)
}
