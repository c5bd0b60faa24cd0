package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pos-system/internal/model"
)

// ProductRepo handles persistence for products.  Products are always
// returned joined with their category name.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productSelect = `SELECT p.id, p.name, p.category_id, c.name
	FROM products p
	JOIN categories c ON c.id = p.category_id`

// Create inserts a product.  A category id that does not exist surfaces
// as ErrNotFound.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	var name string
	err := r.db.QueryRowContext(ctx, "SELECT name FROM categories WHERE id = ?", p.CategoryID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO products (id, name, category_id) VALUES (?, ?, ?)",
		p.ID, p.Name, p.CategoryID); err != nil {
		return translate(err)
	}
	p.CategoryName = name
	return nil
}

// GetByID returns a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.db.QueryRowContext(ctx, productSelect+" WHERE p.id = ?", id).
		Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update rewrites name and category.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET name = ?, category_id = ? WHERE id = ?", p.Name, p.CategoryID, p.ID)
	if err != nil {
		return translate(err)
	}
	return requireOneRow(res)
}

// Delete removes a product.  Products with line items yield ErrConflict.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	return requireOneRow(res)
}
