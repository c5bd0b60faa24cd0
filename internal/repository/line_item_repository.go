package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pos-system/internal/model"
)

// LineItemRepo manages `product_line_items`, the stock-carrying rows of
// the catalog.  Prices are integer cents.
type LineItemRepo struct {
	db *sql.DB
}

// NewLineItemRepo constructs a LineItemRepo given a DB handle.
func NewLineItemRepo(db *sql.DB) *LineItemRepo {
	return &LineItemRepo{db: db}
}

const lineItemSelect = `SELECT li.id, li.barcode_id, li.product_id, p.name, li.cost_cents,
	li.display_price_cents, li.discounted_price_cents, li.quantity
	FROM product_line_items li
	JOIN products p ON p.id = li.product_id`

func scanLineItem(row rowScanner) (*model.ProductLineItem, error) {
	var li model.ProductLineItem
	err := row.Scan(&li.ID, &li.BarCodeID, &li.ProductID, &li.ProductName, &li.CostCents,
		&li.DisplayPriceCents, &li.DiscountedPriceCents, &li.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &li, nil
}

// GetForUpdateTx loads a line item together with its product name and
// takes a row lock that lasts until tx ends.  Concurrent orders touching
// the same line item serialize here.
func (r *LineItemRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.ProductLineItem, error) {
	return scanLineItem(tx.QueryRowContext(ctx, lineItemSelect+" WHERE li.id = ? FOR UPDATE", id))
}

// DeductStockTx subtracts qty from the on-hand quantity.  The update only
// applies while enough stock remains, so it reports false instead of
// driving the quantity negative.
func (r *LineItemRepo) DeductStockTx(ctx context.Context, tx *sql.Tx, id string, qty int) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE product_line_items SET quantity = quantity - ? WHERE id = ? AND quantity >= ?",
		qty, id, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetByID returns a single line item.
func (r *LineItemRepo) GetByID(ctx context.Context, id string) (*model.ProductLineItem, error) {
	return scanLineItem(r.db.QueryRowContext(ctx, lineItemSelect+" WHERE li.id = ?", id))
}

// List returns line items, optionally restricted to one product.
func (r *LineItemRepo) List(ctx context.Context, productID string) ([]*model.ProductLineItem, error) {
	q := lineItemSelect
	var args []any
	if productID != "" {
		q += " WHERE li.product_id = ?"
		args = append(args, productID)
	}
	q += " ORDER BY p.name, li.barcode_id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.ProductLineItem{}
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// Create inserts a new line item with its opening stock.
func (r *LineItemRepo) Create(ctx context.Context, li *model.ProductLineItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_line_items (id, barcode_id, product_id, cost_cents,
			display_price_cents, discounted_price_cents, quantity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		li.ID, li.BarCodeID, li.ProductID, li.CostCents,
		li.DisplayPriceCents, li.DiscountedPriceCents, li.Quantity)
	return translate(err)
}

// Update rewrites barcode and prices.  Quantity is left alone; stock only
// moves through orders.
func (r *LineItemRepo) Update(ctx context.Context, li *model.ProductLineItem) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE product_line_items
		 SET barcode_id = ?, cost_cents = ?, display_price_cents = ?, discounted_price_cents = ?
		 WHERE id = ?`,
		li.BarCodeID, li.CostCents, li.DisplayPriceCents, li.DiscountedPriceCents, li.ID)
	if err != nil {
		return translate(err)
	}
	return requireOneRow(res)
}

// Delete removes a line item.  Items referenced by past orders yield
// ErrConflict.
func (r *LineItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM product_line_items WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	return requireOneRow(res)
}
