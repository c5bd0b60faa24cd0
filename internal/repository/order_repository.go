package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/pos-system/internal/model"
)

// OrderTxStore is the set of operations available to code running inside
// an order transaction.  Every call shares one *sql.Tx.
type OrderTxStore interface {
	// LockLineItem loads a line item and holds a row lock on it until the
	// transaction ends.  ErrNotFound when the id is unknown.
	LockLineItem(ctx context.Context, id string) (*model.ProductLineItem, error)
	// DeductStock reports false when fewer than qty units remain.
	DeductStock(ctx context.Context, id string, qty int) (bool, error)
	// InsertOrder writes the order header and all of its items.
	InsertOrder(ctx context.Context, o *model.Order) error
}

// OrderRepo persists orders and their items.  Orders are written only
// through InTx so that stock deduction and the order rows commit together.
type OrderRepo struct {
	db        *sql.DB
	lineItems *LineItemRepo
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db, lineItems: NewLineItemRepo(db)}
}

// InTx runs fn inside a single database transaction.  The transaction is
// committed when fn returns nil and rolled back otherwise; fn's error is
// returned unchanged so callers can match it with errors.Is.  Cancelling
// ctx aborts the transaction.
func (r *OrderRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx OrderTxStore) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &orderTx{tx: tx, repo: r}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type orderTx struct {
	tx   *sql.Tx
	repo *OrderRepo
}

func (o *orderTx) LockLineItem(ctx context.Context, id string) (*model.ProductLineItem, error) {
	return o.repo.lineItems.GetForUpdateTx(ctx, o.tx, id)
}

func (o *orderTx) DeductStock(ctx context.Context, id string, qty int) (bool, error) {
	return o.repo.lineItems.DeductStockTx(ctx, o.tx, id, qty)
}

func (o *orderTx) InsertOrder(ctx context.Context, ord *model.Order) error {
	if err := o.repo.CreateTx(ctx, o.tx, ord); err != nil {
		return err
	}
	return o.repo.CreateItemsBulkTx(ctx, o.tx, ord.Items)
}

// CreateTx inserts the order header within the scope of an existing
// transaction.  The caller must commit or rollback.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (id, order_number, order_date, total_amount_cents,
		payment_method, user_id, cashier_name, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, o.ID, o.OrderNumber, o.OrderDate, o.TotalAmountCents,
		o.PaymentMethod, o.UserID, o.CashierName, o.Status)
	return translate(err)
}

// CreateItemsBulkTx inserts all order items in one statement.  Passing an
// empty slice has no effect.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO order_items (id, order_id, product_line_item_id, product_name,
		display_price_cents, sales_price_cents, quantity, sub_total_cents, cost_cents) VALUES `)
	args := make([]any, 0, len(items)*9)
	for i, it := range items {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, it.ID, it.OrderID, it.ProductLineItemID, it.ProductName,
			it.DisplayPriceCents, it.SalesPriceCents, it.Quantity, it.SubTotalCents, it.CostCents)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// GetByID returns one order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	const q = `SELECT id, order_number, order_date, total_amount_cents, payment_method,
		user_id, cashier_name, status FROM orders WHERE id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &o.OrderNumber, &o.OrderDate,
		&o.TotalAmountCents, &o.PaymentMethod, &o.UserID, &o.CashierName, &o.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return &o, nil
}

// ListWithItems returns every order, newest first, with its items loaded
// by a second query keyed on the order ids.
func (r *OrderRepo) ListWithItems(ctx context.Context) ([]model.Order, error) {
	const q = `SELECT id, order_number, order_date, total_amount_cents, payment_method,
		user_id, cashier_name, status FROM orders ORDER BY order_date DESC, order_number DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []model.Order{}
	var ids []string
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.OrderDate, &o.TotalAmountCents,
			&o.PaymentMethod, &o.UserID, &o.CashierName, &o.Status); err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []model.OrderItem{}
		}
	}
	return orders, nil
}

func (r *OrderRepo) itemsFor(ctx context.Context, orderIDs []string) (map[string][]model.OrderItem, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	args := make([]any, 0, len(orderIDs))
	for _, id := range orderIDs {
		args = append(args, id)
	}
	q := `SELECT id, order_id, product_line_item_id, product_name, display_price_cents,
		sales_price_cents, quantity, sub_total_cents, cost_cents
		FROM order_items WHERE order_id IN (` + placeholders + `) ORDER BY order_id, product_name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductLineItemID, &it.ProductName,
			&it.DisplayPriceCents, &it.SalesPriceCents, &it.Quantity, &it.SubTotalCents,
			&it.CostCents); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}
