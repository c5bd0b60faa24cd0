package model

import "time"

// Order statuses.
const (
	OrderPending   = "Pending"
	OrderCompleted = "Completed"
)

// Order records a sale rung up by a cashier.  It owns its items; deleting
// an order cascades to `order_items`.
//
// Fields:
//  ID               – UUID primary key.
//  OrderNumber      – human readable invoice number (INV-YYYYMMDD-XXXXXXXX).
//  OrderDate        – creation timestamp (UTC).
//  TotalAmountCents – sum of item subtotals.
//  PaymentMethod    – Cash, Card, ...
//  UserID           – user that placed the order.
//  CashierName      – display name of that user at the time of sale.
//  Status           – Pending or Completed.
type Order struct {
	ID               string      `json:"id"`
	OrderNumber      string      `json:"order_number"`
	OrderDate        time.Time   `json:"order_date"`
	TotalAmountCents int64       `json:"total_amount_cents"`
	PaymentMethod    string      `json:"payment_method"`
	UserID           string      `json:"-"`
	CashierName      string      `json:"cashier_name"`
	Status           string      `json:"status"`
	Items            []OrderItem `json:"items"`
}

// OrderItem is a snapshot of a line item at the moment of sale.  The
// name, prices and cost are copied from inventory and must never be
// recomputed from the live row afterwards.
type OrderItem struct {
	ID                string `json:"id"`
	OrderID           string `json:"-"`
	ProductLineItemID string `json:"product_line_item_id"`
	ProductName       string `json:"product_name"`
	DisplayPriceCents int64  `json:"display_price_cents"`
	SalesPriceCents   int64  `json:"sales_price_cents"`
	Quantity          int    `json:"quantity"`
	SubTotalCents     int64  `json:"sub_total_cents"`
	CostCents         int64  `json:"-"`
}
