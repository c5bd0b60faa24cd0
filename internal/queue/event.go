// Package queue carries order events over RabbitMQ: a publisher used by
// the order service and a consumer that appends them to an order log.
package queue

// OrderCreatedQueue is the durable queue order events are routed to.
const OrderCreatedQueue = "order.created"

// OrderCreatedEvent is published after an order commits.  It carries
// enough detail for downstream consumers to log or report the sale
// without reading the primary database.
type OrderCreatedEvent struct {
	OrderID          string           `json:"order_id"`
	OrderNumber      string           `json:"order_number"`
	UserID           string           `json:"user_id"`
	CashierName      string           `json:"cashier_name"`
	Status           string           `json:"status"`
	PaymentMethod    string           `json:"payment_method"`
	TotalAmountCents int64            `json:"total_amount_cents"`
	Items            []OrderEventItem `json:"items"`
	CreatedAt        string           `json:"created_at"`
}

// OrderEventItem is one sold line item.
type OrderEventItem struct {
	ProductLineItemID string `json:"product_line_item_id"`
	ProductName       string `json:"product_name"`
	Quantity          int    `json:"quantity"`
	SubTotalCents     int64  `json:"sub_total_cents"`
}
