package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/queue"
	"github.com/iliyamo/pos-system/internal/repository"
)

var (
	// ErrEmptyOrder is returned for an order without items.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrInvalidQuantity is returned for a non-positive item quantity.
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	// ErrInvalidPrice is returned for a negative sales price.
	ErrInvalidPrice = errors.New("item sales price must not be negative")
	// ErrLineItemNotFound is returned when a requested line item does not
	// exist.  The wrapped message names the id.
	ErrLineItemNotFound = errors.New("product line item not found")
	// ErrInsufficientStock is returned when an item asks for more units
	// than are on hand.  The wrapped message names the id and the stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound is returned by GetOrder.
	ErrOrderNotFound = errors.New("order not found")
)

// OrderStore runs order writes in a transaction and reads orders back.
// repository.OrderRepo implements it.
type OrderStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx repository.OrderTxStore) error) error
	ListWithItems(ctx context.Context) ([]model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
}

// EventPublisher receives committed orders.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error
}

// OrderItemRequest is one requested line.  SalesPriceCents is the price
// the cashier charges per unit.
type OrderItemRequest struct {
	ProductLineItemID string
	SalesPriceCents   int64
	Quantity          int
}

// CreateOrderRequest describes an order to place.
type CreateOrderRequest struct {
	PaymentMethod string
	IsPending     bool
	Items         []OrderItemRequest
}

// OrderService places orders and lists them.
type OrderService struct {
	store     OrderStore
	publisher EventPublisher
	now       func() time.Time
	log       *log.Logger
}

// NewOrderService wires an OrderService.  publisher may be nil.
func NewOrderService(store OrderStore, publisher EventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.New("orders"),
	}
}

// Logger exposes the service logger so callers can redirect it.
func (s *OrderService) Logger() *log.Logger { return s.log }

// CreateOrder places an order in a single transaction.  Every item locks
// its line item row, snapshots name, display price and cost, checks stock
// and deducts it.  The first failure rolls back everything and is
// returned to the caller; nothing is partially applied.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest, userID, cashierName string) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if it.SalesPriceCents < 0 {
			return nil, ErrInvalidPrice
		}
	}

	now := s.now()
	status := model.OrderCompleted
	if req.IsPending {
		status = model.OrderPending
	}
	order := &model.Order{
		ID:            uuid.NewString(),
		OrderNumber:   NewOrderNumber(now),
		OrderDate:     now,
		PaymentMethod: req.PaymentMethod,
		UserID:        userID,
		CashierName:   cashierName,
		Status:        status,
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.OrderTxStore) error {
		order.TotalAmountCents = 0
		order.Items = make([]model.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			li, err := tx.LockLineItem(ctx, it.ProductLineItemID)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: product %s not found", ErrLineItemNotFound, it.ProductLineItemID)
			}
			if err != nil {
				return err
			}

			item := model.OrderItem{
				ID:                uuid.NewString(),
				OrderID:           order.ID,
				ProductLineItemID: li.ID,
				ProductName:       li.ProductName,
				DisplayPriceCents: li.DisplayPriceCents,
				CostCents:         li.CostCents,
				SalesPriceCents:   it.SalesPriceCents,
				Quantity:          it.Quantity,
				SubTotalCents:     it.SalesPriceCents * int64(it.Quantity),
			}
			order.TotalAmountCents += item.SubTotalCents

			if it.Quantity > li.Quantity {
				return fmt.Errorf("%w: not enough stock for %s, only %d available", ErrInsufficientStock, li.ID, li.Quantity)
			}
			ok, err := tx.DeductStock(ctx, li.ID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: not enough stock for %s", ErrInsufficientStock, li.ID)
			}
			order.Items = append(order.Items, item)
		}
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		s.log.Warnj(log.JSON{"event": "order_rejected", "user_id": userID, "error": err.Error()})
		return nil, err
	}

	s.log.Infoj(log.JSON{"event": "order_created", "order_id": order.ID, "order_number": order.OrderNumber, "total_cents": order.TotalAmountCents})
	s.publish(ctx, order)
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, o *model.Order) {
	if s.publisher == nil {
		return
	}
	ev := queue.OrderCreatedEvent{
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		UserID:           o.UserID,
		CashierName:      o.CashierName,
		Status:           o.Status,
		PaymentMethod:    o.PaymentMethod,
		TotalAmountCents: o.TotalAmountCents,
		CreatedAt:        o.OrderDate.Format(time.RFC3339),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, queue.OrderEventItem{
			ProductLineItemID: it.ProductLineItemID,
			ProductName:       it.ProductName,
			Quantity:          it.Quantity,
			SubTotalCents:     it.SubTotalCents,
		})
	}
	if err := s.publisher.PublishOrderCreated(ctx, ev); err != nil {
		s.log.Warnf("publish order %s: %v", o.ID, err)
	}
}

// GetOrders returns all orders with their items, newest first.
func (s *OrderService) GetOrders(ctx context.Context) ([]model.Order, error) {
	return s.store.ListWithItems(ctx)
}

// GetOrder returns a single order.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// NewOrderNumber formats INV-YYYYMMDD-XXXXXXXX where the suffix is the
// first eight hex digits of a random UUID, upper-cased.
func NewOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "INV-" + t.Format("20060102") + "-" + suffix
}
