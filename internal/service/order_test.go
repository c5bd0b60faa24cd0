package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pos-system/internal/model"
)

func newOrderFixture(t *testing.T, items ...model.ProductLineItem) (*OrderService, *memOrderStore, *recordingPublisher) {
	t.Helper()
	store := newMemOrderStore(items...)
	pub := &recordingPublisher{}
	svc := NewOrderService(store, pub)
	quiet(svc.Logger())
	return svc, store, pub
}

func pl1() model.ProductLineItem {
	return model.ProductLineItem{ID: "PL1", ProductName: "Cola", CostCents: 50, DisplayPriceCents: 120, Quantity: 5}
}

func pl2() model.ProductLineItem {
	return model.ProductLineItem{ID: "PL2", ProductName: "Chips", CostCents: 30, DisplayPriceCents: 90, Quantity: 1}
}

func TestCreateOrderDeductsStockAndSnapshots(t *testing.T) {
	svc, store, pub := newOrderFixture(t, pl1())
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, CreateOrderRequest{
		PaymentMethod: "Cash",
		Items:         []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 3}},
	}, "U1", "Jane")
	require.NoError(t, err)
	require.Equal(t, model.OrderCompleted, o.Status)
	require.Equal(t, int64(300), o.TotalAmountCents)
	require.Len(t, o.Items, 1)
	it := o.Items[0]
	require.Equal(t, "Cola", it.ProductName)
	require.Equal(t, int64(120), it.DisplayPriceCents)
	require.Equal(t, int64(50), it.CostCents)
	require.Equal(t, int64(300), it.SubTotalCents)
	require.Equal(t, 2, store.quantity("PL1"))

	// second order for 3 when only 2 remain fails and changes nothing
	_, err = svc.CreateOrder(ctx, CreateOrderRequest{
		PaymentMethod: "Cash",
		Items:         []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 3}},
	}, "U1", "Jane")
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "only 2 available")
	require.Equal(t, 2, store.quantity("PL1"))

	require.Len(t, pub.events, 1)
	require.Equal(t, o.OrderNumber, pub.events[0].OrderNumber)
}

func TestCreateOrderPendingStatus(t *testing.T) {
	svc, _, _ := newOrderFixture(t, pl1())
	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		PaymentMethod: "Card",
		IsPending:     true,
		Items:         []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 1}},
	}, "U1", "Jane")
	require.NoError(t, err)
	require.Equal(t, model.OrderPending, o.Status)
}

func TestCreateOrderIsAllOrNothing(t *testing.T) {
	svc, store, pub := newOrderFixture(t, pl1(), pl2())

	// PL1 is fine, PL2 is short: neither may be deducted
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 2},
			{ProductLineItemID: "PL2", SalesPriceCents: 90, Quantity: 2},
		},
	}, "U1", "Jane")
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 5, store.quantity("PL1"))
	require.Equal(t, 1, store.quantity("PL2"))
	require.Empty(t, pub.events)

	orders, err := svc.GetOrders(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCreateOrderUnknownLineItemRollsBack(t *testing.T) {
	svc, store, _ := newOrderFixture(t, pl1())
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 1},
			{ProductLineItemID: "GHOST", SalesPriceCents: 100, Quantity: 1},
		},
	}, "U1", "Jane")
	require.ErrorIs(t, err, ErrLineItemNotFound)
	require.Contains(t, err.Error(), "GHOST")
	require.Equal(t, 5, store.quantity("PL1"))
}

func TestCreateOrderSameLineItemTwice(t *testing.T) {
	svc, store, _ := newOrderFixture(t, pl1())
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 3},
			{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 3},
		},
	}, "U1", "Jane")
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 5, store.quantity("PL1"))
}

func TestCreateOrderValidatesInput(t *testing.T) {
	svc, _, _ := newOrderFixture(t, pl1())
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderRequest{}, "U1", "Jane")
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.CreateOrder(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 0}},
	}, "U1", "Jane")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CreateOrder(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: -1, Quantity: 1}},
	}, "U1", "Jane")
	require.ErrorIs(t, err, ErrInvalidPrice)
	require.NotErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateOrderPublishFailureIsIgnored(t *testing.T) {
	svc, _, pub := newOrderFixture(t, pl1())
	pub.err = errBoom
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 1}},
	}, "U1", "Jane")
	require.NoError(t, err)
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	svc, store, _ := newOrderFixture(t, pl1())
	ctx := context.Background()

	const workers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		other   []error
		numbers = map[string]bool{}
	)
	start := make(chan struct{})
	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			o, err := svc.CreateOrder(ctx, CreateOrderRequest{
				Items: []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: 100, Quantity: 1}},
			}, "U1", "Jane")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, ErrInsufficientStock) {
					other = append(other, err)
				}
				return
			}
			ok++
			numbers[o.OrderNumber] = true
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	require.Equal(t, 5, ok)
	require.Len(t, numbers, 5, "order numbers must be unique")
	require.Equal(t, 0, store.quantity("PL1"))
}

func TestGetOrdersNewestFirst(t *testing.T) {
	svc, _, _ := newOrderFixture(t, pl1())
	ctx := context.Background()
	first, err := svc.CreateOrder(ctx, CreateOrderRequest{Items: []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: 1, Quantity: 1}}}, "U1", "Jane")
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, CreateOrderRequest{Items: []OrderItemRequest{{ProductLineItemID: "PL1", SalesPriceCents: 1, Quantity: 1}}}, "U1", "Jane")
	require.NoError(t, err)

	orders, err := svc.GetOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, second.ID, orders[0].ID)
	require.Equal(t, first.ID, orders[1].ID)

	got, err := svc.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.OrderNumber, got.OrderNumber)
	_, err = svc.GetOrder(ctx, "missing")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestNewOrderNumberFormat(t *testing.T) {
	at := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	re := regexp.MustCompile(`^INV-20260301-[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for n := 0; n < 200; n++ {
		num := NewOrderNumber(at)
		require.Regexp(t, re, num)
		require.False(t, seen[num])
		seen[num] = true
	}
}
