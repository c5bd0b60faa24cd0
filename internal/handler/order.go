package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/middleware"
	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/service"
)

// OrderAPI is the slice of service.OrderService the handlers call.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest, userID, cashierName string) (*model.Order, error)
	GetOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
}

// OrderHandler serves /v1/orders.
type OrderHandler struct {
	Orders OrderAPI
}

func NewOrderHandler(orders OrderAPI) *OrderHandler {
	if orders == nil {
		panic("nil order service passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders}
}

// CreateOrder places an order for the authenticated cashier.  Stock and
// lookup failures are reported with their message; the whole order is
// rejected in that case.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "user id not found in token")
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	o, err := h.Orders.CreateOrder(ctx, toCreateOrderRequest(req), uid, middleware.DisplayName(c))
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, toOrderResp(o))
	case errors.Is(err, service.ErrLineItemNotFound):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInsufficientStock):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	default:
		c.Logger().Errorf("create order: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "could not create order")
	}
}

// ListOrders returns every order with its items, newest first.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	orders, err := h.Orders.GetOrders(ctx)
	if err != nil {
		c.Logger().Errorf("list orders: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, toOrderResps(orders))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, id)
	if errors.Is(err, service.ErrOrderNotFound) {
		return errorJSON(c, http.StatusNotFound, "order not found")
	}
	if err != nil {
		c.Logger().Errorf("get order %s: %v", id, err)
		return errorJSON(c, http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, toOrderResp(o))
}
