package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/middleware"
	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/repository"
	"github.com/iliyamo/pos-system/internal/service"
)

var errBoom = errors.New("boom")

// reqOpts tweaks a test request before the handler runs.
type reqOpts struct {
	userID string
	name   string
	params map[string]string
}

// call runs h against a fresh echo context and returns the recorder.
func call(h echo.HandlerFunc, method, target, body string, o reqOpts) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if o.userID != "" {
		c.Set(middleware.CtxUserID, o.userID)
	}
	if o.name != "" {
		c.Set(middleware.CtxName, o.name)
	}
	var names, values []string
	for k, v := range o.params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func withID(id string) reqOpts { return reqOpts{params: map[string]string{"id": id}} }

// fakeAuth records its inputs and answers from fixed fields.
type fakeAuth struct {
	loginErr    error
	registerErr error
	refreshErr  error
	ok          bool
	user        *model.User
	roles       []string

	lastUser     string
	lastPassword string
	lastRegister service.RegisterRequest
	lastRefresh  model.RefreshRequest
}

func (f *fakeAuth) pair() *model.AuthResponse {
	return &model.AuthResponse{AccessToken: "access", RefreshToken: "refresh", Roles: f.roles}
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*model.AuthResponse, error) {
	f.lastUser, f.lastPassword = username, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.pair(), nil
}

func (f *fakeAuth) Register(_ context.Context, req service.RegisterRequest) (*model.AuthResponse, error) {
	f.lastRegister = req
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.pair(), nil
}

func (f *fakeAuth) Refresh(_ context.Context, req model.RefreshRequest) (*model.AuthResponse, error) {
	f.lastRefresh = req
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.pair(), nil
}

func (f *fakeAuth) RevokeToken(context.Context, string) bool { return f.ok }

func (f *fakeAuth) Logout(_ context.Context, userID string) bool {
	f.lastUser = userID
	return f.ok
}

func (f *fakeAuth) ChangePassword(context.Context, string, string, string) bool { return f.ok }

func (f *fakeAuth) GetUser(_ context.Context, id string) (*model.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, service.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeAuth) AssignRole(context.Context, string, string) bool { return f.ok }
func (f *fakeAuth) RemoveRole(context.Context, string, string) bool { return f.ok }

func (f *fakeAuth) GetUserRoles(context.Context, string) []string {
	if f.roles == nil {
		return []string{}
	}
	return f.roles
}

// fakeOrders returns a canned order or error.
type fakeOrders struct {
	err    error
	orders []model.Order

	lastReq     service.CreateOrderRequest
	lastUserID  string
	lastCashier string
}

func (f *fakeOrders) CreateOrder(_ context.Context, req service.CreateOrderRequest, userID, cashier string) (*model.Order, error) {
	f.lastReq, f.lastUserID, f.lastCashier = req, userID, cashier
	if f.err != nil {
		return nil, f.err
	}
	return &model.Order{ID: "o1", OrderNumber: "INV-20260101-ABCDEF12", CashierName: cashier, Status: model.OrderCompleted}, nil
}

func (f *fakeOrders) GetOrders(context.Context) ([]model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*model.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			return &f.orders[i], nil
		}
	}
	return nil, service.ErrOrderNotFound
}

// memCatalog is an in-memory CategoryStore, ProductStore and
// LineItemStore.  Product and line item methods are reached through the
// products and lineItems views.
type memCatalog struct {
	mu         sync.Mutex
	categories map[string]*model.Category
	products   map[string]*model.Product
	items      map[string]*model.ProductLineItem
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		categories: map[string]*model.Category{},
		products:   map[string]*model.Product{},
		items:      map[string]*model.ProductLineItem{},
	}
}

func (m *memCatalog) Create(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.categories {
		if strings.EqualFold(other.Name, c.Name) {
			return repository.ErrDuplicate
		}
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memCatalog) GetByID(_ context.Context, id string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCatalog) List(context.Context) ([]*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Category{}
	for _, c := range m.categories {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memCatalog) UpdateName(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Name = name
	return nil
}

func (m *memCatalog) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range m.products {
		if p.CategoryID == id {
			return repository.ErrConflict
		}
	}
	delete(m.categories, id)
	return nil
}

type memProducts struct{ *memCatalog }

func (m memProducts) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[p.CategoryID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CategoryName = c.Name
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m memProducts) GetByID(_ context.Context, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memProducts) Update(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.CategoryID = p.Name, p.CategoryID
	return nil
}

func (m memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m memProducts) Search(_ context.Context, q repository.ProductSearchQuery) ([]*model.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Product
	for _, p := range m.products {
		if q.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.CategoryID != "" && p.CategoryID != q.CategoryID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type memLineItems struct{ *memCatalog }

func (m memLineItems) Create(_ context.Context, li *model.ProductLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[li.ProductID]; !ok {
		return repository.ErrNotFound
	}
	cp := *li
	m.items[li.ID] = &cp
	return nil
}

func (m memLineItems) GetByID(_ context.Context, id string) (*model.ProductLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	li, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *li
	return &cp, nil
}

func (m memLineItems) List(_ context.Context, productID string) ([]*model.ProductLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.ProductLineItem{}
	for _, li := range m.items {
		if productID == "" || li.ProductID == productID {
			cp := *li
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Update mirrors the repository: quantity is never written.
func (m memLineItems) Update(_ context.Context, li *model.ProductLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[li.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.BarCodeID = li.BarCodeID
	cur.CostCents = li.CostCents
	cur.DisplayPriceCents = li.DisplayPriceCents
	cur.DiscountedPriceCents = li.DiscountedPriceCents
	return nil
}

func (m memLineItems) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func newCatalogHandler() (*CatalogHandler, *memCatalog) {
	m := newMemCatalog()
	return NewCatalogHandler(m, memProducts{m}, memLineItems{m}), m
}

type pingerFunc func(context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func stockErr(id string, have int) error {
	return fmt.Errorf("%w: not enough stock for %s, only %d available", service.ErrInsufficientStock, id, have)
}
