package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/repository"
)

// CategoryStore persists categories.  *repository.CategoryRepo implements it.
type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	GetByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// ProductStore persists products.  *repository.ProductRepo implements it.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q repository.ProductSearchQuery) ([]*model.Product, int64, error)
}

// LineItemStore persists product line items.  *repository.LineItemRepo
// implements it.
type LineItemStore interface {
	Create(ctx context.Context, li *model.ProductLineItem) error
	GetByID(ctx context.Context, id string) (*model.ProductLineItem, error)
	List(ctx context.Context, productID string) ([]*model.ProductLineItem, error)
	Update(ctx context.Context, li *model.ProductLineItem) error
	Delete(ctx context.Context, id string) error
}

// CatalogHandler bundles the catalog stores.
type CatalogHandler struct {
	Categories CategoryStore
	Products   ProductStore
	LineItems  LineItemStore
}

// NewCatalogHandler panics if any dependency is nil.
func NewCatalogHandler(categories CategoryStore, products ProductStore, lineItems LineItemStore) *CatalogHandler {
	if categories == nil || products == nil || lineItems == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Categories: categories, Products: products, LineItems: lineItems}
}

// ---- Categories ----

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Categories.List(ctx)
	if err != nil {
		return storeError(c, err, "category")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetCategory(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "category")
	}
	return c.JSON(http.StatusOK, cat)
}

// CreateCategory handles POST /v1/categories.
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var body categoryReq
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return errorJSON(c, http.StatusBadRequest, "name is required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	cat := &model.Category{ID: uuid.NewString(), Name: name}
	if err := h.Categories.Create(ctx, cat); err != nil {
		return storeError(c, err, "category")
	}
	return c.JSON(http.StatusCreated, cat)
}

// UpdateCategory handles PUT/PATCH /v1/categories/:id.
func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id := c.Param("id")
	var body categoryReq
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return errorJSON(c, http.StatusBadRequest, "name is required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Categories.UpdateName(ctx, id, name); err != nil {
		return storeError(c, err, "category")
	}
	updated, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err, "category")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteCategory refuses categories that still own products.
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Categories.Delete(ctx, c.Param("id")); err != nil {
		return storeError(c, err, "category")
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- Products ----

// SearchProducts handles GET /v1/products and /v1/products/search.
// Filters: ?name= (substring, case-insensitive), ?category_id=.
func (h *CatalogHandler) SearchProducts(c echo.Context) error {
	page, size := pageParams(c)
	q := repository.ProductSearchQuery{
		Name:       strings.TrimSpace(c.QueryParam("name")),
		CategoryID: strings.TrimSpace(c.QueryParam("category_id")),
		Page:       page,
		PageSize:   size,
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	items, total, err := h.Products.Search(ctx, q)
	if err != nil {
		return storeError(c, err, "product")
	}
	if items == nil {
		items = []*model.Product{}
	}
	return c.JSON(http.StatusOK, productPage{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "product")
	}
	return c.JSON(http.StatusOK, p)
}

// CreateProduct handles POST /v1/products.  The category must exist.
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var body productReq
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	p := &model.Product{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(body.Name),
		CategoryID: strings.TrimSpace(body.CategoryID),
	}
	if p.Name == "" || p.CategoryID == "" {
		return errorJSON(c, http.StatusBadRequest, "name and category_id are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Products.Create(ctx, p); err != nil {
		return storeError(c, err, "product")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	var body productReq
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	p := &model.Product{
		ID:         c.Param("id"),
		Name:       strings.TrimSpace(body.Name),
		CategoryID: strings.TrimSpace(body.CategoryID),
	}
	if p.Name == "" || p.CategoryID == "" {
		return errorJSON(c, http.StatusBadRequest, "name and category_id are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Categories.GetByID(ctx, p.CategoryID); err != nil {
		return storeError(c, err, "category")
	}
	if err := h.Products.Update(ctx, p); err != nil {
		return storeError(c, err, "product")
	}
	updated, err := h.Products.GetByID(ctx, p.ID)
	if err != nil {
		return storeError(c, err, "product")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Products.Delete(ctx, c.Param("id")); err != nil {
		return storeError(c, err, "product")
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- Line items ----

// ListLineItems handles GET /v1/line-items, optionally filtered by
// ?product_id=.
func (h *CatalogHandler) ListLineItems(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.LineItems.List(ctx, strings.TrimSpace(c.QueryParam("product_id")))
	if err != nil {
		return storeError(c, err, "line item")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetLineItem(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	li, err := h.LineItems.GetByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "line item")
	}
	return c.JSON(http.StatusOK, li)
}

// CreateLineItem receives stock: the quantity given here is the opening
// stock of the line item.
func (h *CatalogHandler) CreateLineItem(c echo.Context) error {
	var body lineItemReq
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	li := toLineItem(uuid.NewString(), body)
	if li.BarCodeID == "" || li.ProductID == "" {
		return errorJSON(c, http.StatusBadRequest, "barcode_id and product_id are required")
	}
	if !body.pricesValid() || li.Quantity < 0 {
		return errorJSON(c, http.StatusBadRequest, "prices and quantity must not be negative")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.LineItems.Create(ctx, li); err != nil {
		return storeError(c, err, "line item")
	}
	created, err := h.LineItems.GetByID(ctx, li.ID)
	if err != nil {
		return storeError(c, err, "line item")
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateLineItem rewrites barcode and prices.  A quantity in the body is
// ignored; stock only moves through orders.
func (h *CatalogHandler) UpdateLineItem(c echo.Context) error {
	var body lineItemReq
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	li := toLineItem(c.Param("id"), body)
	if li.BarCodeID == "" {
		return errorJSON(c, http.StatusBadRequest, "barcode_id is required")
	}
	if !body.pricesValid() {
		return errorJSON(c, http.StatusBadRequest, "prices must not be negative")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.LineItems.Update(ctx, li); err != nil {
		return storeError(c, err, "line item")
	}
	updated, err := h.LineItems.GetByID(ctx, li.ID)
	if err != nil {
		return storeError(c, err, "line item")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteLineItem(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.LineItems.Delete(ctx, c.Param("id")); err != nil {
		return storeError(c, err, "line item")
	}
	return c.NoContent(http.StatusNoContent)
}
