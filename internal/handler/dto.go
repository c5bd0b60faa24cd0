package handler

import (
	"strings"
	"time"

	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/service"
)

// Request and response bodies.  Domain types never leave or enter the
// HTTP layer directly; the to* functions below convert between them.

type loginReq struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type registerReq struct {
	UserName   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	EmployeeID string `json:"employee_id"`
	BranchID   string `json:"branch_id"`
	BranchName string `json:"branch_name"`
	Role       string `json:"role"`
}

func (r registerReq) valid() bool {
	return strings.TrimSpace(r.UserName) != "" && strings.TrimSpace(r.Email) != "" && r.Password != ""
}

func toRegisterRequest(r registerReq) service.RegisterRequest {
	return service.RegisterRequest{
		UserName:   strings.TrimSpace(r.UserName),
		Email:      strings.TrimSpace(r.Email),
		Password:   r.Password,
		FullName:   strings.TrimSpace(r.FullName),
		EmployeeID: strings.TrimSpace(r.EmployeeID),
		BranchID:   strings.TrimSpace(r.BranchID),
		BranchName: strings.TrimSpace(r.BranchName),
		Role:       strings.TrimSpace(r.Role),
	}
}

type refreshReq struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func toRefreshRequest(r refreshReq) model.RefreshRequest {
	return model.RefreshRequest{
		AccessToken:  strings.TrimSpace(r.AccessToken),
		RefreshToken: strings.TrimSpace(r.RefreshToken),
	}
}

type revokeReq struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type roleReq struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type authResp struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Roles        []string  `json:"roles"`
}

func toAuthResp(a *model.AuthResponse) authResp {
	roles := a.Roles
	if roles == nil {
		roles = []string{}
	}
	return authResp{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		ExpiresAt:    a.ExpiresAt,
		Roles:        roles,
	}
}

type profileResp struct {
	ID          string     `json:"id"`
	UserName    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	EmployeeID  string     `json:"employee_id,omitempty"`
	BranchID    string     `json:"branch_id,omitempty"`
	BranchName  string     `json:"branch_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	Roles       []string   `json:"roles"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func toProfile(u *model.User, roles []string) profileResp {
	return profileResp{
		ID:          u.ID,
		UserName:    u.UserName,
		Email:       u.Email,
		FullName:    u.FullName,
		EmployeeID:  u.EmployeeID,
		BranchID:    u.BranchID,
		BranchName:  u.BranchName,
		IsActive:    u.IsActive,
		Roles:       roles,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

type userRolesResp struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

type orderItemReq struct {
	ProductLineItemID string `json:"product_line_item_id"`
	SalesPriceCents   int64  `json:"sales_price_cents"`
	Quantity          int    `json:"quantity"`
}

type createOrderReq struct {
	PaymentMethod string         `json:"payment_method"`
	IsPending     bool           `json:"is_pending"`
	Items         []orderItemReq `json:"items"`
}

func toCreateOrderRequest(r createOrderReq) service.CreateOrderRequest {
	items := make([]service.OrderItemRequest, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, service.OrderItemRequest{
			ProductLineItemID: strings.TrimSpace(it.ProductLineItemID),
			SalesPriceCents:   it.SalesPriceCents,
			Quantity:          it.Quantity,
		})
	}
	return service.CreateOrderRequest{
		PaymentMethod: strings.TrimSpace(r.PaymentMethod),
		IsPending:     r.IsPending,
		Items:         items,
	}
}

type orderItemResp struct {
	ID                string `json:"id"`
	ProductLineItemID string `json:"product_line_item_id"`
	ProductName       string `json:"product_name"`
	DisplayPriceCents int64  `json:"display_price_cents"`
	SalesPriceCents   int64  `json:"sales_price_cents"`
	Quantity          int    `json:"quantity"`
	SubTotalCents     int64  `json:"sub_total_cents"`
}

type orderResp struct {
	ID               string          `json:"id"`
	OrderNumber      string          `json:"order_number"`
	OrderDate        time.Time       `json:"order_date"`
	TotalAmountCents int64           `json:"total_amount_cents"`
	PaymentMethod    string          `json:"payment_method"`
	CashierName      string          `json:"cashier_name"`
	Status           string          `json:"status"`
	Items            []orderItemResp `json:"items"`
}

func toOrderResp(o *model.Order) orderResp {
	items := make([]orderItemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResp{
			ID:                it.ID,
			ProductLineItemID: it.ProductLineItemID,
			ProductName:       it.ProductName,
			DisplayPriceCents: it.DisplayPriceCents,
			SalesPriceCents:   it.SalesPriceCents,
			Quantity:          it.Quantity,
			SubTotalCents:     it.SubTotalCents,
		})
	}
	return orderResp{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		OrderDate:        o.OrderDate,
		TotalAmountCents: o.TotalAmountCents,
		PaymentMethod:    o.PaymentMethod,
		CashierName:      o.CashierName,
		Status:           o.Status,
		Items:            items,
	}
}

func toOrderResps(orders []model.Order) []orderResp {
	out := make([]orderResp, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResp(&orders[i]))
	}
	return out
}

type categoryReq struct {
	Name string `json:"name"`
}

type productReq struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

type lineItemReq struct {
	BarCodeID            string `json:"barcode_id"`
	ProductID            string `json:"product_id"`
	CostCents            int64  `json:"cost_cents"`
	DisplayPriceCents    int64  `json:"display_price_cents"`
	DiscountedPriceCents int64  `json:"discounted_price_cents"`
	Quantity             int    `json:"quantity"`
}

func (r lineItemReq) pricesValid() bool {
	return r.CostCents >= 0 && r.DisplayPriceCents >= 0 && r.DiscountedPriceCents >= 0
}

// toLineItem converts a request body.  Quantity is copied as given; the
// update path ignores it in the repository.
func toLineItem(id string, r lineItemReq) *model.ProductLineItem {
	return &model.ProductLineItem{
		ID:                   id,
		BarCodeID:            strings.TrimSpace(r.BarCodeID),
		ProductID:            strings.TrimSpace(r.ProductID),
		CostCents:            r.CostCents,
		DisplayPriceCents:    r.DisplayPriceCents,
		DiscountedPriceCents: r.DiscountedPriceCents,
		Quantity:             r.Quantity,
	}
}

type productPage struct {
	Items    []*model.Product `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
