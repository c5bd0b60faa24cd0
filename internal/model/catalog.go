package model

import "time"

// Category groups products (e.g. Beverages, Snacks).
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a sellable article.  Prices and stock are tracked per
// ProductLineItem because the same product may be received at different
// costs or sold under different barcodes.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
}

// ProductLineItem is one inventory unit.  Quantity is only ever decreased
// by the order engine; catalog updates leave it untouched.
type ProductLineItem struct {
	ID                   string `json:"id"`
	BarCodeID            string `json:"barcode_id"`
	ProductID            string `json:"product_id"`
	ProductName          string `json:"product_name,omitempty"`
	CostCents            int64  `json:"cost_cents"`
	DisplayPriceCents    int64  `json:"display_price_cents"`
	DiscountedPriceCents int64  `json:"discounted_price_cents"`
	Quantity             int    `json:"quantity"`
}
