package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             int             `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	IsReturnable   bool            `json:"is_returnable"`
	StockQuantity  int             `json:"stock_quantity"`
	ReorderLevel   int             `json:"reorder_level"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Active is false once the product is soft-deleted
func (p *Product) Active() bool {
	return p.DeletedAt == nil
}

// ProductInput is the body of create and update requests
type ProductInput struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	IsReturnable   bool            `json:"is_returnable"`
	ReorderLevel   int             `json:"reorder_level"`
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Search         string
	ReturnableOnly bool
	IncludeDeleted bool
}

// ItemQuantity is one product/quantity pair, shared by every multi-line form
type ItemQuantity struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}
