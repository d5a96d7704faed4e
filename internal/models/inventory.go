package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryReceivable is a supplier delivery into the warehouse
type InventoryReceivable struct {
	ID              int       `json:"id"`
	SupplierName    string    `json:"supplier_name"`
	ReferenceNumber string    `json:"reference_number"`
	ReceivedAt      time.Time `json:"received_at"`
	ImageKey        string    `json:"image_key,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedByUserID int       `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`

	Items []InventoryReceivableItem `json:"items,omitempty"`
}

type InventoryReceivableItem struct {
	ID           int             `json:"id"`
	ReceivableID int             `json:"receivable_id"`
	ProductID    int             `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

type ReceivableItemInput struct {
	ProductID int             `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type ReceivableRequest struct {
	SupplierName    string                `json:"supplier_name"`
	ReferenceNumber string                `json:"reference_number"`
	ReceivedAt      string                `json:"received_at"` // YYYY-MM-DD, defaults to today
	Notes           string                `json:"notes"`
	Items           []ReceivableItemInput `json:"items"`
}

// Loadout is stock handed to a VSE
type Loadout struct {
	ID              int       `json:"id"`
	VSEName         string    `json:"vse_name"`
	CustomerID      *int      `json:"customer_id,omitempty"`
	LoadoutDate     time.Time `json:"loadout_date"`
	Notes           string    `json:"notes,omitempty"`
	CreatedByUserID int       `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`

	Items []LoadoutItem `json:"items,omitempty"`
}

type LoadoutItem struct {
	ID          int    `json:"id"`
	LoadoutID   int    `json:"loadout_id"`
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
}

type LoadoutRequest struct {
	VSEName     string         `json:"vse_name"`
	CustomerID  *int           `json:"customer_id"`
	LoadoutDate string         `json:"loadout_date"`
	Notes       string         `json:"notes"`
	Items       []ItemQuantity `json:"items"`
}

type Breakage struct {
	ID               int       `json:"id"`
	ProductID        int       `json:"product_id"`
	ProductName      string    `json:"product_name,omitempty"`
	Quantity         int       `json:"quantity"`
	Reason           string    `json:"reason"`
	ReportedByUserID int       `json:"reported_by_user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

type BreakageRequest struct {
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// DateRange bounds listings and reports, both ends inclusive
type DateRange struct {
	From time.Time
	To   time.Time
}

// StockReportRow summarises one product's movements over a period
type StockReportRow struct {
	ProductID    int    `json:"product_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	CurrentStock int    `json:"current_stock"`
	Received     int    `json:"received"`
	LoadedOut    int    `json:"loaded_out"`
	Broken       int    `json:"broken"`
	Dispatched   int    `json:"dispatched"`
	ReorderLevel int    `json:"reorder_level"`
}

// LowStock is true when stock is at or below the reorder level
func (r StockReportRow) LowStock() bool {
	return r.CurrentStock <= r.ReorderLevel
}

type StockReport struct {
	From time.Time        `json:"from"`
	To   time.Time        `json:"to"`
	Rows []StockReportRow `json:"rows"`
}
