package models

import "time"

// Warehouse order statuses
const (
	WarehousePending   = "pending"
	WarehouseReady     = "ready"
	WarehouseCancelled = "cancelled"
)

type WarehouseOrder struct {
	ID                int        `json:"id"`
	OrderID           int        `json:"order_id"`
	CustomerName      string     `json:"customer_name,omitempty"`
	Status            string     `json:"status"`
	ProcessedByUserID *int       `json:"processed_by_user_id,omitempty"`
	ReadyAt           *time.Time `json:"ready_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Items []WarehouseOrderItem `json:"items,omitempty"`
}

type WarehouseOrderItem struct {
	ID               int    `json:"id"`
	WarehouseOrderID int    `json:"warehouse_order_id"`
	ProductID        int    `json:"product_id"`
	ProductSKU       string `json:"product_sku,omitempty"`
	ProductName      string `json:"product_name,omitempty"`
	Quantity         int    `json:"quantity"`
}

// WarehouseEvent is pushed to live board clients
type WarehouseEvent struct {
	Type             string    `json:"type"`
	WarehouseOrderID int       `json:"warehouse_order_id"`
	OrderID          int       `json:"order_id"`
	Status           string    `json:"status"`
	At               time.Time `json:"at"`
}

// Event types
const (
	EventWarehouseOrderCreated   = "warehouse_order.created"
	EventWarehouseOrderReady     = "warehouse_order.ready"
	EventWarehouseOrderCancelled = "warehouse_order.cancelled"
	EventOrderCancelled          = "order.cancelled"
)
