package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DashboardSummary struct {
	Date                   string           `json:"date"`
	OrdersByStatus         map[string]int   `json:"orders_by_status"`
	SalesTotal             decimal.Decimal  `json:"sales_total"`
	PendingWarehouseOrders int              `json:"pending_warehouse_orders"`
	LowStock               []StockReportRow `json:"low_stock"`
	OutstandingCrates      int              `json:"outstanding_crates"`
	GeneratedAt            time.Time        `json:"generated_at"`
}
