package models

import "time"

// Empties ledger entry types
const (
	EmptiesReturn     = "return"
	EmptiesSale       = "sale"
	EmptiesReversal   = "reversal"
	EmptiesAdjustment = "adjustment"
)

// EmptiesLog is one movement on a customer's crate balance.
// TotalQuantity is signed: returns and reversals are positive, sales negative.
type EmptiesLog struct {
	ID              int       `json:"id"`
	CustomerID      int       `json:"customer_id"`
	CustomerName    string    `json:"customer_name,omitempty"`
	OrderID         *int      `json:"order_id,omitempty"`
	EntryType       string    `json:"entry_type"`
	TotalQuantity   int       `json:"total_quantity"`
	BalanceAfter    int       `json:"balance_after"`
	Notes           string    `json:"notes,omitempty"`
	CreatedByUserID int       `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`

	Details []EmptiesLogDetail `json:"details,omitempty"`
}

type EmptiesLogDetail struct {
	ID           int    `json:"id"`
	EmptiesLogID int    `json:"empties_log_id"`
	ProductID    int    `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	Quantity     int    `json:"quantity"`
}

type EmptiesReturnRequest struct {
	CustomerID int            `json:"customer_id"`
	Notes      string         `json:"notes"`
	Items      []ItemQuantity `json:"items"`
}

type EmptiesAdjustmentRequest struct {
	CustomerID int    `json:"customer_id"`
	Delta      int    `json:"delta"`
	Notes      string `json:"notes"`
}

type EmptiesLogFilter struct {
	CustomerID int
	EntryType  string
	From       time.Time
	To         time.Time
}

// CrateBalance is one row of the balances listing
type CrateBalance struct {
	CustomerID   int    `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	CrateBalance int    `json:"crate_balance"`
	MOUSigned    bool   `json:"mou_signed"`
}
