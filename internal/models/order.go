package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderPending   = "pending"
	OrderApproved  = "approved"
	OrderCancelled = "cancelled"
)

// Payment methods
const (
	PaymentCash        = "cash"
	PaymentMobileMoney = "mobile_money"
	PaymentCredit      = "credit"
	PaymentOnline      = "online"
)

// Payment statuses
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// ValidPaymentMethod reports whether m is accepted at checkout
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentMobileMoney, PaymentCredit, PaymentOnline:
		return true
	}
	return false
}

type Order struct {
	ID               int             `json:"id"`
	CustomerID       int             `json:"customer_id"`
	CustomerName     string          `json:"customer_name,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    string          `json:"payment_status"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Status           string          `json:"status"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	CreatedByUserID  int             `json:"created_by_user_id"`
	ApprovedByUserID *int            `json:"approved_by_user_id,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Sales []Sale `json:"sales,omitempty"`
}

// Sale is one order line, priced at checkout time
type Sale struct {
	ID           int             `json:"id"`
	OrderID      int             `json:"order_id"`
	ProductID    int             `json:"product_id"`
	ProductSKU   string          `json:"product_sku,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	IsReturnable bool            `json:"is_returnable"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
	CreatedAt    time.Time       `json:"created_at"`
}

type CheckoutRequest struct {
	CustomerID    int            `json:"customer_id"`
	PaymentMethod string         `json:"payment_method"`
	Items         []ItemQuantity `json:"items"`
}

type ProjectionRequest struct {
	CustomerID int            `json:"customer_id"`
	Items      []ItemQuantity `json:"items"`
}

// EmptiesProjection is what the cart would do to a customer's crate balance
type EmptiesProjection struct {
	CustomerID         int  `json:"customer_id"`
	CurrentBalance     int  `json:"current_balance"`
	ReturnableQuantity int  `json:"returnable_quantity"`
	ProjectedBalance   int  `json:"projected_balance"`
	MOUSigned          bool `json:"mou_signed"`
	Allowed            bool `json:"allowed"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type OrderFilter struct {
	Status     string
	CustomerID int
	From       time.Time
	To         time.Time
}

// CheckoutResult is returned after a successful checkout
type CheckoutResult struct {
	Order      *Order             `json:"order"`
	Projection *EmptiesProjection `json:"projection"`
}
