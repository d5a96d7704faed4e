package models

import "github.com/shopspring/decimal"

// PaymentLink is the gateway order a browser checkout is opened with
type PaymentLink struct {
	OrderID        int             `json:"order_id"`
	GatewayOrderID string          `json:"gateway_order_id"`
	KeyID          string          `json:"key_id"`
	Amount         decimal.Decimal `json:"amount"`
	AmountMinor    int64           `json:"amount_minor"`
	Currency       string          `json:"currency"`
	Receipt        string          `json:"receipt"`
}

type PaymentVerifyRequest struct {
	OrderID        int    `json:"order_id"`
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
}
