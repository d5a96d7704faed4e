package models

import "time"

// Price tiers a customer type can buy at
const (
	PriceTierWholesale = "wholesale"
	PriceTierRetail    = "retail"
)

type CustomerType struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	PriceTier string    `json:"price_tier"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerTypeInput struct {
	Name      string `json:"name"`
	PriceTier string `json:"price_tier"`
}

type Customer struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	CustomerTypeID *int       `json:"customer_type_id,omitempty"`
	CustomerType   string     `json:"customer_type,omitempty"`
	PriceTier      string     `json:"price_tier,omitempty"`
	CrateBalance   int        `json:"crate_balance"`
	MOUSigned      bool       `json:"mou_signed"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CustomerInput is the body of create and update requests.
// crate_balance is deliberately absent: it only moves through the empties ledger.
type CustomerInput struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	CustomerTypeID *int   `json:"customer_type_id"`
}

type CustomerFilter struct {
	Search         string
	CustomerTypeID int
	IncludeDeleted bool
}

type SetMOURequest struct {
	MOUSigned bool `json:"mou_signed"`
}
