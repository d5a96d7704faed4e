package services

import (
	"depot-backend/internal/models"

	"github.com/shopspring/decimal"
)

// UnitPrice picks the price for a customer's tier. Untyped customers pay retail.
func UnitPrice(p *models.Product, priceTier string) decimal.Decimal {
	if priceTier == models.PriceTierWholesale {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

// ValidateItems checks a cart or form item list before any lookup
func ValidateItems(items []models.ItemQuantity) error {
	v := &validator{}
	v.check(len(items) > 0, "at least one item is required")

	seen := make(map[int]bool, len(items))
	for i, it := range items {
		v.check(it.ProductID > 0, "item %d: product is required", i+1)
		v.check(it.Quantity > 0, "item %d: quantity must be greater than zero", i+1)
		if it.ProductID > 0 {
			v.check(!seen[it.ProductID], "item %d: product %d is listed more than once", i+1, it.ProductID)
			seen[it.ProductID] = true
		}
	}
	return v.Err()
}

// ItemIDs returns the product ids of items in order
func ItemIDs(items []models.ItemQuantity) []int {
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	return ids
}

// CheckoutPlan is everything checkout will write, computed up front
type CheckoutPlan struct {
	Sales              []models.Sale
	Total              decimal.Decimal
	ReturnableQuantity int
	EmptiesDetails     []models.EmptiesLogDetail
}

// PlanCheckout prices every line and totals the returnable crates. products
// must hold every item's product, keyed by id.
func PlanCheckout(priceTier string, items []models.ItemQuantity, products map[int]*models.Product) (*CheckoutPlan, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	plan := &CheckoutPlan{Total: decimal.Zero}
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok || !p.Active() {
			return nil, invalid("product %d is not available", it.ProductID)
		}

		price := UnitPrice(p, priceTier)
		line := price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
		plan.Sales = append(plan.Sales, models.Sale{
			ProductID:    p.ID,
			ProductSKU:   p.SKU,
			ProductName:  p.Name,
			IsReturnable: p.IsReturnable,
			Quantity:     it.Quantity,
			UnitPrice:    price,
			LineTotal:    line,
		})
		plan.Total = plan.Total.Add(line)

		if p.IsReturnable {
			plan.ReturnableQuantity += it.Quantity
			plan.EmptiesDetails = append(plan.EmptiesDetails, models.EmptiesLogDetail{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
			})
		}
	}
	plan.Total = plan.Total.Round(2)
	return plan, nil
}

// Project computes what taking returnableQty crates does to a balance
func Project(c *models.Customer, returnableQty int) *models.EmptiesProjection {
	projected := c.CrateBalance - returnableQty
	return &models.EmptiesProjection{
		CustomerID:         c.ID,
		CurrentBalance:     c.CrateBalance,
		ReturnableQuantity: returnableQty,
		ProjectedBalance:   projected,
		MOUSigned:          c.MOUSigned,
		Allowed:            projected >= 0 || c.MOUSigned,
	}
}

// FilterProducts backs the product picker: active products only, minus the
// excluded ids, optionally returnable only.
func FilterProducts(products []*models.Product, exclude []int, returnableOnly bool) []*models.Product {
	skip := make(map[int]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	out := []*models.Product{}
	for _, p := range products {
		if !p.Active() || skip[p.ID] {
			continue
		}
		if returnableOnly && !p.IsReturnable {
			continue
		}
		out = append(out, p)
	}
	return out
}
