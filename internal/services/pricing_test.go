package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"depot-backend/internal/models"
)

func catalogue() map[int]*models.Product {
	deleted := time.Now()
	return map[int]*models.Product{
		1: {ID: 1, SKU: "CLUB-625", Name: "Club 625ml", WholesalePrice: decimal.RequireFromString("10.50"), RetailPrice: decimal.RequireFromString("12.00"), IsReturnable: true},
		2: {ID: 2, SKU: "MALTA-330", Name: "Malta 330ml", WholesalePrice: decimal.RequireFromString("4.25"), RetailPrice: decimal.RequireFromString("5.00")},
		3: {ID: 3, SKU: "STAR-625", Name: "Star 625ml", WholesalePrice: decimal.RequireFromString("9.00"), RetailPrice: decimal.RequireFromString("11.00"), IsReturnable: true, DeletedAt: &deleted},
	}
}

func TestUnitPriceByTier(t *testing.T) {
	p := catalogue()[1]
	tests := []struct {
		tier string
		want string
	}{
		{models.PriceTierWholesale, "10.5"},
		{models.PriceTierRetail, "12"},
		{"", "12"},
	}
	for _, tt := range tests {
		if got := UnitPrice(p, tt.tier); !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("tier %q: expected %s, got %s", tt.tier, tt.want, got)
		}
	}
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name  string
		items []models.ItemQuantity
		ok    bool
	}{
		{"empty cart", nil, false},
		{"zero quantity", []models.ItemQuantity{{ProductID: 1, Quantity: 0}}, false},
		{"missing product", []models.ItemQuantity{{Quantity: 2}}, false},
		{"repeated product", []models.ItemQuantity{{ProductID: 1, Quantity: 1}, {ProductID: 1, Quantity: 2}}, false},
		{"valid", []models.ItemQuantity{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 3}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			if tt.ok && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !tt.ok && !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPlanCheckoutTotalsAndEmpties(t *testing.T) {
	items := []models.ItemQuantity{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 2}}

	plan, err := PlanCheckout(models.PriceTierWholesale, items, catalogue())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Total.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("expected total 40.00, got %s", plan.Total)
	}
	if plan.ReturnableQuantity != 3 {
		t.Errorf("expected 3 returnable crates, got %d", plan.ReturnableQuantity)
	}
	if len(plan.Sales) != 2 || len(plan.EmptiesDetails) != 1 {
		t.Fatalf("expected 2 sales and 1 empties detail, got %d and %d", len(plan.Sales), len(plan.EmptiesDetails))
	}
	if !plan.Sales[1].LineTotal.Equal(decimal.RequireFromString("8.50")) {
		t.Errorf("expected malta line 8.50, got %s", plan.Sales[1].LineTotal)
	}

	retail, _ := PlanCheckout(models.PriceTierRetail, items, catalogue())
	if !retail.Total.Equal(decimal.RequireFromString("46.00")) {
		t.Errorf("expected retail total 46.00, got %s", retail.Total)
	}
}

func TestPlanCheckoutRejectsUnavailableProducts(t *testing.T) {
	for _, id := range []int{3, 99} {
		_, err := PlanCheckout(models.PriceTierRetail, []models.ItemQuantity{{ProductID: id, Quantity: 1}}, catalogue())
		if !IsValidation(err) {
			t.Errorf("product %d: expected validation error, got %v", id, err)
		}
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name      string
		balance   int
		mou       bool
		qty       int
		projected int
		allowed   bool
	}{
		{"covered by credit", 10, false, 4, 6, true},
		{"exactly zero", 4, false, 4, 0, true},
		{"short without mou", 2, false, 4, -2, false},
		{"short with mou", 2, true, 4, -2, true},
		{"no returnables", 0, false, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(&models.Customer{ID: 7, CrateBalance: tt.balance, MOUSigned: tt.mou}, tt.qty)
			if p.ProjectedBalance != tt.projected || p.Allowed != tt.allowed {
				t.Fatalf("expected projected=%d allowed=%v, got projected=%d allowed=%v",
					tt.projected, tt.allowed, p.ProjectedBalance, p.Allowed)
			}
			if p.CurrentBalance != tt.balance || p.ReturnableQuantity != tt.qty {
				t.Fatalf("projection did not echo its inputs: %+v", p)
			}
		})
	}
}

func TestFilterProducts(t *testing.T) {
	var list []*models.Product
	for _, id := range []int{1, 2, 3} {
		list = append(list, catalogue()[id])
	}

	got := FilterProducts(list, nil, false)
	if len(got) != 2 {
		t.Fatalf("expected deleted product to be hidden, got %d products", len(got))
	}

	got = FilterProducts(list, []int{1}, false)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only product 2, got %+v", got)
	}

	got = FilterProducts(list, nil, true)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only returnable product 1, got %+v", got)
	}

	got = FilterProducts(list, []int{1}, true)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty, non-nil list, got %#v", got)
	}
}

func TestTransitions(t *testing.T) {
	if err := CanApprove(models.OrderPending); err != nil {
		t.Errorf("pending order should be approvable: %v", err)
	}
	for _, s := range []string{models.OrderApproved, models.OrderCancelled} {
		if err := CanApprove(s); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("approve from %s: expected invalid transition, got %v", s, err)
		}
	}

	if err := CanMarkReady(models.WarehousePending); err != nil {
		t.Errorf("pending warehouse order should be markable ready: %v", err)
	}
	if err := CanMarkReady(models.WarehouseReady); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ready is terminal, got %v", err)
	}

	cancel := []struct {
		order, warehouse string
		ok               bool
	}{
		{models.OrderPending, "", true},
		{models.OrderApproved, models.WarehousePending, true},
		{models.OrderApproved, models.WarehouseReady, false},
		{models.OrderApproved, models.WarehouseCancelled, false},
		{models.OrderCancelled, models.WarehouseCancelled, false},
	}
	for _, c := range cancel {
		err := CanCancel(c.order, c.warehouse)
		if c.ok != (err == nil) {
			t.Errorf("cancel %s/%s: expected ok=%v, got %v", c.order, c.warehouse, c.ok, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("cancel %s/%s: expected invalid transition, got %v", c.order, c.warehouse, err)
		}
	}
}

func TestInsufficientStockNamesSKU(t *testing.T) {
	err := insufficientStock("CLUB-625")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if err.Error() != "insufficient stock for CLUB-625" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestRequireActiveCustomer(t *testing.T) {
	if err := requireActiveCustomer(&models.Customer{ID: 7}); err != nil {
		t.Fatalf("expected active customer to pass, got %v", err)
	}
	deleted := time.Now()
	err := requireActiveCustomer(&models.Customer{ID: 7, DeletedAt: &deleted})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
