package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"depot-backend/internal/models"
)

const sample = `SKU,Name,Wholesale_Price,Retail_Price,Returnable,Stock,Reorder_Level
club-625,Club 625ml,10.50,12.00,yes,240,48
MALTA-330,Malta 330ml,4.25,5,no,,24

,Missing sku,1,1,no,0,0
STAR-625,Star 625ml,abc,11,yes,0,0
CLUB-625,Club again,1,1,yes,0,0
VOLTIC-1L,Voltic 1L,2,3,maybe,0,0
`

func TestParse(t *testing.T) {
	rows, rowErrs, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 good rows, got %d", len(rows))
	}
	club := rows[0].Product
	if club.SKU != "CLUB-625" || !club.IsReturnable || club.StockQuantity != 240 || club.ReorderLevel != 48 {
		t.Errorf("unexpected club product %+v", club)
	}
	if !club.WholesalePrice.Equal(decimal.RequireFromString("10.50")) {
		t.Errorf("expected wholesale 10.50, got %s", club.WholesalePrice)
	}
	if rows[1].Product.StockQuantity != 0 || rows[1].Line != 3 {
		t.Errorf("expected malta on line 3 with empty stock, got %+v", rows[1])
	}

	wantLines := []int{5, 6, 7, 8}
	if len(rowErrs) != len(wantLines) {
		t.Fatalf("expected %d row errors, got %v", len(wantLines), rowErrs)
	}
	for i, line := range wantLines {
		if rowErrs[i].Line != line {
			t.Errorf("error %d: expected line %d, got %d (%v)", i, line, rowErrs[i].Line, rowErrs[i])
		}
	}
}

func TestParseRejectsBadHeader(t *testing.T) {
	if _, _, err := Parse(strings.NewReader("name,retail_price\nClub,12\n")); err == nil {
		t.Fatal("expected missing sku column to be fatal")
	}
	if _, _, err := Parse(strings.NewReader("")); err == nil {
		t.Fatal("expected empty file to be fatal")
	}
}

type fakeStore struct {
	existing map[string]bool
	fail     string
	writes   int
}

func (f *fakeStore) Upsert(ctx context.Context, p *models.Product) (bool, error) {
	if p.SKU == f.fail {
		return false, errors.New("database unavailable")
	}
	f.writes++
	return !f.existing[p.SKU], nil
}

func TestImport(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{"MALTA-330": true}}
	res, err := Import(context.Background(), store, strings.NewReader(sample), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created != 1 || res.Updated != 1 || res.Failed != 4 {
		t.Fatalf("unexpected result %+v", res)
	}

	store = &fakeStore{fail: "CLUB-625"}
	res, _ = Import(context.Background(), store, strings.NewReader(sample), false)
	if res.Failed != 5 || res.Created != 1 {
		t.Fatalf("expected the failed upsert to be counted, got %+v", res)
	}
}

func TestImportDryRunWritesNothing(t *testing.T) {
	store := &fakeStore{}
	res, err := Import(context.Background(), store, strings.NewReader(sample), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.writes != 0 {
		t.Fatalf("dry run wrote %d products", store.writes)
	}
	if res.Created != 2 {
		t.Fatalf("expected 2 importable rows, got %+v", res)
	}
}
