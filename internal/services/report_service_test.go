package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"depot-backend/internal/models"
)

func sampleReport() *models.StockReport {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.StockReport{
		From: from,
		To:   from.AddDate(0, 0, 6),
		Rows: []models.StockReportRow{
			{ProductID: 1, SKU: "CLUB-625", Name: "Club 625ml", CurrentStock: 120, Received: 200, LoadedOut: 40, Broken: 5, Dispatched: 35, ReorderLevel: 50},
			{ProductID: 2, SKU: "MALTA-330", Name: "Malta 330ml", CurrentStock: 10, Received: 0, LoadedOut: 2, Broken: 0, Dispatched: 8, ReorderLevel: 24},
		},
	}
}

func TestRenderStockCSV(t *testing.T) {
	data, err := RenderStockCSV(sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected title, header and 2 rows, got %d records", len(records))
	}
	for i, rec := range records {
		if len(rec) != 9 {
			t.Fatalf("record %d has %d fields, want 9", i, len(rec))
		}
	}
	if records[0][1] != "2024-03-01" || records[0][2] != "2024-03-07" {
		t.Errorf("unexpected period %v", records[0])
	}
	if got := records[2]; got[0] != "CLUB-625" || got[2] != "200" || got[6] != "120" || got[8] != "" {
		t.Errorf("unexpected club row %v", got)
	}
	if got := records[3]; got[8] != "YES" {
		t.Errorf("expected malta to be flagged low stock, got %v", got)
	}
}

func TestRenderPDFs(t *testing.T) {
	business := Business{Name: "Depot", CurrencySymbol: "GHS"}

	stock, err := RenderStockPDF(sampleReport(), business)
	if err != nil {
		t.Fatalf("stock pdf: %v", err)
	}
	if !bytes.HasPrefix(stock, []byte("%PDF")) {
		t.Fatalf("stock report is not a PDF")
	}

	order := &models.Order{
		ID:            42,
		CustomerName:  "Ama Stores",
		PaymentMethod: models.PaymentCash,
		PaymentStatus: models.PaymentUnpaid,
		Status:        models.OrderCancelled,
		TotalAmount:   decimal.RequireFromString("31.50"),
		CreatedAt:     time.Now(),
		Sales: []models.Sale{
			{ProductName: "Club 625ml", Quantity: 3, UnitPrice: decimal.RequireFromString("10.50"), LineTotal: decimal.RequireFromString("31.50"), IsReturnable: true},
		},
	}
	receipt, err := RenderReceiptPDF(order, business)
	if err != nil {
		t.Fatalf("receipt pdf: %v", err)
	}
	if !bytes.HasPrefix(receipt, []byte("%PDF")) {
		t.Fatalf("receipt is not a PDF")
	}
}

func TestReceivableValue(t *testing.T) {
	rec := &models.InventoryReceivable{Items: []models.InventoryReceivableItem{
		{Quantity: 10, UnitCost: decimal.RequireFromString("7.25")},
		{Quantity: 3, UnitCost: decimal.RequireFromString("1.10")},
	}}
	if got := ReceivableValue(rec); !got.Equal(decimal.RequireFromString("75.80")) {
		t.Fatalf("expected 75.80, got %s", got)
	}
}

func TestValidateProductNormalises(t *testing.T) {
	req := &models.ProductInput{SKU: "  club-625 ", Name: " Club ", RetailPrice: decimal.NewFromInt(12)}
	if err := ValidateProduct(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.SKU != "CLUB-625" || req.Name != "Club" {
		t.Fatalf("expected trimmed upper-case sku, got %q %q", req.SKU, req.Name)
	}

	bad := &models.ProductInput{WholesalePrice: decimal.NewFromInt(-1), ReorderLevel: -2}
	err := ValidateProduct(bad)
	ve, ok := err.(*ValidationError)
	if !ok || len(ve.Problems) != 4 {
		t.Fatalf("expected 4 problems, got %v", err)
	}
}
