package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf/v2"

	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
	"depot-backend/internal/timeutil"
)

// Business identifies the depot on printed documents
type Business struct {
	Name           string
	CurrencySymbol string
}

type ReportService struct {
	InventoryRepo *repositories.InventoryRepository
	Orders        *OrderService
	Business      Business
}

func NewReportService(inventoryRepo *repositories.InventoryRepository, orders *OrderService, business Business) *ReportService {
	return &ReportService{InventoryRepo: inventoryRepo, Orders: orders, Business: business}
}

// StockReport aggregates every product's movements over the range
func (s *ReportService) StockReport(ctx context.Context, r models.DateRange) (*models.StockReport, error) {
	if r.To.Before(r.From) {
		return nil, invalid("report end date is before its start date")
	}
	rows, err := s.InventoryRepo.StockMovements(ctx, r.From, r.To)
	if err != nil {
		return nil, err
	}
	return &models.StockReport{From: r.From, To: r.To, Rows: rows}, nil
}

// ReceiptPDF renders the receipt for an order
func (s *ReportService) ReceiptPDF(ctx context.Context, orderID int) ([]byte, error) {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return RenderReceiptPDF(order, s.Business)
}

// RenderStockCSV writes the report as a spreadsheet-friendly CSV
func RenderStockCSV(report *models.StockReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"SKU", "Product", "Received", "Loaded Out", "Broken", "Dispatched", "Current Stock", "Reorder Level", "Low Stock"}

	// title row padded to the header width; csv readers expect a fixed field count
	title := make([]string, len(header))
	title[0], title[1], title[2] = "Stock Report", report.From.Format(timeutil.DateLayout), report.To.Format(timeutil.DateLayout)
	w.Write(title)
	w.Write(header)

	for _, row := range report.Rows {
		low := ""
		if row.LowStock() {
			low = "YES"
		}
		w.Write([]string{
			row.SKU,
			row.Name,
			strconv.Itoa(row.Received),
			strconv.Itoa(row.LoadedOut),
			strconv.Itoa(row.Broken),
			strconv.Itoa(row.Dispatched),
			strconv.Itoa(row.CurrentStock),
			strconv.Itoa(row.ReorderLevel),
			low,
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderStockPDF prints the report on landscape A4
func RenderStockPDF(report *models.StockReport, business Business) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, business.Name+" - Stock Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("Period: %s to %s", report.From.Format("02-Jan-2006"), report.To.Format("02-Jan-2006")),
		"", 1, "C", false, 0, "")
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	widths := []float64{35, 82, 25, 25, 25, 25, 30, 30}
	headers := []string{"SKU", "Product", "Received", "Loaded Out", "Broken", "Dispatched", "Current", "Reorder"}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, row := range report.Rows {
		fill := row.LowStock()
		pdf.SetFillColor(255, 220, 220)
		cells := []string{
			row.SKU, row.Name,
			strconv.Itoa(row.Received), strconv.Itoa(row.LoadedOut), strconv.Itoa(row.Broken),
			strconv.Itoa(row.Dispatched), strconv.Itoa(row.CurrentStock), strconv.Itoa(row.ReorderLevel),
		}
		for i, c := range cells {
			align := "C"
			if i == 1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderReceiptPDF prints an order receipt on A5
func RenderReceiptPDF(order *models.Order, business Business) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(132, 8, business.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(132, 6, fmt.Sprintf("Receipt #%06d", order.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(132, 6, order.CreatedAt.In(timeutil.Zone).Format(timeutil.DisplayLayout), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.CellFormat(66, 6, "Customer: "+order.CustomerName, "", 0, "L", false, 0, "")
	pdf.CellFormat(66, 6, "Payment: "+order.PaymentMethod+" ("+order.PaymentStatus+")", "", 1, "R", false, 0, "")
	if order.Status == models.OrderCancelled {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(132, 7, "CANCELLED", "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", 10)
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(62, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(15, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(27, 7, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(28, 7, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	returnable := 0
	for _, sale := range order.Sales {
		pdf.CellFormat(62, 6, sale.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, strconv.Itoa(sale.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(27, 6, sale.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, sale.LineTotal.StringFixed(2), "1", 1, "R", false, 0, "")
		if sale.IsReturnable {
			returnable += sale.Quantity
		}
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(104, 8, "Total ("+business.CurrencySymbol+")", "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 8, order.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")

	if returnable > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(132, 5, fmt.Sprintf("Returnable crates on this order: %d", returnable), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
