package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"depot-backend/internal/models"
	"depot-backend/internal/services"
	"depot-backend/internal/storage"
	"depot-backend/internal/timeutil"
	"depot-backend/pkg/utils"
)

type WarehouseHandler struct {
	Orders    *services.OrderService
	Inventory *services.InventoryService
	Reports   *services.ReportService
	log       *zap.Logger
}

func NewWarehouseHandler(orders *services.OrderService, inventory *services.InventoryService, reports *services.ReportService, log *zap.Logger) *WarehouseHandler {
	return &WarehouseHandler{Orders: orders, Inventory: inventory, Reports: reports, log: log}
}

// Warehouse orders

func (h *WarehouseHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListWarehouseOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

func (h *WarehouseHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	wo, err := h.Orders.GetWarehouseOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, wo)
}

// MarkReady dispatches a warehouse order and deducts its stock
func (h *WarehouseHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	wo, err := h.Orders.MarkReady(r.Context(), id, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, wo)
}

func (h *WarehouseHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CancelRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	order, err := h.Orders.CancelWarehouseOrder(r.Context(), id, req.Reason, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

// Receivables

func (h *WarehouseHandler) CreateReceivable(w http.ResponseWriter, r *http.Request) {
	var req models.ReceivableRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.Inventory.CreateReceivable(r.Context(), &req, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, rec)
}

func (h *WarehouseHandler) ListReceivables(w http.ResponseWriter, r *http.Request) {
	rng, ok := dateRange(w, r)
	if !ok {
		return
	}
	list, err := h.Inventory.ListReceivables(r.Context(), rng)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

func (h *WarehouseHandler) GetReceivable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.Inventory.GetReceivable(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

// UploadReceivableImage takes a multipart "image" field of at most 10 MiB
func (h *WarehouseHandler) UploadReceivableImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		utils.Error(w, http.StatusBadRequest, "Image must be sent as multipart form field \"image\" and be at most 10 MiB")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	rec, err := h.Inventory.UploadReceivableImage(r.Context(), id, file, header.Size,
		header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

func (h *WarehouseHandler) ReceivableImageURL(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	url, expires, err := h.Inventory.ReceivableImageURL(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"url":        url,
		"expires_at": expires.Format(time.RFC3339),
	})
}

// Loadouts

func (h *WarehouseHandler) CreateLoadout(w http.ResponseWriter, r *http.Request) {
	var req models.LoadoutRequest
	if !decode(w, r, &req) {
		return
	}
	l, err := h.Inventory.CreateLoadout(r.Context(), &req, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, l)
}

func (h *WarehouseHandler) ListLoadouts(w http.ResponseWriter, r *http.Request) {
	rng, ok := dateRange(w, r)
	if !ok {
		return
	}
	list, err := h.Inventory.ListLoadouts(r.Context(), rng)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

func (h *WarehouseHandler) GetLoadout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	l, err := h.Inventory.GetLoadout(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, l)
}

// Breakages

func (h *WarehouseHandler) CreateBreakage(w http.ResponseWriter, r *http.Request) {
	var req models.BreakageRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.Inventory.CreateBreakage(r.Context(), &req, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, b)
}

func (h *WarehouseHandler) ListBreakages(w http.ResponseWriter, r *http.Request) {
	rng, ok := dateRange(w, r)
	if !ok {
		return
	}
	list, err := h.Inventory.ListBreakages(r.Context(), rng)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// StockReport serves ?format=json (default), csv or pdf
func (h *WarehouseHandler) StockReport(w http.ResponseWriter, r *http.Request) {
	rng, ok := dateRange(w, r)
	if !ok {
		return
	}
	report, err := h.Reports.StockReport(r.Context(), rng)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	name := fmt.Sprintf("stock-%s-%s", report.From.Format(timeutil.DateLayout), report.To.Format(timeutil.DateLayout))
	switch r.URL.Query().Get("format") {
	case "", "json":
		utils.JSON(w, http.StatusOK, report)
	case "csv":
		data, err := services.RenderStockCSV(report)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename="+name+".csv")
		w.Write(data)
	case "pdf":
		data, err := services.RenderStockPDF(report, h.Reports.Business)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename="+name+".pdf")
		w.Write(data)
	default:
		utils.Error(w, http.StatusBadRequest, "format must be json, csv or pdf")
	}
}
