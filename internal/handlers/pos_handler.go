package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"depot-backend/internal/models"
	"depot-backend/internal/services"
	"depot-backend/pkg/utils"
)

// POSHandler serves the point of sale: projection, checkout, approval,
// cancellation, receipts and online payment.
type POSHandler struct {
	Orders   *services.OrderService
	Reports  *services.ReportService
	Payments *services.PaymentService
	log      *zap.Logger
}

func NewPOSHandler(orders *services.OrderService, reports *services.ReportService, payments *services.PaymentService, log *zap.Logger) *POSHandler {
	return &POSHandler{Orders: orders, Reports: reports, Payments: payments, log: log}
}

func (h *POSHandler) Projection(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectionRequest
	if !decode(w, r, &req) {
		return
	}
	projection, err := h.Orders.Projection(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, projection)
}

func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.Orders.Checkout(r.Context(), &req, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, result)
}

func (h *POSHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	customerID, ok := queryInt(w, r, "customer_id")
	if !ok {
		return
	}
	rng, ok := optionalRange(w, r)
	if !ok {
		return
	}
	orders, err := h.Orders.ListOrders(r.Context(), models.OrderFilter{
		Status:     r.URL.Query().Get("status"),
		CustomerID: customerID,
		From:       rng.From,
		To:         rng.To,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

func (h *POSHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

// Approve hands a pending order to the warehouse
func (h *POSHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	wo, err := h.Orders.Approve(r.Context(), id, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, wo)
}

func (h *POSHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CancelRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	order, err := h.Orders.CancelOrder(r.Context(), id, req.Reason, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

func (h *POSHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pdf, err := h.Reports.ReceiptPDF(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=receipt-"+strconv.Itoa(id)+".pdf")
	w.Write(pdf)
}

// CreatePaymentLink opens a gateway order for an online-payment order
func (h *POSHandler) CreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	link, err := h.Payments.CreateLink(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, link)
}

func (h *POSHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Payments.Verify(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}
