package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"depot-backend/internal/models"
	"depot-backend/internal/services"
	"depot-backend/pkg/utils"
)

type CustomerHandler struct {
	Service *services.CustomerService
	log     *zap.Logger
}

func NewCustomerHandler(s *services.CustomerService, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{Service: s, log: log}
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	typeID, ok := queryInt(w, r, "type_id")
	if !ok {
		return
	}
	customers, err := h.Service.ListCustomers(r.Context(), models.CustomerFilter{
		Search:         r.URL.Query().Get("search"),
		CustomerTypeID: typeID,
		IncludeDeleted: queryBool(r, "include_deleted"),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	customer, err := h.Service.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CustomerInput
	if !decode(w, r, &req) {
		return
	}
	customer, err := h.Service.CreateCustomer(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CustomerInput
	if !decode(w, r, &req) {
		return
	}
	customer, err := h.Service.UpdateCustomer(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.Message(w, http.StatusOK, "Customer deleted")
}

// SetMOU records or withdraws a signed MOU (admin only)
func (h *CustomerHandler) SetMOU(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.SetMOURequest
	if !decode(w, r, &req) {
		return
	}
	customer, err := h.Service.SetMOU(r.Context(), id, req.MOUSigned)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListTypes(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, types)
}

func (h *CustomerHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req models.CustomerTypeInput
	if !decode(w, r, &req) {
		return
	}
	t, err := h.Service.CreateType(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, t)
}

func (h *CustomerHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CustomerTypeInput
	if !decode(w, r, &req) {
		return
	}
	t, err := h.Service.UpdateType(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, t)
}
