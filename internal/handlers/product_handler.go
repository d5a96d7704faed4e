package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"depot-backend/internal/models"
	"depot-backend/internal/services"
	"depot-backend/pkg/utils"
)

type ProductHandler struct {
	Service *services.ProductService
	log     *zap.Logger
}

func NewProductHandler(s *services.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{Service: s, log: log}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context(), models.ProductFilter{
		Search:         r.URL.Query().Get("search"),
		ReturnableOnly: queryBool(r, "returnable"),
		IncludeDeleted: queryBool(r, "include_deleted"),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, products)
}

// Picker lists selectable products: ?exclude=1,2&returnable=true
func (h *ProductHandler) Picker(w http.ResponseWriter, r *http.Request) {
	exclude, ok := queryIDs(w, r, "exclude")
	if !ok {
		return
	}
	products, err := h.Service.Picker(r.Context(), exclude, queryBool(r, "returnable"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	product, err := h.Service.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductInput
	if !decode(w, r, &req) {
		return
	}
	product, err := h.Service.CreateProduct(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ProductInput
	if !decode(w, r, &req) {
		return
	}
	product, err := h.Service.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.Message(w, http.StatusOK, "Product deleted")
}
