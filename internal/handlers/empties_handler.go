package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"depot-backend/internal/models"
	"depot-backend/internal/services"
	"depot-backend/pkg/utils"
)

// EmptiesHandler serves the crates area
type EmptiesHandler struct {
	Service *services.EmptiesService
	log     *zap.Logger
}

func NewEmptiesHandler(s *services.EmptiesService, log *zap.Logger) *EmptiesHandler {
	return &EmptiesHandler{Service: s, log: log}
}

func (h *EmptiesHandler) RecordReturn(w http.ResponseWriter, r *http.Request) {
	var req models.EmptiesReturnRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.Service.RecordReturn(r.Context(), &req, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, entry)
}

// Adjust books a signed correction with notes (admin only)
func (h *EmptiesHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req models.EmptiesAdjustmentRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.Service.Adjust(r.Context(), &req, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, entry)
}

func (h *EmptiesHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	customerID, ok := queryInt(w, r, "customer_id")
	if !ok {
		return
	}
	rng, ok := optionalRange(w, r)
	if !ok {
		return
	}
	logs, err := h.Service.ListLogs(r.Context(), models.EmptiesLogFilter{
		CustomerID: customerID,
		EntryType:  r.URL.Query().Get("entry_type"),
		From:       rng.From,
		To:         rng.To,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}

func (h *EmptiesHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.Service.GetLog(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, entry)
}

func (h *EmptiesHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Service.ListBalances(r.Context(), queryBool(r, "non_zero"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, balances)
}
