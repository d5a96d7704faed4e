package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"depot-backend/internal/services"
	"depot-backend/pkg/utils"
)

type DashboardHandler struct {
	Service *services.DashboardService
	log     *zap.Logger
}

func NewDashboardHandler(s *services.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Service: s, log: log}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}
