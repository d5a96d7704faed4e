package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"depot-backend/internal/models"
	"depot-backend/internal/services"
	"depot-backend/pkg/utils"
)

type UserHandler struct {
	Service *services.UserService
	log     *zap.Logger
}

func NewUserHandler(s *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{Service: s, log: log}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Service.CreateUser(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Service.UpdateUser(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

// ToggleActive suspends or reinstates an account
func (h *UserHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.Service.ToggleActive(r.Context(), id, currentUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteUser(r.Context(), id, currentUserID(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.Message(w, http.StatusOK, "User deleted")
}

func (h *UserHandler) ListRequestLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryInt(w, r, "user_id")
	if !ok {
		return
	}
	minStatus, ok := queryInt(w, r, "min_status")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	logs, err := h.Service.ListRequestLogs(r.Context(), models.RequestLogFilter{
		UserID:    userID,
		Path:      r.URL.Query().Get("path"),
		MinStatus: minStatus,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}
