package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"depot-backend/internal/middleware"
	"depot-backend/internal/models"
	"depot-backend/internal/services"
	"depot-backend/pkg/utils"
)

type AuthHandler struct {
	Service      *services.UserService
	SecureCookie bool
	log          *zap.Logger
}

func NewAuthHandler(s *services.UserService, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Service: s, SecureCookie: secureCookie, log: log}
}

// Login answers with a session token, or a temp token when 2FA is required
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if resp.Token != "" {
		h.setSessionCookie(w, resp.Token)
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req models.Verify2FARequest
	if !decode(w, r, &req) {
		return
	}
	if req.TempToken == "" || req.Code == "" {
		utils.Error(w, http.StatusBadRequest, "temp_token and code are required")
		return
	}

	resp, err := h.Service.Verify2FA(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.setSessionCookie(w, resp.Token)
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := middleware.SessionFromContext(r.Context()); ok {
		h.Service.Logout(r.Context(), session.TokenID, session.ExpiresAt)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	utils.Message(w, http.StatusOK, "Logged out")
}

// Me returns the signed-in profile and the areas its role can open
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		utils.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	utils.JSON(w, http.StatusOK, h.Service.Me(user))
}

func (h *AuthHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.SetupTOTP(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Service.EnableTOTP(r.Context(), currentUserID(r), req.Code); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.Message(w, http.StatusOK, "Two-factor authentication enabled")
}

func (h *AuthHandler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Service.DisableTOTP(r.Context(), currentUserID(r), req.Code); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	utils.Message(w, http.StatusOK, "Two-factor authentication disabled")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
