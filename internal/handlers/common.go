package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"depot-backend/internal/middleware"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
	"depot-backend/internal/services"
	"depot-backend/internal/timeutil"
	"depot-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// errorStatus maps service errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case services.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidTOTPCode):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAccountSuspended):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrInsufficientEmpties),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrLastAdmin),
		errors.Is(err, repositories.ErrConflict),
		errors.Is(err, repositories.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, services.ErrPaymentsDisabled), errors.Is(err, services.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError sends the service message for expected errors. Anything else is
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		utils.Error(w, status, "Internal server error")
		return
	}
	utils.Error(w, status, err.Error())
}

// decode reads a JSON body of at most 1 MiB
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID parses the {name} route variable as a positive id
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query value; empty means zero
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return n, true
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// queryIDs parses a comma separated id list such as exclude=1,2,3
func queryIDs(w http.ResponseWriter, r *http.Request, name string) ([]int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid "+name)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// dateRange reads ?from=&to= (YYYY-MM-DD), defaulting to today
func dateRange(w http.ResponseWriter, r *http.Request) (models.DateRange, bool) {
	q := r.URL.Query()
	from, to, err := timeutil.DayRange(q.Get("from"), q.Get("to"))
	if err != nil || to.Before(from) {
		utils.Error(w, http.StatusBadRequest, "Dates must be YYYY-MM-DD and from must not be after to")
		return models.DateRange{}, false
	}
	return models.DateRange{From: from, To: to}, true
}

// currentUser is always present behind the auth middleware
func currentUser(r *http.Request) *models.User {
	user, _ := middleware.UserFromContext(r.Context())
	return user
}

func currentUserID(r *http.Request) int {
	id, _ := middleware.GetUserIDFromContext(r.Context())
	return id
}

// optionalRange is like dateRange but leaves the range open when neither
// bound is given
func optionalRange(w http.ResponseWriter, r *http.Request) (models.DateRange, bool) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		return models.DateRange{}, true
	}
	return dateRange(w, r)
}
