package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"depot-backend/internal/health"
	"depot-backend/internal/middleware"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
	"depot-backend/internal/services"
)

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body["error"]
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ValidationError{Problems: []string{"name is required"}}, http.StatusBadRequest},
		{repositories.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load order: %w", repositories.ErrNotFound), http.StatusNotFound},
		{services.ErrInsufficientEmpties, http.StatusConflict},
		{fmt.Errorf("%w for CLUB-625", services.ErrInsufficientStock), http.StatusConflict},
		{fmt.Errorf("%w: order is cancelled", services.ErrInvalidTransition), http.StatusConflict},
		{services.ErrLastAdmin, http.StatusConflict},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrAccountSuspended, http.StatusForbidden},
		{services.ErrPaymentsDisabled, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders", nil)
	writeError(rec, req, zap.NewNop(), errors.New("pq: relation does not exist"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := errorBody(t, rec); msg != "Internal server error" {
		t.Fatalf("expected generic message, got %q", msg)
	}

	rec = httptest.NewRecorder()
	writeError(rec, req, zap.NewNop(), services.ErrInsufficientEmpties)
	if msg := errorBody(t, rec); msg != "insufficient empties balance" {
		t.Fatalf("expected the service message verbatim, got %q", msg)
	}
}

func TestPathID(t *testing.T) {
	for _, v := range []string{"abc", "0", "-3"} {
		rec := httptest.NewRecorder()
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": v})
		if _, ok := pathID(rec, req, "id"); ok || rec.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got ok=%v code=%d", v, ok, rec.Code)
		}
	}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "42"})
	if id, ok := pathID(httptest.NewRecorder(), req, "id"); !ok || id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}
}

func TestQueryIDs(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?exclude=1,%202,,3", nil)
	ids, ok := queryIDs(rec, req, "exclude")
	if !ok || len(ids) != 3 || ids[1] != 2 {
		t.Fatalf("expected [1 2 3], got %v", ids)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/?exclude=1,x", nil)
	if _, ok := queryIDs(rec, req, "exclude"); ok || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}
}

func TestDateRange(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"", true},
		{"?from=2024-03-01&to=2024-03-31", true},
		{"?from=2024-03-31&to=2024-03-01", false},
		{"?from=01/03/2024", false},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		_, ok := dateRange(rec, httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
		if ok != tt.ok {
			t.Errorf("%q: expected ok=%v, got %v (code %d)", tt.query, tt.ok, ok, rec.Code)
		}
	}

	rng, ok := optionalRange(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !ok || !rng.From.IsZero() || !rng.To.IsZero() {
		t.Fatalf("expected an open range, got %+v", rng)
	}
}

func TestCheckoutRejectsMalformedBody(t *testing.T) {
	h := NewPOSHandler(nil, nil, nil, zap.NewNop())
	rec := httptest.NewRecorder()
	h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/pos/checkout", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPaymentLinkWhenGatewayDisabled(t *testing.T) {
	payments := services.NewPaymentService(nil, "", "", "GHS", zap.NewNop())
	h := NewPOSHandler(nil, nil, payments, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/pos/orders/7/payment-link", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})
	rec := httptest.NewRecorder()
	h.CreatePaymentLink(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if msg := errorBody(t, rec); msg != services.ErrPaymentsDisabled.Error() {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestMeReturnsAreas(t *testing.T) {
	h := NewAuthHandler(&services.UserService{}, false, zap.NewNop())
	user := &models.User{ID: 3, Name: "Esi", Email: "esi@example.com", Role: models.RoleEmpties, IsActive: true, PasswordHash: "secret-hash"}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatal("password hash leaked into /api/me")
	}
	var resp models.SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"dashboard", "customers", "crates"}
	if len(resp.Areas) != len(want) {
		t.Fatalf("expected %v, got %v", want, resp.Areas)
	}
	for i := range want {
		if resp.Areas[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, resp.Areas)
		}
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := NewAuthHandler(&services.UserService{}, true, zap.NewNop())
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.SessionCookie || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected the session cookie to be expired, got %+v", cookies)
	}
}

func TestUploadRequiresMultipart(t *testing.T) {
	h := NewWarehouseHandler(nil, nil, nil, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/warehouse/receivables/1/image", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.UploadReceivableImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestHealthBasic(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(health.NewHealthChecker(pinger{})).Basic(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHealthHandler(health.NewHealthChecker(pinger{err: errors.New("down")})).Basic(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
