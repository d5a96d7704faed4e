package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"depot-backend/internal/auth"
	"depot-backend/internal/config"
	"depot-backend/internal/models"
)

type fakeUsers map[int]*models.User

func (f fakeUsers) Get(_ context.Context, id int) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func setup(t *testing.T) (*AuthMiddleware, *auth.JWTManager, fakeUsers) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "middleware-secret"
	cfg.JWT.ExpirationHours = 1
	jwtManager := auth.NewJWTManager(cfg)
	users := fakeUsers{
		1: {ID: 1, Email: "admin@depot.test", Role: models.RoleAdmin, IsActive: true},
		2: {ID: 2, Email: "cashier@depot.test", Role: models.RoleCashier, IsActive: true},
		3: {ID: 3, Email: "empties@depot.test", Role: models.RoleEmpties, IsActive: true},
		4: {ID: 4, Email: "gone@depot.test", Role: models.RoleCashier, IsActive: false},
	}
	return NewAuthMiddleware(jwtManager, users), jwtManager, users
}

func bearer(t *testing.T, j *auth.JWTManager, u *models.User) string {
	t.Helper()
	token, err := j.GenerateToken(u)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireAreaMissingToken(t *testing.T) {
	m, _, _ := setup(t)
	h := m.RequireArea(auth.AreaPOS)(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/pos", nil)
	req.Header.Set("Accept", "text/html")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRequireAreaByRole(t *testing.T) {
	m, j, users := setup(t)

	tests := []struct {
		name   string
		user   int
		area   string
		method string
		status int
	}{
		{"cashier opens pos", 2, auth.AreaPOS, http.MethodPost, http.StatusOK},
		{"cashier blocked from warehouse", 2, auth.AreaWarehouse, http.MethodGet, http.StatusForbidden},
		{"empties reads customers", 3, auth.AreaCustomers, http.MethodGet, http.StatusOK},
		{"empties cannot edit customers", 3, auth.AreaCustomers, http.MethodPut, http.StatusForbidden},
		{"admin everywhere", 1, auth.AreaAdmin, http.MethodDelete, http.StatusOK},
		{"suspended account", 4, auth.AreaPOS, http.MethodGet, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/x", nil)
			req.Header.Set("Authorization", bearer(t, j, users[tt.user]))
			rec := httptest.NewRecorder()
			m.RequireArea(tt.area)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestForbiddenBrowserRedirectsToDashboard(t *testing.T) {
	m, j, users := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/warehouse", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: bearer(t, j, users[2])[len("Bearer "):]})
	rec := httptest.NewRecorder()
	m.RequireArea(auth.AreaWarehouse)(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRoleReadFromStoreNotToken(t *testing.T) {
	m, j, users := setup(t)
	token := bearer(t, j, users[2])

	// Demote after the token was issued
	users[2] = &models.User{ID: 2, Role: models.RoleWarehouse, IsActive: true}

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	m.RequireArea(auth.AreaPOS)(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after role change, got %d", rec.Code)
	}
}

func TestWebsocketQueryToken(t *testing.T) {
	m, j, users := setup(t)
	token := bearer(t, j, users[1])[len("Bearer "):]

	req := httptest.NewRequest(http.MethodGet, "/ws/warehouse?token="+token, nil)
	rec := httptest.NewRecorder()
	m.Authenticate(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me?token="+token, nil)
	rec = httptest.NewRecorder()
	m.Authenticate(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected query token to be ignored outside /ws, got %d", rec.Code)
	}
}

type memLogs struct {
	mu      sync.Mutex
	entries []*models.RequestLog
}

func (m *memLogs) Insert(_ context.Context, e *models.RequestLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func TestRequestLoggerRecordsUser(t *testing.T) {
	m, j, users := setup(t)
	store := &memLogs{}
	rl := NewRequestLogger(store, zap.NewNop())

	h := rl.Handler(m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/pos/checkout", nil)
	req.Header.Set("Authorization", bearer(t, j, users[2]))
	h.ServeHTTP(httptest.NewRecorder(), req)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	rl.Close()

	if len(store.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(store.entries))
	}
	e := store.entries[0]
	if e.Status != http.StatusCreated || e.Path != "/api/pos/checkout" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.UserID == nil || *e.UserID != 2 || e.UserEmail != "cashier@depot.test" {
		t.Fatalf("expected user 2 on entry, got %+v", e)
	}
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if ip := getClientIP(req); ip != "10.0.0.1" {
		t.Fatalf("expected 10.0.0.1, got %s", ip)
	}
}
