package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"depot-backend/internal/auth"
	"depot-backend/internal/config"
	"depot-backend/internal/handlers"
	"depot-backend/internal/health"
	"depot-backend/internal/middleware"
	"depot-backend/internal/models"
	"depot-backend/internal/services"
)

type users map[int]*models.User

func (u users) Get(_ context.Context, id int) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, errors.New("not found")
}

type up struct{}

func (up) Ping(context.Context) error { return nil }

func testRouter(t *testing.T) (http.Handler, *auth.JWTManager, users) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-secret"
	jwtManager := auth.NewJWTManager(cfg)
	store := users{
		1: {ID: 1, Role: models.RoleAdmin, IsActive: true},
		2: {ID: 2, Role: models.RoleCashier, IsActive: true},
		3: {ID: 3, Role: models.RoleWarehouse, IsActive: true},
		4: {ID: 4, Role: models.RoleEmpties, IsActive: true},
	}

	log := zap.NewNop()
	h := Handlers{
		Auth:      handlers.NewAuthHandler(&services.UserService{}, false, log),
		Users:     handlers.NewUserHandler(nil, log),
		Customers: handlers.NewCustomerHandler(nil, log),
		Products:  handlers.NewProductHandler(nil, log),
		Empties:   handlers.NewEmptiesHandler(nil, log),
		POS:       handlers.NewPOSHandler(nil, nil, nil, log),
		Warehouse: handlers.NewWarehouseHandler(nil, nil, nil, log),
		Dashboard: handlers.NewDashboardHandler(nil, log),
		Health:    handlers.NewHealthHandler(health.NewHealthChecker(up{})),
		LiveBoard: http.NotFoundHandler(),
	}
	return NewRouter(h, middleware.NewAuthMiddleware(jwtManager, store)), jwtManager, store
}

func do(t *testing.T, router http.Handler, j *auth.JWTManager, user *models.User, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if user != nil {
		token, err := j.GenerateToken(user)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	router, j, _ := testRouter(t)
	if rec := do(t, router, j, nil, "GET", "/health"); rec.Code != http.StatusOK {
		t.Fatalf("/health: expected 200, got %d", rec.Code)
	}
	if rec := do(t, router, j, nil, "GET", "/metrics"); rec.Code != http.StatusOK {
		t.Fatalf("/metrics: expected 200, got %d", rec.Code)
	}
	if rec := do(t, router, j, nil, "GET", "/api/me"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("/api/me without token: expected 401, got %d", rec.Code)
	}
}

func TestAreaGuards(t *testing.T) {
	router, j, store := testRouter(t)

	tests := []struct {
		user   int
		method string
		path   string
	}{
		{2, "GET", "/api/warehouse/orders"},
		{2, "GET", "/api/crates/balances"},
		{2, "GET", "/api/admin/users"},
		{3, "POST", "/api/pos/checkout"},
		{3, "GET", "/api/customers"},
		{4, "POST", "/api/customers"},
		{4, "DELETE", "/api/customers/5"},
		{4, "GET", "/api/pos/orders"},
		{2, "POST", "/api/products"},
		{2, "PUT", "/api/customers/5/mou"},
		{4, "POST", "/api/crates/adjustments"},
		{2, "POST", "/api/customer-types"},
		{2, "GET", "/ws/warehouse"},
	}
	for _, tt := range tests {
		rec := do(t, router, j, store[tt.user], tt.method, tt.path)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s as %s: expected 403, got %d", tt.method, tt.path, store[tt.user].Role, rec.Code)
		}
	}
}

func TestSignedInUserReachesSession(t *testing.T) {
	router, j, store := testRouter(t)
	for id := range store {
		if rec := do(t, router, j, store[id], "GET", "/api/me"); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200 from /api/me, got %d", store[id].Role, rec.Code)
		}
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.NotFoundHandler(), mark("cors"), mark("recovery"), mark("log"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if len(order) != 3 || order[0] != "cors" || order[1] != "recovery" || order[2] != "log" {
		t.Fatalf("unexpected middleware order %v", order)
	}
}
