package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"depot-backend/internal/auth"
	"depot-backend/internal/handlers"
	"depot-backend/internal/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Customers *handlers.CustomerHandler
	Products  *handlers.ProductHandler
	Empties   *handlers.EmptiesHandler
	POS       *handlers.POSHandler
	Warehouse *handlers.WarehouseHandler
	Dashboard *handlers.DashboardHandler
	Health    *handlers.HealthHandler
	LiveBoard http.Handler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	// Public
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/auth/2fa/verify", h.Auth.Verify2FA).Methods("POST")
	r.HandleFunc("/health", h.Health.Basic).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.Detailed).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	// Live warehouse board
	r.Handle("/ws/warehouse", authMiddleware.RequireArea(auth.AreaWarehouse)(h.LiveBoard)).Methods("GET")

	// Session, open to every signed-in user
	sessionAPI := r.PathPrefix("/api").Subrouter()
	sessionAPI.Use(authMiddleware.Authenticate)
	sessionAPI.HandleFunc("/logout", h.Auth.Logout).Methods("POST")
	sessionAPI.HandleFunc("/me", h.Auth.Me).Methods("GET")
	sessionAPI.HandleFunc("/me/2fa/setup", h.Auth.SetupTOTP).Methods("POST")
	sessionAPI.HandleFunc("/me/2fa/enable", h.Auth.EnableTOTP).Methods("POST")
	sessionAPI.HandleFunc("/me/2fa/disable", h.Auth.DisableTOTP).Methods("POST")
	sessionAPI.HandleFunc("/products", h.Products.ListProducts).Methods("GET")
	sessionAPI.HandleFunc("/products/picker", h.Products.Picker).Methods("GET")
	sessionAPI.HandleFunc("/products/{id:[0-9]+}", h.Products.GetProduct).Methods("GET")

	// Admin-only writes that live outside the admin area
	adminWrites := r.PathPrefix("/api").Subrouter()
	adminWrites.Use(authMiddleware.RequireAdmin)
	adminWrites.HandleFunc("/products", h.Products.CreateProduct).Methods("POST")
	adminWrites.HandleFunc("/products/{id:[0-9]+}", h.Products.UpdateProduct).Methods("PUT")
	adminWrites.HandleFunc("/products/{id:[0-9]+}", h.Products.DeleteProduct).Methods("DELETE")
	adminWrites.HandleFunc("/customers/{id:[0-9]+}/mou", h.Customers.SetMOU).Methods("PUT")
	adminWrites.HandleFunc("/customer-types", h.Customers.CreateType).Methods("POST")
	adminWrites.HandleFunc("/customer-types/{id:[0-9]+}", h.Customers.UpdateType).Methods("PUT")
	adminWrites.HandleFunc("/crates/adjustments", h.Empties.Adjust).Methods("POST")

	// Dashboard
	dashboardAPI := r.PathPrefix("/api/dashboard").Subrouter()
	dashboardAPI.Use(authMiddleware.RequireArea(auth.AreaDashboard))
	dashboardAPI.HandleFunc("/summary", h.Dashboard.Summary).Methods("GET")

	// Customers
	customersAPI := r.PathPrefix("/api/customers").Subrouter()
	customersAPI.Use(authMiddleware.RequireArea(auth.AreaCustomers))
	customersAPI.HandleFunc("", h.Customers.ListCustomers).Methods("GET")
	customersAPI.HandleFunc("", h.Customers.CreateCustomer).Methods("POST")
	customersAPI.HandleFunc("/{id:[0-9]+}", h.Customers.GetCustomer).Methods("GET")
	customersAPI.HandleFunc("/{id:[0-9]+}", h.Customers.UpdateCustomer).Methods("PUT")
	customersAPI.HandleFunc("/{id:[0-9]+}", h.Customers.DeleteCustomer).Methods("DELETE")

	typesAPI := r.PathPrefix("/api/customer-types").Subrouter()
	typesAPI.Use(authMiddleware.RequireArea(auth.AreaCustomers))
	typesAPI.HandleFunc("", h.Customers.ListTypes).Methods("GET")

	// Crates / empties
	cratesAPI := r.PathPrefix("/api/crates").Subrouter()
	cratesAPI.Use(authMiddleware.RequireArea(auth.AreaCrates))
	cratesAPI.HandleFunc("/returns", h.Empties.RecordReturn).Methods("POST")
	cratesAPI.HandleFunc("/logs", h.Empties.ListLogs).Methods("GET")
	cratesAPI.HandleFunc("/logs/{id:[0-9]+}", h.Empties.GetLog).Methods("GET")
	cratesAPI.HandleFunc("/balances", h.Empties.ListBalances).Methods("GET")

	// Point of sale
	posAPI := r.PathPrefix("/api/pos").Subrouter()
	posAPI.Use(authMiddleware.RequireArea(auth.AreaPOS))
	posAPI.HandleFunc("/projection", h.POS.Projection).Methods("POST")
	posAPI.HandleFunc("/checkout", h.POS.Checkout).Methods("POST")
	posAPI.HandleFunc("/orders", h.POS.ListOrders).Methods("GET")
	posAPI.HandleFunc("/orders/{id:[0-9]+}", h.POS.GetOrder).Methods("GET")
	posAPI.HandleFunc("/orders/{id:[0-9]+}/approve", h.POS.Approve).Methods("POST")
	posAPI.HandleFunc("/orders/{id:[0-9]+}/cancel", h.POS.Cancel).Methods("POST")
	posAPI.HandleFunc("/orders/{id:[0-9]+}/receipt", h.POS.Receipt).Methods("GET")
	posAPI.HandleFunc("/orders/{id:[0-9]+}/payment-link", h.POS.CreatePaymentLink).Methods("POST")
	posAPI.HandleFunc("/payments/verify", h.POS.VerifyPayment).Methods("POST")

	// Warehouse
	warehouseAPI := r.PathPrefix("/api/warehouse").Subrouter()
	warehouseAPI.Use(authMiddleware.RequireArea(auth.AreaWarehouse))
	warehouseAPI.HandleFunc("/orders", h.Warehouse.ListOrders).Methods("GET")
	warehouseAPI.HandleFunc("/orders/{id:[0-9]+}", h.Warehouse.GetOrder).Methods("GET")
	warehouseAPI.HandleFunc("/orders/{id:[0-9]+}/ready", h.Warehouse.MarkReady).Methods("POST")
	warehouseAPI.HandleFunc("/orders/{id:[0-9]+}/cancel", h.Warehouse.CancelOrder).Methods("POST")
	warehouseAPI.HandleFunc("/receivables", h.Warehouse.ListReceivables).Methods("GET")
	warehouseAPI.HandleFunc("/receivables", h.Warehouse.CreateReceivable).Methods("POST")
	warehouseAPI.HandleFunc("/receivables/{id:[0-9]+}", h.Warehouse.GetReceivable).Methods("GET")
	warehouseAPI.HandleFunc("/receivables/{id:[0-9]+}/image", h.Warehouse.UploadReceivableImage).Methods("POST")
	warehouseAPI.HandleFunc("/receivables/{id:[0-9]+}/image", h.Warehouse.ReceivableImageURL).Methods("GET")
	warehouseAPI.HandleFunc("/loadouts", h.Warehouse.ListLoadouts).Methods("GET")
	warehouseAPI.HandleFunc("/loadouts", h.Warehouse.CreateLoadout).Methods("POST")
	warehouseAPI.HandleFunc("/loadouts/{id:[0-9]+}", h.Warehouse.GetLoadout).Methods("GET")
	warehouseAPI.HandleFunc("/breakages", h.Warehouse.ListBreakages).Methods("GET")
	warehouseAPI.HandleFunc("/breakages", h.Warehouse.CreateBreakage).Methods("POST")
	warehouseAPI.HandleFunc("/reports/stock", h.Warehouse.StockReport).Methods("GET")

	// Admin
	adminAPI := r.PathPrefix("/api/admin").Subrouter()
	adminAPI.Use(authMiddleware.RequireArea(auth.AreaAdmin))
	adminAPI.HandleFunc("/users", h.Users.ListUsers).Methods("GET")
	adminAPI.HandleFunc("/users", h.Users.CreateUser).Methods("POST")
	adminAPI.HandleFunc("/users/{id:[0-9]+}", h.Users.GetUser).Methods("GET")
	adminAPI.HandleFunc("/users/{id:[0-9]+}", h.Users.UpdateUser).Methods("PUT")
	adminAPI.HandleFunc("/users/{id:[0-9]+}", h.Users.DeleteUser).Methods("DELETE")
	adminAPI.HandleFunc("/users/{id:[0-9]+}/toggle-active", h.Users.ToggleActive).Methods("PATCH")
	adminAPI.HandleFunc("/request-logs", h.Users.ListRequestLogs).Methods("GET")

	return r
}

// Chain wraps the router with the outer middleware: CORS first, then panic
// recovery, then request logging.
func Chain(router http.Handler, cors, recovery, requestLog func(http.Handler) http.Handler) http.Handler {
	return cors(recovery(requestLog(router)))
}
