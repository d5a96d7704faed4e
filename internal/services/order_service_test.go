package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"depot-backend/internal/database"
	"depot-backend/internal/db"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
	"depot-backend/migrations"
)

// These tests run the order pipeline against a real Postgres. Point
// DEPOT_TEST_DATABASE_URL at a disposable database to enable them.

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.WarehouseEvent
}

func (n *recordingNotifier) Broadcast(event models.WarehouseEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type pipeline struct {
	pool      *pgxpool.Pool
	orders    *OrderService
	customers *repositories.CustomerRepository
	products  *repositories.ProductRepository
	empties   *repositories.EmptiesRepository
	warehouse *repositories.WarehouseOrderRepository
	events    *recordingNotifier
	userID    int
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	dsn := os.Getenv("DEPOT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DEPOT_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := database.NewMigrator(pool, migrations.FS, zap.NewNop()).RunMigrations(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	user := &models.User{
		Name:         "Till Operator",
		Email:        "till-" + uuid.NewString() + "@depot.test",
		PasswordHash: "x",
		Role:         models.RoleCashier,
		IsActive:     true,
	}
	if err := repositories.NewUserRepository(pool).Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	p := &pipeline{
		pool:      pool,
		customers: repositories.NewCustomerRepository(pool),
		products:  repositories.NewProductRepository(pool),
		empties:   repositories.NewEmptiesRepository(pool),
		warehouse: repositories.NewWarehouseOrderRepository(pool),
		events:    &recordingNotifier{},
		userID:    user.ID,
	}
	p.orders = NewOrderService(pool, repositories.NewOrderRepository(pool), p.warehouse,
		p.customers, p.products, p.empties, p.events, zap.NewNop())
	return p
}

func (p *pipeline) customer(t *testing.T, balance int, mou bool) *models.Customer {
	t.Helper()
	ctx := context.Background()
	c := &models.Customer{Name: "Kiosk " + uuid.NewString()[:8], Phone: "0240000000"}
	if err := p.customers.Create(ctx, c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if mou {
		if err := p.customers.SetMOU(ctx, c.ID, true); err != nil {
			t.Fatalf("set mou: %v", err)
		}
	}
	if balance > 0 {
		if _, err := p.customers.AdjustBalance(ctx, c.ID, balance); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return c
}

func (p *pipeline) product(t *testing.T, returnable bool, stock int) *models.Product {
	t.Helper()
	prod := &models.Product{
		SKU:            "T-" + strings.ToUpper(uuid.NewString()[:8]),
		Name:           "Test Lager",
		WholesalePrice: decimal.RequireFromString("10.00"),
		RetailPrice:    decimal.RequireFromString("12.00"),
		IsReturnable:   returnable,
		StockQuantity:  stock,
	}
	if err := p.products.Create(context.Background(), prod); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return prod
}

func (p *pipeline) balance(t *testing.T, customerID int) int {
	t.Helper()
	c, err := p.customers.Get(context.Background(), customerID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	return c.CrateBalance
}

func (p *pipeline) stock(t *testing.T, productID int) int {
	t.Helper()
	prod, err := p.products.Get(context.Background(), productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return prod.StockQuantity
}

func (p *pipeline) logs(t *testing.T, customerID int, entryType string) []*models.EmptiesLog {
	t.Helper()
	logs, err := p.empties.List(context.Background(), models.EmptiesLogFilter{CustomerID: customerID, EntryType: entryType})
	if err != nil {
		t.Fatalf("list empties: %v", err)
	}
	return logs
}

func (p *pipeline) checkout(t *testing.T, customerID int, items ...models.ItemQuantity) *models.Order {
	t.Helper()
	res, err := p.orders.Checkout(context.Background(), &models.CheckoutRequest{
		CustomerID:    customerID,
		PaymentMethod: models.PaymentCash,
		Items:         items,
	}, p.userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return res.Order
}

func TestCheckoutBooksEmptiesSale(t *testing.T) {
	p := newPipeline(t)
	c := p.customer(t, 10, false)
	crate := p.product(t, true, 50)
	can := p.product(t, false, 50)

	order := p.checkout(t, c.ID,
		models.ItemQuantity{ProductID: crate.ID, Quantity: 4},
		models.ItemQuantity{ProductID: can.ID, Quantity: 2},
	)

	if order.Status != models.OrderPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("72.00")) {
		t.Fatalf("expected retail total 72.00, got %s", order.TotalAmount)
	}
	if got := p.balance(t, c.ID); got != 6 {
		t.Fatalf("expected balance 6, got %d", got)
	}

	sales := p.logs(t, c.ID, models.EmptiesSale)
	if len(sales) != 1 {
		t.Fatalf("expected one sale entry, got %d", len(sales))
	}
	entry := sales[0]
	if entry.TotalQuantity != -4 || entry.BalanceAfter != 6 {
		t.Fatalf("expected -4 / balance_after 6, got %d / %d", entry.TotalQuantity, entry.BalanceAfter)
	}
	if entry.OrderID == nil || *entry.OrderID != order.ID {
		t.Fatalf("sale entry not tied to order %d: %v", order.ID, entry.OrderID)
	}

	// stock only moves when the warehouse dispatches
	if got := p.stock(t, crate.ID); got != 50 {
		t.Fatalf("expected stock untouched at checkout, got %d", got)
	}
}

func TestCheckoutCannotOverdrawWithoutMOU(t *testing.T) {
	p := newPipeline(t)
	c := p.customer(t, 1, false)
	crate := p.product(t, true, 50)

	_, err := p.orders.Checkout(context.Background(), &models.CheckoutRequest{
		CustomerID:    c.ID,
		PaymentMethod: models.PaymentCash,
		Items:         []models.ItemQuantity{{ProductID: crate.ID, Quantity: 3}},
	}, p.userID)
	if !errors.Is(err, ErrInsufficientEmpties) {
		t.Fatalf("expected ErrInsufficientEmpties, got %v", err)
	}

	if got := p.balance(t, c.ID); got != 1 {
		t.Fatalf("expected balance 1, got %d", got)
	}
	orders, err := p.orders.ListOrders(context.Background(), models.OrderFilter{CustomerID: c.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}
	if logs := p.logs(t, c.ID, ""); len(logs) != 0 {
		t.Fatalf("expected no empties entries, got %d", len(logs))
	}
}

func TestCheckoutWithMOUMayGoNegative(t *testing.T) {
	p := newPipeline(t)
	c := p.customer(t, 0, true)
	crate := p.product(t, true, 50)

	p.checkout(t, c.ID, models.ItemQuantity{ProductID: crate.ID, Quantity: 3})

	if got := p.balance(t, c.ID); got != -3 {
		t.Fatalf("expected balance -3, got %d", got)
	}
}

func TestCancelAfterApproveRevertsEmpties(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	c := p.customer(t, 5, false)
	crate := p.product(t, true, 50)

	order := p.checkout(t, c.ID, models.ItemQuantity{ProductID: crate.ID, Quantity: 2})
	wo, err := p.orders.Approve(ctx, order.ID, p.userID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if wo.Status != models.WarehousePending || len(wo.Items) != 1 || wo.Items[0].Quantity != 2 {
		t.Fatalf("unexpected warehouse order %+v", wo)
	}

	if _, err := p.orders.CancelWarehouseOrder(ctx, wo.ID, "customer changed mind", p.userID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := p.orders.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.OrderCancelled || got.CancelReason != "customer changed mind" {
		t.Fatalf("expected cancelled order with reason, got %s %q", got.Status, got.CancelReason)
	}
	gotWO, err := p.warehouse.Get(ctx, wo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotWO.Status != models.WarehouseCancelled {
		t.Fatalf("expected cancelled warehouse order, got %s", gotWO.Status)
	}

	if b := p.balance(t, c.ID); b != 5 {
		t.Fatalf("expected balance restored to 5, got %d", b)
	}
	reversals := p.logs(t, c.ID, models.EmptiesReversal)
	if len(reversals) != 1 || reversals[0].TotalQuantity != 2 || reversals[0].BalanceAfter != 5 {
		t.Fatalf("unexpected reversal entries %+v", reversals)
	}
	if net, _ := p.empties.NetForOrder(ctx, order.ID); net != 0 {
		t.Fatalf("expected order to net to zero crates, got %d", net)
	}

	if _, err := p.orders.CancelOrder(ctx, order.ID, "again", p.userID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected second cancel to be refused, got %v", err)
	}

	want := []string{models.EventWarehouseOrderCreated, models.EventWarehouseOrderCancelled}
	if got := p.events.types(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected events %v, got %v", want, got)
	}
}

func TestMarkReadyShortStockRollsBack(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	c := p.customer(t, 0, false)
	plenty := p.product(t, false, 10)
	scarce := p.product(t, false, 1)

	order := p.checkout(t, c.ID,
		models.ItemQuantity{ProductID: plenty.ID, Quantity: 3},
		models.ItemQuantity{ProductID: scarce.ID, Quantity: 2},
	)
	wo, err := p.orders.Approve(ctx, order.ID, p.userID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = p.orders.MarkReady(ctx, wo.ID, p.userID)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if want := "insufficient stock for " + scarce.SKU; err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	if got := p.stock(t, plenty.ID); got != 10 {
		t.Fatalf("expected earlier deduction rolled back, stock %d", got)
	}
	if got, _ := p.warehouse.Get(ctx, wo.ID); got.Status != models.WarehousePending {
		t.Fatalf("expected warehouse order still pending, got %s", got.Status)
	}

	if _, err := p.products.AdjustStock(ctx, scarce.ID, 5); err != nil {
		t.Fatal(err)
	}
	ready, err := p.orders.MarkReady(ctx, wo.ID, p.userID)
	if err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	if ready.Status != models.WarehouseReady {
		t.Fatalf("expected ready, got %s", ready.Status)
	}
	if a, b := p.stock(t, plenty.ID), p.stock(t, scarce.ID); a != 7 || b != 4 {
		t.Fatalf("expected stock 7 and 4, got %d and %d", a, b)
	}

	if _, err := p.orders.CancelOrder(ctx, order.ID, "", p.userID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ready order to be terminal, got %v", err)
	}
}

var errInjected = errors.New("injected write failure")

// failingStarter hands out transactions whose statements fail once their SQL
// contains match.
type failingStarter struct {
	db.TxStarter
	match string
}

func (f failingStarter) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := f.TxStarter.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingTx{Tx: tx, match: f.match}, nil
}

type failingTx struct {
	pgx.Tx
	match string
}

func (t failingTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if strings.Contains(sql, t.match) {
		return pgconn.CommandTag{}, errInjected
	}
	return t.Tx.Exec(ctx, sql, args...)
}

func (t failingTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if strings.Contains(sql, t.match) {
		return failedRow{}
	}
	return t.Tx.QueryRow(ctx, sql, args...)
}

type failedRow struct{}

func (failedRow) Scan(...interface{}) error { return errInjected }

func TestCheckoutFailureLeavesNothingBehind(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	c := p.customer(t, 5, false)
	crate := p.product(t, true, 50)

	// the empties entry is the last write of a checkout
	orders := *p.orders
	orders.DB = failingStarter{TxStarter: p.pool, match: "INSERT INTO empties_log("}

	_, err := orders.Checkout(ctx, &models.CheckoutRequest{
		CustomerID:    c.ID,
		PaymentMethod: models.PaymentCash,
		Items:         []models.ItemQuantity{{ProductID: crate.ID, Quantity: 2}},
	}, p.userID)
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected failure, got %v", err)
	}

	if got := p.balance(t, c.ID); got != 5 {
		t.Fatalf("expected balance untouched, got %d", got)
	}
	list, err := p.orders.ListOrders(ctx, models.OrderFilter{CustomerID: c.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no orphan order, got %d", len(list))
	}
}

func TestCancelAfterCustomerDeleted(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	c := p.customer(t, 4, false)
	crate := p.product(t, true, 50)

	order := p.checkout(t, c.ID, models.ItemQuantity{ProductID: crate.ID, Quantity: 4})
	if err := p.customers.SoftDelete(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	cancelled, err := p.orders.CancelOrder(ctx, order.ID, "shop closed", p.userID)
	if err != nil {
		t.Fatalf("expected cancel to succeed for a deleted customer, got %v", err)
	}
	if cancelled.Status != models.OrderCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if got := p.balance(t, c.ID); got != 4 {
		t.Fatalf("expected crates credited back to 4, got %d", got)
	}
}

func TestProjectionRefusesDeletedCustomer(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	c := p.customer(t, 2, false)
	if err := p.customers.SoftDelete(ctx, c.ID); err != nil {
		t.Fatal(err)
	}

	_, err := p.orders.Projection(ctx, &models.ProjectionRequest{CustomerID: c.ID})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
