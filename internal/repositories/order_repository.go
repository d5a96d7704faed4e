package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"depot-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	DB DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{DB: db}
}

// WithTx returns a copy bound to tx
func (r *OrderRepository) WithTx(tx pgx.Tx) *OrderRepository {
	return &OrderRepository{DB: tx}
}

const orderSelect = `
	SELECT o.id, o.customer_id, c.name, o.total_amount, o.payment_method, o.payment_status,
	       o.payment_reference, o.status, o.cancel_reason, o.created_by_user_id,
	       o.approved_by_user_id, o.approved_at, o.cancelled_at, o.created_at, o.updated_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.TotalAmount, &o.PaymentMethod,
		&o.PaymentStatus, &o.PaymentReference, &o.Status, &o.CancelReason, &o.CreatedByUserID,
		&o.ApprovedByUserID, &o.ApprovedAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return mapErr(r.DB.QueryRow(ctx,
		`INSERT INTO orders(customer_id, total_amount, payment_method, payment_status, status, created_by_user_id)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at, updated_at`,
		o.CustomerID, o.TotalAmount, o.PaymentMethod, o.PaymentStatus, o.Status, o.CreatedByUserID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt))
}

func (r *OrderRepository) CreateSale(ctx context.Context, s *models.Sale) error {
	return mapErr(r.DB.QueryRow(ctx,
		`INSERT INTO sales(order_id, product_id, quantity, unit_price, line_total)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at`,
		s.OrderID, s.ProductID, s.Quantity, s.UnitPrice, s.LineTotal,
	).Scan(&s.ID, &s.CreatedAt))
}

func (r *OrderRepository) Get(ctx context.Context, id int) (*models.Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, orderSelect+` WHERE o.id=$1`, id))
}

// GetForUpdate locks the order row for the rest of the transaction
func (r *OrderRepository) GetForUpdate(ctx context.Context, id int) (*models.Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, orderSelect+` WHERE o.id=$1 FOR UPDATE OF o`, id))
}

func (r *OrderRepository) GetSales(ctx context.Context, orderID int) ([]models.Sale, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT s.id, s.order_id, s.product_id, p.sku, p.name, p.is_returnable,
		        s.quantity, s.unit_price, s.line_total, s.created_at
         FROM sales s
         JOIN products p ON p.id = s.product_id
         WHERE s.order_id=$1
         ORDER BY s.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.OrderID, &s.ProductID, &s.ProductSKU, &s.ProductName,
			&s.IsReturnable, &s.Quantity, &s.UnitPrice, &s.LineTotal, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	var where []string
	var args []interface{}

	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if f.CustomerID > 0 {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("o.created_at <= $%d", len(args)))
	}

	query := orderSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.created_at DESC LIMIT 500"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Approve moves a pending order to approved
func (r *OrderRepository) Approve(ctx context.Context, id, userID int) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE orders SET status='approved', approved_by_user_id=$1, approved_at=NOW(), updated_at=NOW()
         WHERE id=$2 AND status='pending'`,
		userID, id))
}

// Cancel moves an order from one of the given statuses to cancelled
func (r *OrderRepository) Cancel(ctx context.Context, id int, reason string, from ...string) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE orders SET status='cancelled', cancel_reason=$1, cancelled_at=NOW(), updated_at=NOW()
         WHERE id=$2 AND status = ANY($3)`,
		reason, id, from))
}

func (r *OrderRepository) SetPaymentReference(ctx context.Context, id int, ref string) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE orders SET payment_reference=$1, updated_at=NOW() WHERE id=$2`, ref, id))
}

// MarkPaid records a completed payment; already paid orders match no row
func (r *OrderRepository) MarkPaid(ctx context.Context, id int, ref string) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE orders SET payment_status='paid', payment_reference=$1, updated_at=NOW()
         WHERE id=$2 AND payment_status <> 'paid' AND status <> 'cancelled'`, ref, id))
}

// CountByStatus counts orders created in [from, to] per status
func (r *OrderRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT status, COUNT(*) FROM orders WHERE created_at BETWEEN $1 AND $2 GROUP BY status`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{models.OrderPending: 0, models.OrderApproved: 0, models.OrderCancelled: 0}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// SalesTotal sums non-cancelled order totals created in [from, to]
func (r *OrderRepository) SalesTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM orders
         WHERE status <> 'cancelled' AND created_at BETWEEN $1 AND $2`, from, to).Scan(&total)
	return total, err
}
