package repositories

import (
	"context"

	"depot-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

type WarehouseOrderRepository struct {
	DB DBTX
}

func NewWarehouseOrderRepository(db DBTX) *WarehouseOrderRepository {
	return &WarehouseOrderRepository{DB: db}
}

// WithTx returns a copy bound to tx
func (r *WarehouseOrderRepository) WithTx(tx pgx.Tx) *WarehouseOrderRepository {
	return &WarehouseOrderRepository{DB: tx}
}

const warehouseOrderSelect = `
	SELECT w.id, w.order_id, c.name, w.status, w.processed_by_user_id, w.ready_at, w.cancelled_at,
	       w.created_at, w.updated_at
	FROM warehouse_orders w
	JOIN orders o ON o.id = w.order_id
	JOIN customers c ON c.id = o.customer_id`

func scanWarehouseOrder(row pgx.Row) (*models.WarehouseOrder, error) {
	var w models.WarehouseOrder
	err := row.Scan(&w.ID, &w.OrderID, &w.CustomerName, &w.Status, &w.ProcessedByUserID,
		&w.ReadyAt, &w.CancelledAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &w, nil
}

func (r *WarehouseOrderRepository) Create(ctx context.Context, w *models.WarehouseOrder) error {
	return mapErr(r.DB.QueryRow(ctx,
		`INSERT INTO warehouse_orders(order_id, status) VALUES($1, $2)
         RETURNING id, created_at, updated_at`,
		w.OrderID, w.Status,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt))
}

func (r *WarehouseOrderRepository) AddItem(ctx context.Context, item *models.WarehouseOrderItem) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO warehouse_order_items(warehouse_order_id, product_id, quantity)
         VALUES($1, $2, $3) RETURNING id`,
		item.WarehouseOrderID, item.ProductID, item.Quantity,
	).Scan(&item.ID)
}

func (r *WarehouseOrderRepository) Get(ctx context.Context, id int) (*models.WarehouseOrder, error) {
	return scanWarehouseOrder(r.DB.QueryRow(ctx, warehouseOrderSelect+` WHERE w.id=$1`, id))
}

func (r *WarehouseOrderRepository) GetByOrderID(ctx context.Context, orderID int) (*models.WarehouseOrder, error) {
	return scanWarehouseOrder(r.DB.QueryRow(ctx, warehouseOrderSelect+` WHERE w.order_id=$1`, orderID))
}

// GetForUpdate locks the warehouse order row for the rest of the transaction
func (r *WarehouseOrderRepository) GetForUpdate(ctx context.Context, id int) (*models.WarehouseOrder, error) {
	return scanWarehouseOrder(r.DB.QueryRow(ctx, warehouseOrderSelect+` WHERE w.id=$1 FOR UPDATE OF w`, id))
}

func (r *WarehouseOrderRepository) GetItems(ctx context.Context, warehouseOrderID int) ([]models.WarehouseOrderItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT i.id, i.warehouse_order_id, i.product_id, p.sku, p.name, i.quantity
         FROM warehouse_order_items i
         JOIN products p ON p.id = i.product_id
         WHERE i.warehouse_order_id=$1
         ORDER BY i.id`, warehouseOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.WarehouseOrderItem{}
	for rows.Next() {
		var it models.WarehouseOrderItem
		if err := rows.Scan(&it.ID, &it.WarehouseOrderID, &it.ProductID, &it.ProductSKU,
			&it.ProductName, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *WarehouseOrderRepository) List(ctx context.Context, status string) ([]*models.WarehouseOrder, error) {
	query := warehouseOrderSelect
	var args []interface{}
	if status != "" {
		query += ` WHERE w.status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY w.created_at DESC LIMIT 500`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*models.WarehouseOrder{}
	for rows.Next() {
		w, err := scanWarehouseOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, w)
	}
	return orders, rows.Err()
}

// MarkReady moves a pending warehouse order to ready
func (r *WarehouseOrderRepository) MarkReady(ctx context.Context, id, userID int) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE warehouse_orders SET status='ready', processed_by_user_id=$1, ready_at=NOW(), updated_at=NOW()
         WHERE id=$2 AND status='pending'`,
		userID, id))
}

// Cancel moves a pending warehouse order to cancelled
func (r *WarehouseOrderRepository) Cancel(ctx context.Context, id, userID int) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE warehouse_orders SET status='cancelled', processed_by_user_id=$1, cancelled_at=NOW(), updated_at=NOW()
         WHERE id=$2 AND status='pending'`,
		userID, id))
}

func (r *WarehouseOrderRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM warehouse_orders WHERE status='pending'`).Scan(&n)
	return n, err
}
