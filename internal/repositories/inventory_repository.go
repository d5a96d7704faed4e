package repositories

import (
	"context"
	"time"

	"depot-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// InventoryRepository covers receivables, loadouts and breakages
type InventoryRepository struct {
	DB DBTX
}

func NewInventoryRepository(db DBTX) *InventoryRepository {
	return &InventoryRepository{DB: db}
}

// WithTx returns a copy bound to tx
func (r *InventoryRepository) WithTx(tx pgx.Tx) *InventoryRepository {
	return &InventoryRepository{DB: tx}
}

func (r *InventoryRepository) CreateReceivable(ctx context.Context, rec *models.InventoryReceivable) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO inventory_receivables(supplier_name, reference_number, received_at, notes, created_by_user_id)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at`,
		rec.SupplierName, rec.ReferenceNumber, rec.ReceivedAt, rec.Notes, rec.CreatedByUserID,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return mapErr(err)
	}

	for i := range rec.Items {
		it := &rec.Items[i]
		it.ReceivableID = rec.ID
		if err := r.DB.QueryRow(ctx,
			`INSERT INTO inventory_receivable_items(receivable_id, product_id, quantity, unit_cost)
             VALUES($1, $2, $3, $4) RETURNING id`,
			it.ReceivableID, it.ProductID, it.Quantity, it.UnitCost,
		).Scan(&it.ID); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (r *InventoryRepository) GetReceivable(ctx context.Context, id int) (*models.InventoryReceivable, error) {
	var rec models.InventoryReceivable
	err := r.DB.QueryRow(ctx,
		`SELECT id, supplier_name, reference_number, received_at, image_key, notes, created_by_user_id, created_at
         FROM inventory_receivables WHERE id=$1`, id,
	).Scan(&rec.ID, &rec.SupplierName, &rec.ReferenceNumber, &rec.ReceivedAt, &rec.ImageKey,
		&rec.Notes, &rec.CreatedByUserID, &rec.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}

	rows, err := r.DB.Query(ctx,
		`SELECT i.id, i.receivable_id, i.product_id, p.name, i.quantity, i.unit_cost
         FROM inventory_receivable_items i
         JOIN products p ON p.id = i.product_id
         WHERE i.receivable_id=$1 ORDER BY i.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec.Items = []models.InventoryReceivableItem{}
	for rows.Next() {
		var it models.InventoryReceivableItem
		if err := rows.Scan(&it.ID, &it.ReceivableID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitCost); err != nil {
			return nil, err
		}
		rec.Items = append(rec.Items, it)
	}
	return &rec, rows.Err()
}

func (r *InventoryRepository) ListReceivables(ctx context.Context, from, to time.Time) ([]*models.InventoryReceivable, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, supplier_name, reference_number, received_at, image_key, notes, created_by_user_id, created_at
         FROM inventory_receivables
         WHERE received_at BETWEEN $1::date AND $2::date
         ORDER BY received_at DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*models.InventoryReceivable{}
	for rows.Next() {
		var rec models.InventoryReceivable
		if err := rows.Scan(&rec.ID, &rec.SupplierName, &rec.ReferenceNumber, &rec.ReceivedAt,
			&rec.ImageKey, &rec.Notes, &rec.CreatedByUserID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}

func (r *InventoryRepository) SetReceivableImage(ctx context.Context, id int, key string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE inventory_receivables SET image_key=$1 WHERE id=$2`, key, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InventoryRepository) CreateLoadout(ctx context.Context, l *models.Loadout) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO loadouts(vse_name, customer_id, loadout_date, notes, created_by_user_id)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at`,
		l.VSEName, l.CustomerID, l.LoadoutDate, l.Notes, l.CreatedByUserID,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return mapErr(err)
	}

	for i := range l.Items {
		it := &l.Items[i]
		it.LoadoutID = l.ID
		if err := r.DB.QueryRow(ctx,
			`INSERT INTO loadout_items(loadout_id, product_id, quantity) VALUES($1, $2, $3) RETURNING id`,
			it.LoadoutID, it.ProductID, it.Quantity,
		).Scan(&it.ID); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (r *InventoryRepository) GetLoadout(ctx context.Context, id int) (*models.Loadout, error) {
	var l models.Loadout
	err := r.DB.QueryRow(ctx,
		`SELECT id, vse_name, customer_id, loadout_date, notes, created_by_user_id, created_at
         FROM loadouts WHERE id=$1`, id,
	).Scan(&l.ID, &l.VSEName, &l.CustomerID, &l.LoadoutDate, &l.Notes, &l.CreatedByUserID, &l.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}

	rows, err := r.DB.Query(ctx,
		`SELECT i.id, i.loadout_id, i.product_id, p.name, i.quantity
         FROM loadout_items i
         JOIN products p ON p.id = i.product_id
         WHERE i.loadout_id=$1 ORDER BY i.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	l.Items = []models.LoadoutItem{}
	for rows.Next() {
		var it models.LoadoutItem
		if err := rows.Scan(&it.ID, &it.LoadoutID, &it.ProductID, &it.ProductName, &it.Quantity); err != nil {
			return nil, err
		}
		l.Items = append(l.Items, it)
	}
	return &l, rows.Err()
}

func (r *InventoryRepository) ListLoadouts(ctx context.Context, from, to time.Time) ([]*models.Loadout, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, vse_name, customer_id, loadout_date, notes, created_by_user_id, created_at
         FROM loadouts
         WHERE loadout_date BETWEEN $1::date AND $2::date
         ORDER BY loadout_date DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*models.Loadout{}
	for rows.Next() {
		var l models.Loadout
		if err := rows.Scan(&l.ID, &l.VSEName, &l.CustomerID, &l.LoadoutDate, &l.Notes,
			&l.CreatedByUserID, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

func (r *InventoryRepository) CreateBreakage(ctx context.Context, b *models.Breakage) error {
	return mapErr(r.DB.QueryRow(ctx,
		`INSERT INTO breakages(product_id, quantity, reason, reported_by_user_id)
         VALUES($1, $2, $3, $4) RETURNING id, created_at`,
		b.ProductID, b.Quantity, b.Reason, b.ReportedByUserID,
	).Scan(&b.ID, &b.CreatedAt))
}

func (r *InventoryRepository) ListBreakages(ctx context.Context, from, to time.Time) ([]*models.Breakage, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT b.id, b.product_id, p.name, b.quantity, b.reason, b.reported_by_user_id, b.created_at
         FROM breakages b
         JOIN products p ON p.id = b.product_id
         WHERE b.created_at BETWEEN $1 AND $2
         ORDER BY b.created_at DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*models.Breakage{}
	for rows.Next() {
		var b models.Breakage
		if err := rows.Scan(&b.ID, &b.ProductID, &b.ProductName, &b.Quantity, &b.Reason,
			&b.ReportedByUserID, &b.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// StockMovements aggregates every stock movement per active product in [from, to]
func (r *InventoryRepository) StockMovements(ctx context.Context, from, to time.Time) ([]models.StockReportRow, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.sku, p.name, p.stock_quantity, p.reorder_level,
		       COALESCE(rcv.qty, 0), COALESCE(lo.qty, 0), COALESCE(br.qty, 0), COALESCE(dsp.qty, 0)
		FROM products p
		LEFT JOIN (
			SELECT i.product_id, SUM(i.quantity) AS qty
			FROM inventory_receivable_items i
			JOIN inventory_receivables r ON r.id = i.receivable_id
			WHERE r.received_at BETWEEN $1::date AND $2::date
			GROUP BY i.product_id
		) rcv ON rcv.product_id = p.id
		LEFT JOIN (
			SELECT i.product_id, SUM(i.quantity) AS qty
			FROM loadout_items i
			JOIN loadouts l ON l.id = i.loadout_id
			WHERE l.loadout_date BETWEEN $1::date AND $2::date
			GROUP BY i.product_id
		) lo ON lo.product_id = p.id
		LEFT JOIN (
			SELECT product_id, SUM(quantity) AS qty
			FROM breakages
			WHERE created_at BETWEEN $1 AND $2
			GROUP BY product_id
		) br ON br.product_id = p.id
		LEFT JOIN (
			SELECT i.product_id, SUM(i.quantity) AS qty
			FROM warehouse_order_items i
			JOIN warehouse_orders w ON w.id = i.warehouse_order_id
			WHERE w.status = 'ready' AND w.ready_at BETWEEN $1 AND $2
			GROUP BY i.product_id
		) dsp ON dsp.product_id = p.id
		WHERE p.deleted_at IS NULL
		ORDER BY p.name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := []models.StockReportRow{}
	for rows.Next() {
		var row models.StockReportRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.CurrentStock, &row.ReorderLevel,
			&row.Received, &row.LoadedOut, &row.Broken, &row.Dispatched); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
